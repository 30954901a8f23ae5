package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records authentication events.
//
// IMPORTANT:
// - Audit is internal-only. Records are never shown to workspace users.
// - Callers treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	switch e.Type {
	case EventTypeLogin, EventTypeLogout:
		if e.Subject == "" {
			return ErrInvalidEvent
		}
	case EventTypeSessionRejected:
	default:
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogLogin records a completed login callback.
func (s *Service) LogLogin(ctx context.Context, subject, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLogin,
		Subject:   subject,
		IPAddress: ip,
		Message:   "login",
	})
}

func (s *Service) LogLogout(ctx context.Context, subject, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLogout,
		Subject:   subject,
		IPAddress: ip,
		Message:   "logout",
	})
}

// LogSessionRejected records a session cookie that failed verification.
func (s *Service) LogSessionRejected(ctx context.Context, ip, reason string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeSessionRejected,
		IPAddress: ip,
		Message:   reason,
	})
}

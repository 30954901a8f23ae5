package auth

import (
	"encoding/json"
	"net/http"
)

// Result is the buffered response of the identity middleware.
//
// For /auth routes it is the complete response. For every other path it is a
// pass-through carrying only headers (session cookies) to merge onto the
// forwarded response.
type Result struct {
	Status int
	Header http.Header
	Body   []byte

	// handled is set once the identity middleware has produced a final response.
	handled bool
}

func passThrough() *Result {
	return &Result{Status: http.StatusOK, Header: make(http.Header)}
}

// WriteTo writes the result unmodified.
func (r *Result) WriteTo(w http.ResponseWriter) {
	mergeHeaders(w.Header(), r.Header)
	w.WriteHeader(r.Status)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}

func (r *Result) redirect(location string) *Result {
	r.handled = true
	r.Status = http.StatusFound
	r.Header.Set("Location", location)
	return r
}

func (r *Result) json(status int, v any) *Result {
	r.handled = true
	r.Status = status
	body, err := json.Marshal(v)
	if err != nil {
		r.Status = http.StatusInternalServerError
		body = []byte(`{"error":"encode failed"}`)
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Header.Set("Cache-Control", "no-store")
	r.Body = body
	return r
}

func (r *Result) setCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.Header.Add("Set-Cookie", v)
	}
}

// mergeHeaders copies every value of every key in src onto dst. Keys present in
// src replace dst's values; multi-value keys such as Set-Cookie keep all values.
func mergeHeaders(dst, src http.Header) {
	for k, vals := range src {
		dst.Del(k)
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"platform-console/internal/rpc"
	"platform-console/internal/workspace"
)

func newWhoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in workspace user and tenant memberships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := opts.clients(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			st := workspace.NewProfileLoader(clients.Me, nil).Load(cmd.Context())
			if st.Err != "" {
				return fmt.Errorf("get me: %s", st.Err)
			}
			if st.Value == nil || st.Value.Me == nil {
				return fmt.Errorf("get me: empty response")
			}
			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), st.Value.Me)
			}
			printMe(cmd.OutOrStdout(), st.Value.Me)
			return nil
		},
	}
}

func printMe(w io.Writer, me *rpc.GetMeResponse) {
	fmt.Fprintf(w, "Name:              %s\n", me.Name)
	fmt.Fprintf(w, "Email:             %s\n", me.Email)
	fmt.Fprintf(w, "Workspace ID:      %s\n", me.WorkspaceID)
	fmt.Fprintf(w, "Workspace User ID: %s\n", me.WorkspaceUserID)
	if len(me.Tenants) == 0 {
		return
	}
	fmt.Fprintln(w, "Tenants:")
	for _, t := range me.Tenants {
		fmt.Fprintf(w, "  %s (%s) %s\n", t.TenantID, t.TenantUserID, t.Role.Label())
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

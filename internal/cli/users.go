package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"platform-console/internal/workspace"
)

func newUsersCommand(opts *options) *cobra.Command {
	var (
		pageSize int
		pages    int
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List workspace users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := opts.clients(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			limit := pages
			if all {
				limit = 0
			}
			st := workspace.NewUsersPager(clients.Me, pageSize).Collect(cmd.Context(), limit)
			if st.Err != "" {
				return fmt.Errorf("list workspace users: %s", st.Err)
			}

			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), struct {
					Users         any    `json:"users"`
					NextPageToken string `json:"nextPageToken,omitempty"`
				}{st.Users, st.NextPageToken})
			}

			if len(st.Users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users found")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
			for _, u := range st.Users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.WorkspaceUserID, u.Name, u.Email)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if st.HasMore() {
				fmt.Fprintf(cmd.ErrOrStderr(), "more users available; rerun with --pages %d or --all\n", st.Pages+1)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", workspace.DefaultPageSize, "users per request")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")
	cmd.Flags().BoolVar(&all, "all", false, "follow page tokens until the list is exhausted")
	return cmd
}

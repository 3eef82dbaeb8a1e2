package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/partsdesk/internal/core"
	"github.com/JonMunkholm/partsdesk/internal/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	for _, dir := range []struct {
		use string
		up  bool
	}{{"up", true}, {"down", false}} {
		up := dir.up
		cmd.AddCommand(&cobra.Command{
			Use:   dir.use,
			Short: "Migrate " + dir.use,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if opts.databaseURL == "" {
					return fmt.Errorf("--database-url or DATABASE_URL is required")
				}
				if err := database.Migrate(opts.databaseURL, up); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		})
	}
	return cmd
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage API users",
	}

	var email, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print its API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := svc.CreateUser(cmd.Context(), email, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:  %s <%s>\n", u.ID, u.Email)
			fmt.Fprintf(out, "token: %s\n", u.APIToken)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "user email")
	add.Flags().StringVar(&name, "name", "", "full name")
	_ = add.MarkFlagRequired("email")

	cmd.AddCommand(add)
	return cmd
}

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the default projects if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.EnsureDefaultProjects(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d projects created\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			projects, err := svc.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range projects {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-12s %s\n", p.Code, p.Status, p.Name)
			}
			return nil
		},
	})

	return cmd
}

func newComponentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Manage component inventory",
	}

	var kind, file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import an inventory file; nothing is stored unless every row is valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseComponentKind(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			svc, closeFn, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := svc.ImportComponents(cmd.Context(), k, filepath.Base(file), data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ve := range res.Errors {
				fmt.Fprintf(out, "  %s\n", ve.Error())
			}
			if len(res.Errors) > 0 {
				return errInvalidFile
			}
			fmt.Fprintf(out, "%d %s components imported\n", res.Inserted, k)
			return nil
		},
	}
	importCmd.Flags().StringVar(&kind, "kind", "", "component kind (resistor, capacitor, transistor, mosfet)")
	importCmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX file")
	_ = importCmd.MarkFlagRequired("kind")
	_ = importCmd.MarkFlagRequired("file")

	cmd.AddCommand(importCmd)
	return cmd
}

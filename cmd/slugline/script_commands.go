package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "Manage uploaded scripts",
	}

	scriptCmd.AddCommand(newScriptAddCommand(ctx))
	scriptCmd.AddCommand(newScriptListCommand(ctx))

	return scriptCmd
}

func newScriptAddCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Upload a screenplay file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			script, err := svc.CreateScript(cmd.Context(), ctx.userID(), title, filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored %q as %s (%s, %d pages)\n", script.Title, script.ID, script.FileType, script.PageCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Script title (defaults to the file name)")
	return cmd
}

func newScriptListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your uploaded scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			list, err := svc.ListScripts(cmd.Context(), ctx.userID())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{"scripts": list})
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No scripts uploaded yet.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, script := range list {
				rows = append(rows, []string{
					script.ID,
					script.Title,
					script.FileType,
					fmt.Sprintf("%d", script.PageCount),
					script.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			printRows(out,
				[]string{"ID", "TITLE", "TYPE", "PAGES", "UPLOADED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

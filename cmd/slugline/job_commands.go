package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slugline/internal/extractor"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Manage parse jobs",
	}

	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))

	return jobCmd
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	var scriptID string
	var columnsFlag string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a parse job for a script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			if strings.TrimSpace(scriptID) == "" {
				return fmt.Errorf("--script is required")
			}
			var columns []string
			for _, name := range strings.Split(columnsFlag, ",") {
				if name = strings.TrimSpace(name); name != "" {
					columns = append(columns, name)
				}
			}
			// The service requires an explicit selection; no flag means
			// everything.
			if len(columns) == 0 {
				columns = extractor.AllColumnNames()
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			job, err := svc.CreateJob(cmd.Context(), ctx.userID(), scriptID, columns)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d (%s) for script %s\n", job.ID, job.Status, job.ScriptID)
			fmt.Fprintf(cmd.OutOrStdout(), "Columns: %s\n", strings.Join(job.SelectedColumns, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptID, "script", "s", "", "Script id to parse")
	cmd.Flags().StringVar(&columnsFlag, "columns", "", "Comma-separated output columns (default: all)")
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job with its stored output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			job, err := svc.GetJob(cmd.Context(), ctx.userID(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd, job)
		},
	}
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your parse jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.closeStores()

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			list, err := svc.ListJobs(cmd.Context(), ctx.userID())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{"jobs": list})
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs yet.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, job := range list {
				detail := job.Error
				if detail == "" && job.PagesCharged > 0 {
					detail = fmt.Sprintf("%d pages charged", job.PagesCharged)
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", job.ID),
					job.ScriptID,
					job.Status,
					job.CreatedAt.Local().Format("2006-01-02 15:04"),
					detail,
				})
			}
			printRows(out,
				[]string{"ID", "SCRIPT", "STATUS", "CREATED", "DETAIL"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

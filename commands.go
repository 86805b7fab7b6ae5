package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/focusflow/internal/export"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/store"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Manage tasks"}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			list, err := svc.tasks.ListTasks(cmd.Context(), all)
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), list)
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "include completed tasks")

	var description string
	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			in := pomodoro.TaskCreate{Title: args[0]}
			if description != "" {
				in.Description = &description
			}
			task, err := svc.tasks.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "task description")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			task, err := svc.tasks.UpdateTask(cmd.Context(), id, pomodoro.TaskUpdate{Completed: pomodoro.Ptr(true)})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "completed task %d: %s\n", task.ID, task.Title)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.tasks.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted task %d\n", id)
			return nil
		},
	}

	tasks.AddCommand(listCmd, addCmd, doneCmd, rmCmd)
	return tasks
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printTasks(w io.Writer, tasks []pomodoro.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tCREATED")
	for _, t := range tasks {
		done := ""
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, done, t.Title, t.CreatedAt.Local().Format("2006-01-02"))
	}
	return tw.Flush()
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's focus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			stats, err := svc.sessions.TodayStats(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "today: %d sessions, %d min focused\n", stats.CompletedToday, stats.TotalFocusMinutes)

			if active, err := svc.sessions.ActiveSession(cmd.Context()); err == nil && active != nil {
				_, _ = fmt.Fprintf(out, "active: #%d %s (%s)\n", active.ID, active.SessionType, active.State)
			}

			completed, secs, err := svc.store.HistoryTotals()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "all time on this machine: %d sessions, %s focused\n",
				completed, (time.Duration(secs) * time.Second).String())
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Local session history"}

	var format, output string
	var days int
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export finished sessions as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported format %q (csv or json)", format)
			}
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			var filter store.HistoryFilter
			if days > 0 {
				from := time.Now().AddDate(0, 0, -days)
				filter.From = &from
			}
			entries, err := svc.store.ListHistory(filter)
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				if format == "csv" {
					err = export.ToCSV(entries, output)
				} else {
					err = export.ToJSON(entries, output)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d sessions to %s\n", len(entries), output)
				return nil
			}
			if format == "csv" {
				return export.WriteCSV(cmd.OutOrStdout(), entries)
			}
			return export.WriteJSON(cmd.OutOrStdout(), entries, time.Now())
		},
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "output format: csv|json")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&days, "days", 0, "only sessions from the last N days")

	history.AddCommand(exportCmd)
	return history
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := opts.cfg.YAML()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rimebridge/internal/config"
	"rimebridge/internal/store"
)

func openHistory() (*store.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil, errors.New("commit history is disabled in the config")
	}
	s, err := store.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune the commit history",
	}
	cmd.AddCommand(newHistoryRecentCmd())
	cmd.AddCommand(newHistoryTopCmd())
	cmd.AddCommand(newHistoryPruneCmd())
	cmd.AddCommand(newHistoryStatusCmd())
	return cmd
}

func newHistoryRecentCmd() *cobra.Command {
	var (
		limit    int
		schemaID string
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openHistory()
			if err != nil {
				return err
			}
			defer s.Close()

			commits, err := s.RecentCommits(schemaID, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSCHEMA\tPREEDIT\tTEXT")
			for _, c := range commits {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					c.CreatedAt.Format(time.DateTime), c.SchemaID, c.Preedit, c.Text)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of commits")
	cmd.Flags().StringVar(&schemaID, "schema", "", "only commits made with this schema")
	return cmd
}

func newHistoryTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the most frequently committed texts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openHistory()
			if err != nil {
				return err
			}
			defer s.Close()

			top, err := s.TopCommits(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COUNT\tLAST\tTEXT")
			for _, f := range top {
				fmt.Fprintf(w, "%d\t%s\t%s\n", f.Count, f.Last.Format(time.DateTime), f.Text)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of texts")
	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	var (
		keep      int
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old commits",
		Long: `Delete old commits. By default the newest history.limit commits are
kept; --keep overrides the limit and --older-than deletes by age instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openHistory()
			if err != nil {
				return err
			}
			defer s.Close()

			var n int64
			switch {
			case olderThan > 0:
				n, err = s.DeleteBefore(time.Now().Add(-olderThan))
			default:
				if !cmd.Flags().Changed("keep") {
					keep = cfg.History.Limit
				}
				if keep <= 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "history limit is 0: nothing to prune")
					return nil
				}
				n, err = s.Prune(keep)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d commits\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 0, "number of newest commits to keep")
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete commits older than this age, e.g. 720h")
	return cmd
}

func newHistoryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the history database location, size and schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openHistory()
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Count()
			if err != nil {
				return err
			}
			status, err := s.MigrationStatus()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database: %s\n", cfg.History.Path)
			fmt.Fprintf(out, "commits:  %d (limit %d)\n", n, cfg.History.Limit)
			fmt.Fprintf(out, "schema:   version %d of %d\n", status.CurrentVersion, status.LatestVersion)
			return nil
		},
	}
}

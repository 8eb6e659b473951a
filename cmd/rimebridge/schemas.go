package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rimebridge/internal/marshal"
	"rimebridge/internal/native"
	"rimebridge/internal/schema"
)

func newSchemasCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas deployed in the Rime data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			traits := cfg.Rime.Traits()
			catalog, err := schema.Open(traits.SharedDataDir, traits.UserDataDir,
				schema.WithLogger(slog.Default()))
			if err != nil {
				return err
			}

			var list *native.SchemaList
			if all {
				list = catalog.Available()
			} else {
				list = catalog.Selected()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tVERSION")
			for _, item := range marshal.SchemaList(marshal.DefaultRegistry{}, list) {
				s, _ := catalog.Lookup(item.SchemaID)
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.SchemaID, item.Name, s.Version)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\npage size: %d\n", catalog.PageSize())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every installed schema, not only the selected ones")
	return cmd
}

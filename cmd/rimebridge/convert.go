package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rimebridge/internal/config"
	"rimebridge/internal/metrics"
	"rimebridge/internal/opencc"
)

func newAdapter() *opencc.Adapter {
	return opencc.NewAdapter(opencc.NewLibrary(),
		opencc.WithLogger(slog.Default()),
		opencc.WithMetrics(metrics.New(nil)))
}

// resolveOpenCCConfig keeps absolute and relative paths, and looks bare names
// up in the configured data directory.
func resolveOpenCCConfig(cfg *config.Config, name string) string {
	if name == "" {
		name = cfg.OpenCC.DefaultConfig
	}
	if strings.ContainsRune(name, filepath.Separator) || cfg.OpenCC.DataDir == "" {
		return name
	}
	return filepath.Join(cfg.OpenCC.DataDir, name)
}

func newConvertCmd() *cobra.Command {
	var configName string

	cmd := &cobra.Command{
		Use:   "convert [text...]",
		Short: "Convert text with an OpenCC configuration",
		Long: `Convert text with an OpenCC configuration such as s2t.json.

Arguments are converted one per line. Without arguments, standard input is
converted line by line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			adapter := newAdapter()
			name := resolveOpenCCConfig(cfg, configName)
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				for _, text := range args {
					converted, err := adapter.ConvertText(text, name)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, converted)
				}
				return nil
			}
			return convertLines(adapter, name, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVarP(&configName, "opencc-config", "c", "", "OpenCC configuration (default from config file)")
	return cmd
}

func convertLines(adapter *opencc.Adapter, name string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		converted, err := adapter.ConvertText(scanner.Text(), name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, converted)
	}
	return scanner.Err()
}

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Convert OpenCC dictionaries between text and packed formats",
	}
	cmd.AddCommand(newDictModeCmd("pack", "Pack a text dictionary", opencc.ModePack))
	cmd.AddCommand(newDictModeCmd("unpack", "Unpack a packed dictionary to text", opencc.ModeUnpack))
	return cmd
}

func newDictModeCmd(use, short string, mode opencc.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <src> <dst>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAdapter().ConvertDictionary(args[0], args[1], mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", mode, args[0], args[1])
			return nil
		},
	}
}

// rimebridge is the command-line front end to the Rime and OpenCC bridges.
//
// It parses and formats key events, converts text and dictionaries with
// OpenCC, lists deployed schemas and inspects the commit history that the
// IBus engine records.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rimebridge/internal/config"
	"rimebridge/internal/logging"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rimebridge",
		Short:         "Rime key events, OpenCC conversion and commit history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging()
		},
	}

	root.PersistentFlags().String("config", "", "config file (default is $XDG_CONFIG_HOME/rimebridge/config.toml)")
	root.PersistentFlags().String("log-level", "", "override the configured log level")
	viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("RIMEBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newKeyCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newDictCmd())
	root.AddCommand(newSchemasCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the file named by --config or $RIMEBRIDGE_CONFIG.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if level := viper.GetString("log_level"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	return cfg, nil
}

func initLogging() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.Logging.LoggingOptions("cli")
	if err != nil {
		return err
	}
	// The CLI writes results to stdout; keep logs off it.
	if opts.Output == "stdout" {
		opts.Output = "stderr"
	}
	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rimebridge %s\n", version)
		},
	}
}

// Package cmd implements the CLI commands for termrelay.
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
	"github.com/xdg/termrelay/internal/policy"
	"github.com/xdg/termrelay/internal/term"
	"github.com/xdg/termrelay/internal/version"
)

var (
	configPath string
	debugLog   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "termrelay",
	Short: "Stream allow-listed command output to a web terminal",
	Long: `termrelay accepts a command identifier from a web terminal, checks it
against a fixed allow-list and deny-list, runs the command it maps to, and
streams the output back chunk by chunk as it is produced.

Commands run as local child processes or inside an already-running container
(Docker or Kubernetes). Nothing outside the allow-list ever executes.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "log at debug level")
	rootCmd.SetVersionTemplate("termrelay {{.Version}}\n")
}

// Execute runs the root command and returns any error. Errors other than
// an ExitCodeError are printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	var exitErr *ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		term.Error("%v", err)
	}
	return err
}

// loadConfig loads the file named by --config, or the default path.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(effectiveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogging configures the global logger from cfg. The server logs to its
// file and, in the foreground, to stderr; the one-shot commands only log to
// stderr and only warnings unless --debug is given.
func setupLogging(cfg *config.Config, serving bool) error {
	level, err := clog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	opts := clog.Options{Level: level, Foreground: serving}
	if serving {
		opts.File = cfg.Log.File
	} else {
		opts.Level = clog.LevelWarn
	}
	if debugLog {
		opts.Level = clog.LevelDebug
		opts.Foreground = true
	}
	return clog.Configure(opts)
}

// newValidator builds the request validator from the configured lists.
func newValidator(cfg *config.Config) *policy.Validator {
	return policy.NewValidator(
		policy.NewAllowListFromConfig(cfg.Commands),
		policy.NewDenyList(cfg.Deny),
	)
}

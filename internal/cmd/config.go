package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xdg/termrelay/internal/config"
	"github.com/xdg/termrelay/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the termrelay configuration file.

The configuration file is stored at ~/.config/termrelay/config.yaml
(or $XDG_CONFIG_HOME/termrelay/config.yaml if XDG_CONFIG_HOME is set),
unless --config names another file. It is read once at startup.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective config",
	Long: `Print the effective configuration as YAML.

If no config file exists, shows the default configuration.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	Long: `Create the default configuration file if it doesn't exist.

This creates a fully-commented configuration file with all default values.
If the file already exists, this command does nothing.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func effectiveConfigPath() string {
	if configPath != "" {
		return config.ExpandHome(configPath)
	}
	return config.DefaultPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	term.Printf("%s", data)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(effectiveConfigPath())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := effectiveConfigPath()

	if _, err := os.Stat(path); err == nil {
		term.Printf("Config already exists at: %s\n", path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config: %w", err)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	term.Printf("Created default config at: %s\n", path)
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xdg/termrelay/internal/policy"
	"github.com/xdg/termrelay/internal/term"
)

var checkCmd = &cobra.Command{
	Use:   "check <identifier>",
	Short: "Show what an identifier resolves to",
	Long: `Validate an identifier and print the decision without running anything.

Exits with status 2 if the identifier is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d := newValidator(cfg).Validate(args[0])
	switch d.Outcome {
	case policy.Empty:
		term.Println("empty: nothing would run")
	case policy.Resolved:
		inv := d.Invocation
		term.Printf("%s: allowed\n", d.Name)
		term.Printf("  line:  %s\n", inv.Line)
		if inv.Shell {
			term.Printf("  shell: %s -c\n", shellOf(cfg.Backend.Shell))
		} else {
			term.Printf("  argv:  %q\n", inv.Argv)
		}
	default:
		term.Printf("%s: rejected (%s)\n", d.Name, d.Reason)
		return NewExitCodeError(ExitRejected)
	}
	return nil
}

func shellOf(configured string) string {
	if configured == "" {
		return "/bin/sh"
	}
	return configured
}

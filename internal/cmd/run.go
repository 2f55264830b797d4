package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdg/termrelay/internal/policy"
	"github.com/xdg/termrelay/internal/relay"
	"github.com/xdg/termrelay/internal/term"
)

var runCmd = &cobra.Command{
	Use:   "run <identifier>",
	Short: "Run an allow-listed command and print its output",
	Long: `Validate an identifier exactly as the server would and relay the command's
output to stdout. Ctrl-C terminates the command.

Exits with status 2 if the identifier is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg, false); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackend(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	return relayTo(ctx, relay.New(b), newValidator(cfg).Validate(args[0]))
}

// relayTo streams the decision's output to stdout. On a terminal, output
// that does not end in a newline gets one so the shell prompt starts on its
// own line.
func relayTo(ctx context.Context, r *relay.Relay, d policy.Decision) error {
	last := ""
	for chunk := range r.Stream(ctx, d) {
		if err := term.Chunk(chunk); err != nil {
			return err
		}
		last = chunk
	}

	switch {
	case d.Outcome == policy.Rejected:
		term.Println()
		return NewExitCodeError(ExitRejected)
	case ctx.Err() != nil:
		return NewExitCodeError(ExitInterrupted)
	}
	if last != "" && !strings.HasSuffix(last, "\n") && term.IsTerminal() {
		term.Println()
	}
	return nil
}

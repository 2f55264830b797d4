package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xdg/termrelay/internal/audit"
	"github.com/xdg/termrelay/internal/clog"
	"github.com/xdg/termrelay/internal/config"
	"github.com/xdg/termrelay/internal/relay"
	"github.com/xdg/termrelay/internal/server"
	"github.com/xdg/termrelay/internal/term"
)

// serveOptions holds the serve command's flags.
type serveOptions struct {
	listen string
}

func (o *serveOptions) addFlags(f *pflag.FlagSet) {
	f.StringVar(&o.listen, "listen", "", "address to listen on (overrides server.listen)")
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the terminal endpoint",
	Long: `Start the HTTP server that relays allow-listed commands to the web terminal.

The backend is resolved once at startup: with the container backend the
target container must already be running. The server stops on SIGINT or
SIGTERM, giving in-flight streams server.shutdown_timeout to finish before
their connections are closed and their commands terminated.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveOpts.addFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveOpts.listen != "" {
		cfg.Server.Listen = serveOpts.listen
	}

	if err := setupLogging(cfg, true); err != nil {
		return err
	}
	defer func() { _ = clog.Close() }()
	clog.RedirectStdLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, func(addr string) {
		term.Printf("termrelay listening on %s\n", addr)
	})
}

// serve runs the server until ctx is done. ready is called with the bound
// address once the server accepts connections.
func serve(ctx context.Context, cfg *config.Config, ready func(addr string)) error {
	auditLog, closeAudit := openAudit(cfg.Log.Audit)
	defer closeAudit()

	b, err := buildBackend(ctx, cfg.Backend)
	if err != nil {
		return err
	}

	v := newValidator(cfg)
	clog.Info("loaded %d commands and %d deny-listed tokens; backend %s", v.AllowList().Len(), len(cfg.Deny), b.Name())

	srv := server.New(cfg.Server, v, relay.New(b), auditLog)
	if err := srv.Start(); err != nil {
		return err
	}
	if ready != nil {
		ready(srv.ListenAddr())
	}

	<-ctx.Done()
	clog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownDuration())
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	clog.Debug("server stopped")
	return nil
}

// openAudit opens the audit log at path. Auditing is disabled when path is
// empty or the file cannot be opened.
func openAudit(path string) (*audit.Logger, func()) {
	if path == "" {
		return nil, func() {}
	}
	l, f, err := audit.OpenFile(path)
	if err != nil {
		clog.Warn("failed to open audit log file %s: %v", path, err)
		return nil, func() {}
	}
	clog.Info("audit logging enabled: %s", path)
	return l, func() { _ = f.Close() }
}

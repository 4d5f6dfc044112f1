package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragchat/internal/metrics"
	"ragchat/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat form over HTTP",
	Long: `Builds or loads the index, then serves the chat form on the configured
address until interrupted. Every browser session keeps its own transcript.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	handle, err := startHandle(ctx, m)
	if err != nil {
		return err
	}

	addr := appCfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv, err := web.NewServer(web.Options{
		Addr:          addr,
		SessionCookie: appCfg.Server.SessionCookie,
		SessionTTL:    time.Duration(appCfg.Server.SessionTTLMinutes) * time.Minute,
		Metrics:       m,
	}, handle, appLog.Logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

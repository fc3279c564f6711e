package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and serve the configured channel",
	Long:  "Connects to the configured IRC server, joins the channel and answers commands until interrupted. When gateway.enabled is set, /healthz and /readyz report session status.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runBot(ctx, appOptions{})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(ctx context.Context, opts appOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service()
	if err != nil {
		return err
	}

	log := a.log.With("component", "cmd.run")
	log.Info("Bot started",
		"server", a.cfg.IRC.Server,
		"channel", a.cfg.IRC.Channel,
		"nickname", a.cfg.IRC.Nickname,
		"data_dir", a.dataDir,
		"status_server", a.cfg.Gateway.Enabled,
	)

	if err := svc.Run(ctx); err != nil {
		log.Error("Bot stopped", "error", err)
		return err
	}

	log.Info("Bot stopped")
	return nil
}

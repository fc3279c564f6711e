package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ircbot/pkg/ui/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the bot with an interactive operator console",
	Long:  "Runs the bot like `run` and opens a terminal view of channel traffic. Lines typed into the console are sent to the channel. Logs go to logging.file, or console.log in the data directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runConsole(ctx)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(parent context.Context) error {
	a, err := newApp(appOptions{consoleLog: true})
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	events, unsubscribe := a.bus.SubscribeEvents(ctx, 256)
	defer unsubscribe()

	serviceErr := make(chan error, 1)
	go func() {
		serviceErr <- svc.Run(ctx)
	}()

	uiErr := console.Run(ctx, events, a.say, console.Info{
		Server:   a.cfg.IRC.Server,
		Channel:  a.cfg.IRC.Channel,
		Nickname: a.cfg.IRC.Nickname,
	})

	cancel()
	return errors.Join(uiErr, <-serviceErr)
}

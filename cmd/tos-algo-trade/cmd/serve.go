package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ganchinyao/tos-algo-trade/broker"
	"github.com/ganchinyao/tos-algo-trade/broker/ameritrade"
	"github.com/ganchinyao/tos-algo-trade/broker/paper"
	"github.com/ganchinyao/tos-algo-trade/config"
	"github.com/ganchinyao/tos-algo-trade/gate"
	"github.com/ganchinyao/tos-algo-trade/ledger"
	"github.com/ganchinyao/tos-algo-trade/logbook"
	"github.com/ganchinyao/tos-algo-trade/logx"
	"github.com/ganchinyao/tos-algo-trade/notify"
	"github.com/ganchinyao/tos-algo-trade/schedule"
	"github.com/ganchinyao/tos-algo-trade/server"
	"github.com/ganchinyao/tos-algo-trade/trader"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the trading bot",
	Long: `Start the bot: the HTTP surface for trade intents, the trading
config watcher and the scheduled close-out. Open positions recorded
earlier today are restored from the logbook before serving.

Example:
  tos-algo-trade serve -f config.yaml`,
	RunE: runServe,
}

var (
	serveConfigPath string
	servePaper      bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	serveCmd.Flags().BoolVar(&servePaper, "paper", false, "use the in-memory paper broker instead of TD Ameritrade")
	serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logx.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	book, err := logbook.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}

	store, err := config.OpenStore(filepath.Join(cfg.Data.Dir, "trading.json"))
	if err != nil {
		return fmt.Errorf("open trading config: %w", err)
	}
	go func() {
		if err := store.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logx.Warn("trading config watcher stopped", "err", err)
		}
	}()

	var b broker.Broker
	if servePaper || cfg.Broker.RefreshToken == "" {
		logx.Warn("using paper broker, orders will not reach a real account")
		b = paper.New()
	} else {
		b = ameritrade.New(cfg.Broker.BaseURL, cfg.Broker.ClientID,
			cfg.Broker.RefreshToken, cfg.Broker.AccountID)
	}

	var n notify.Notifier = notify.Nop{}
	if cfg.Telegram.BotToken != "" {
		n = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	orch := trader.New(ledger.New(), gate.New(gate.DefaultPolicy(), store, book), book, b, n)
	if err := orch.Restore(); err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}

	if cfg.Schedule.CloseOut {
		sched := schedule.New(orch, book, n)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := server.New(orch, book, store, cfg.Server.AuthToken)
	if err := srv.Run(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

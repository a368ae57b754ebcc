package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/janda5134-web/solana-signer/internal/api"
	"github.com/janda5134-web/solana-signer/internal/chain"
	"github.com/janda5134-web/solana-signer/internal/config"
	"github.com/janda5134-web/solana-signer/internal/external"
	"github.com/janda5134-web/solana-signer/internal/notifications"
	"github.com/janda5134-web/solana-signer/internal/trader"
)

const banner = `
╔══════════════════════════════════════╗
║       Solana Swap Signer v0.1        ║
║                                      ║
╚══════════════════════════════════════╝
`

const shutdownTimeout = 5 * time.Second

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg.Print()

	// Signing key
	src, err := chain.ResolveKeySource(cfg.TraderSecretBase58, cfg.TraderSecretJSON)
	if err != nil {
		log.WithError(err).Fatal("missing trader key: set TRADER_SECRET_BASE58 or TRADER_SECRET_JSON")
	}
	kp, err := chain.LoadKeypair(src)
	if err != nil {
		log.WithError(err).WithField("encoding", src.Encoding.String()).Fatal("failed to load trader key")
	}
	log.WithField("pubkey", kp.Address()).Info("trader key loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Outbound clients
	jupiter := external.NewJupiterClient(external.JupiterOptions{
		BaseURL:           cfg.JupiterBase,
		Timeout:           cfg.HTTPTimeout(),
		RequestsPerSecond: cfg.AggregatorRPS,
	})

	broadcaster, err := chain.NewBroadcaster(ctx, cfg.RPCURL, &http.Client{Timeout: cfg.HTTPTimeout()})
	if err != nil {
		log.WithError(err).Fatal("failed to set up RPC client")
	}
	defer broadcaster.Close()

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)

	orch, err := trader.NewOrchestrator(trader.Config{
		HMACSecret:                cfg.HMACSecret,
		InputMint:                 cfg.InputMint,
		SlippageBps:               cfg.SlippageBps,
		PrioritizationFeeLamports: cfg.PrioritizationFeeLamports,
	}, trader.Deps{
		Keypair:     kp,
		Quotes:      jupiter,
		Swaps:       jupiter,
		Broadcaster: broadcaster,
		Notify:      notify,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build trade pipeline")
	}

	srv := api.NewServer(orch, api.Options{
		Port:            cfg.Port,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		MaxBodyBytes:    cfg.MaxBodyBytes,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	go notify.Send(fmt.Sprintf("Signer online as %s", kp.Address()))

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("signer stopped with error")
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

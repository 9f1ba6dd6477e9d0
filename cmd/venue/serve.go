package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"venue/internal/config"
	"venue/internal/engine"
	"venue/persistence"
	"venue/transport/tcp"
	"venue/transport/ws"
)

func newServeCmd() *cobra.Command {
	var snapshotPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the matching engine, order-entry, and market-data servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return runServe(snapshotPath)
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "data/venue_snapshot.json", "path to the persisted book snapshot")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func runServe(snapshotPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg := config.Default()
	hub := ws.NewHub()
	eng := engine.New(cfg, engine.WithPublisher(hub), engine.WithRegisterer(prometheus.DefaultRegisterer))

	if snap, ok, err := persistence.Load(snapshotPath); err != nil {
		return err
	} else if ok {
		if err := persistence.Restore(eng, snap); err != nil {
			return err
		}
		log.Info().Str("path", snapshotPath).Int("symbols", len(snap.Symbols)).Msg("restored snapshot")
	}

	wsStop := make(chan struct{})
	go hub.Run(wsStop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("market-data/metrics http server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	tcpSrv := tcp.New(cfg.TCPAddress, cfg.TCPPort, eng)
	tcpDone := make(chan error, 1)
	go func() { tcpDone <- tcpSrv.Run(ctx) }()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	close(wsStop)
	_ = metricsSrv.Shutdown(context.Background())
	tcpSrv.Shutdown()
	<-tcpDone

	snap := persistence.Build(eng)
	if err := persistence.Save(snap, snapshotPath); err != nil {
		return err
	}
	log.Info().Str("path", snapshotPath).Msg("saved snapshot")
	return nil
}

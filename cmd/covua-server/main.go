package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vhoang/covua-server/internal/board"
	appcfg "github.com/vhoang/covua-server/internal/config"
	"github.com/vhoang/covua-server/internal/httpapi"
	"github.com/vhoang/covua-server/internal/msgcat"
	"github.com/vhoang/covua-server/internal/notify"
	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/internal/record"
	"github.com/vhoang/covua-server/internal/registry"
	"github.com/vhoang/covua-server/internal/room"
	"github.com/vhoang/covua-server/internal/rules"
	"github.com/vhoang/covua-server/internal/ws"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync() //nolint:errcheck

	catalog, err := msgcat.New()
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	reg := registry.New()
	rooms := room.NewDirectory(rules.New(), cfg.RoomCodeLength)

	// Record store and archive are optional; live play runs without them.
	var records *record.Store
	if cfg.RedisURL != "" {
		records, err = record.NewStore(cfg.RedisURL, time.Duration(cfg.RecordTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("record store init error: %v", err)
		}
	}
	var archive *record.Repository
	if cfg.DatabaseURL != "" {
		archive, err = record.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
	}
	webhook := notify.New(cfg.WebhookURL)

	hub := ws.NewHub(ws.Deps{
		Registry: reg,
		Rooms:    rooms,
		Catalog:  catalog,
		Records:  records,
		Archive:  archive,
		Webhook:  webhook,
	})

	mux := httpapi.NewMux(httpapi.Deps{
		WSHandler: hub.Handler(cfg.AllowedOrigins),
		Rooms:     rooms,
		Renderer:  board.NewRenderer(),
		Records:   records,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listen", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.L().Fatal("server_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("server_shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if records != nil {
		_ = records.Close()
	}
	if archive != nil {
		_ = archive.Close()
	}
}

package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zonewarden/server/internal/api"
	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/config"
	"github.com/zonewarden/server/internal/deletion"
	"github.com/zonewarden/server/internal/ledger"
	"github.com/zonewarden/server/internal/mapsync"
	"github.com/zonewarden/server/internal/notify"
	"github.com/zonewarden/server/internal/protection"
	"github.com/zonewarden/server/internal/rcon"
	"github.com/zonewarden/server/internal/store"
	"github.com/zonewarden/server/internal/team"
	"github.com/zonewarden/server/internal/zone"
)

// main starts the ZoneWarden server: the transactional store, the
// command channel to the game executor, and the HTTP API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer cleanup()

	channel, err := rcon.Dial(ctx, cfg.Command.URL, cfg.Command.Timeout)
	if err != nil {
		log.Fatalf("Failed to reach command executor at %s: %v", cfg.Command.URL, err)
	}
	defer channel.Close()

	clk := clock.NewSystem()
	led := ledger.New(st)
	teams := team.NewService(st, clk)
	registry := zone.NewRegistry(st, led, teams, clk, zone.Settings{
		HalfExtent:   cfg.Zone.HalfExtent,
		Buffer:       cfg.Zone.Buffer,
		CreationCost: cfg.Zone.CreationCost,
	})

	reconciler := protection.NewReconciler(
		channel,
		protection.FixedPacer{Delay: cfg.Zone.PacingDelay},
		protection.Layout{
			HalfExtent:  int(cfg.Zone.HalfExtent),
			WorldBottom: cfg.Zone.WorldBottom,
			WorldTop:    cfg.Zone.WorldTop,
			SweepRadius: cfg.Zone.SweepRadius,
		},
	)

	var publisher *mapsync.Publisher
	if cfg.MapSync.Enabled {
		publisher = mapsync.NewPublisher(mapsync.NewHTTPMarkerClient(cfg.MapSync.BaseURL, cfg.MapSync.Timeout))
	}

	notifiers := []deletion.Notifier{notify.NewTeamNotifier(teams, channel)}
	if publisher != nil {
		notifiers = append(notifiers, publisher)
	}
	workflow := deletion.NewWorkflow(registry, led, reconciler, teams, notify.Multi(notifiers...), clk, cfg.Zone.DeletionWindow)
	defer workflow.Shutdown()

	jwtService := auth.NewJWTService(cfg)
	players := auth.NewPlayerStore(st, clk)
	authHandlers := auth.NewHandlers(players, jwtService, auth.NewPasswordService(cfg.Auth.BCryptCost))

	var mapPublisher api.MapPublisher
	if publisher != nil {
		mapPublisher = publisher
	}
	router := api.NewRouter(api.Dependencies{
		Zones:   api.NewZoneHandlers(registry, reconciler, mapPublisher, workflow, players),
		Teams:   api.NewTeamHandlers(teams),
		Players: api.NewPlayerHandlers(players, led),
		Auth:    authHandlers,
		JWT:     jwtService,
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("ZoneWarden server starting on %s (backend=%s)", server.Addr, cfg.Database.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// openStore builds the configured store backend. The cleanup closes
// whatever resources the backend holds.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.Database.Backend == "memory" {
		return store.NewMemory(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DatabaseURL())
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return pg, func() { db.Close() }, nil
}

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

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
	"github.com/osr-alliance/backend-lib-leadgen/analyzer"
	"github.com/osr-alliance/backend-lib-leadgen/api"
	"github.com/osr-alliance/backend-lib-leadgen/config"
	"github.com/osr-alliance/backend-lib-leadgen/store"
)

const purgeInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	conf, err := config.Load()
	if err != nil {
		return err
	}
	log.SetLevel(conf.Level())
	entry := logrus.NewEntry(log)
	leadgen.SetDebugger(conf.Debug, entry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, conf, entry)
	if err != nil {
		return err
	}
	defer closeStore()

	var an analyzer.Analyzer = analyzer.Local{}
	if conf.AnalyzerURL != "" {
		an = analyzer.NewClient(conf.AnalyzerURL, conf.AnalyzerAPIKey,
			analyzer.WithTimeout(conf.AnalyzerTimeout),
			analyzer.WithLogger(entry.WithField("component", "analyzer")),
		)
		log.WithField("url", conf.AnalyzerURL).Info("using remote analyze service")
	}
	if len(conf.APIKeys) == 0 {
		log.Warn("API_KEYS is empty; the API accepts unauthenticated requests")
	}

	srv := &http.Server{
		Addr: conf.HTTPAddr,
		Handler: api.New(&api.Config{
			Store:      st,
			Analyzer:   an,
			APIKeys:    conf.APIKeys,
			CORSOrigin: conf.CORSOrigin,
			Logger:     entry.WithField("component", "api"),
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: conf.AnalyzerTimeout + 15*time.Second,
	}

	go purgeLoop(ctx, st)

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", conf.HTTPAddr).Info("api listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, conf *config.Config, entry *logrus.Entry) (store.Store, func(), error) {
	sc := &store.Config{
		SessionTTL: conf.SessionTTL,
		Logger:     entry.WithField("component", "store"),
		Debugger:   conf.Debug,
	}
	if conf.SeedFile != "" {
		leads, err := store.LoadSeedLeads(conf.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		sc.SeedLeads = leads
	}

	if conf.Store == config.StoreMemory {
		return store.NewMemory(sc), func() {}, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", conf.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sc.ReadConn = db
	sc.WriteConn = db

	if conf.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		sc.Redis = rdb
	}

	pg, err := store.NewPostgres(sc)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return pg, func() {
		if sc.Redis != nil {
			sc.Redis.Close()
		}
		db.Close()
	}, nil
}

func purgeLoop(ctx context.Context, st store.Store) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := st.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("purge expired sessions")
				continue
			}
			if n > 0 {
				log.WithField("sessions", n).Info("purged expired sessions")
			}
		}
	}
}

// Command streamgrid is the process entrypoint: it wires Postgres,
// an optional Redis plan-cache mirror, an event sink, and the gin
// HTTP server, the same initDB/initRedis-then-router.Run shape as the
// teacher's src/main.go.
package main

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/quantatomai/streamgrid/internal/config"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/httpapi"
	"github.com/quantatomai/streamgrid/internal/plancache"
	"github.com/quantatomai/streamgrid/internal/shapes"
)

func main() {
	cfg := config.FromEnv()

	db := initDB(cfg)
	defer db.Close()

	cache := plancache.New()

	var mirror plancache.Mirror
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		defer rdb.Close()
		mirror = plancache.NewRedisPlanCacheMirror(rdb, "", 24*time.Hour)
	}
	resolver := plancache.NewResolver(cache, mirror)

	sink := newEventSink(cfg)
	if closer, ok := sink.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	server := &httpapi.Server{DB: db, Resolver: resolver, Sink: sink, Cfg: cfg}
	router := server.NewEngine(httpapi.Shape{
		ID:         shapes.MortgageDocumentShapeID,
		Route:      "/stream/mortgage-documents",
		Descriptor: shapes.MortgageDocument(),
		Query:      "SELECT * FROM mortgage_document ORDER BY \"Id\"",
	})

	log.Printf("streamgrid starting on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to run router: %v", err)
	}
}

func initDB(cfg config.Config) *sql.DB {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return db
}

func newEventSink(cfg config.Config) events.Sink {
	if cfg.KafkaBroker == "" {
		if cfg.DebugEvents {
			return events.NewStdoutSink()
		}
		return events.NewAsyncSink(10_000, 100, time.Second, func(batch []events.Event) {
			for _, e := range batch {
				log.Printf("[%s] correlation=%s rows=%d elapsed=%s fields=%v", e.Category, e.CorrelationID, e.RowCount, e.Elapsed, e.Fields)
			}
		})
	}
	return events.NewKafkaSink([]string{cfg.KafkaBroker}, "streamgrid-events")
}

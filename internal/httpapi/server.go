// Package httpapi wires the streaming JSON projection engine to a
// gin HTTP server, the same router the teacher's src/main.go builds
// with gin.Default() and registers routes on (spec.md §6).
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quantatomai/streamgrid/internal/compiler"
	"github.com/quantatomai/streamgrid/internal/config"
	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/descriptor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/executor"
	"github.com/quantatomai/streamgrid/internal/jsonw"
	"github.com/quantatomai/streamgrid/internal/plancache"
	"github.com/quantatomai/streamgrid/internal/stream"
)

// Shape pairs a descriptor with the SQL query that feeds its cursor.
// One Shape is registered as one streaming GET endpoint, per spec.md
// §6 ("One streaming GET endpoint per shape").
type Shape struct {
	ID          descriptor.ShapeID
	Route       string // e.g. "/stream/mortgage-documents"
	Descriptor  *descriptor.Node
	Query       string
	StrictCompile bool
}

// Server bundles the collaborators every streaming handler needs.
type Server struct {
	DB       *sql.DB
	Resolver *plancache.Resolver
	Sink     events.Sink
	Cfg      config.Config

	// Scratch recycles per-request slot buffers across requests. NewEngine
	// fills this in if the caller leaves it nil.
	Scratch *executor.ScratchPool
}

// NewEngine builds a *gin.Engine with /health plus one streaming route
// per shape.
func (s *Server) NewEngine(shapes ...Shape) *gin.Engine {
	if s.Scratch == nil {
		s.Scratch = executor.NewScratchPool()
	}

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	for _, sh := range shapes {
		sh := sh
		router.GET(sh.Route, func(c *gin.Context) { s.handle(c, sh) })
	}

	return router
}

func (s *Server) handle(c *gin.Context, sh Shape) {
	correlationID := c.GetHeader("X-Correlation-Id")
	if correlationID == "" {
		correlationID = cursor.NewCorrelationID()
	}
	c.Header("X-Correlation-Id", correlationID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.Cfg.CommandTimeout)
	defer cancel()

	rows, err := s.DB.QueryContext(ctx, sh.Query)
	if err != nil {
		// No bytes have been written yet: a 5xx with a short JSON body
		// is still possible (spec.md §7, "user-visible failure").
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed: " + err.Error()})
		return
	}

	cur, err := cursor.NewSQLRowCursor(rows)
	if err != nil {
		rows.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cursor init failed: " + err.Error()})
		return
	}

	schema := compiler.SchemaFromCursor(cur)
	p, err := s.Resolver.Resolve(sh.ID, sh.Descriptor, schema, s.Sink, correlationID, compiler.Options{
		Strict:                       sh.StrictCompile,
		ArrayElementFallbackToString: s.Cfg.ArrayElementFallbackToString,
	})
	if err != nil {
		cur.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plan compile failed: " + err.Error()})
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/json; charset=utf-8")
	// Flush status+headers before any row bytes: once streaming starts
	// the status can never change (spec.md §6).
	c.Writer.WriteHeaderNow()

	w := jsonw.New(c.Writer)
	stream.Stream(ctx, p, cur, nil, w, s.Sink, correlationID, stream.Options{
		RowBatchEventInterval: s.Cfg.RowBatchEventInterval,
		Scratch:               s.Scratch,
	})
}

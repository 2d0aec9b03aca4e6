// Package stream implements C5: the streaming driver that wraps the
// plan executor with the outer JSON array, cancellation handling,
// resource release, and lifecycle events. It owns the state machine
// described in SPEC_FULL.md §4.5 (Initial -> HeaderWritten ->
// RowEmitted* -> Finalising -> Closed) and opens one otel span per
// request, the same way the teacher's storage.circuit_breaker_hybrid
// opens a span around its own state machine.
package stream

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantatomai/streamgrid/internal/cursor"
	"github.com/quantatomai/streamgrid/internal/events"
	"github.com/quantatomai/streamgrid/internal/executor"
	"github.com/quantatomai/streamgrid/internal/jsonw"
	"github.com/quantatomai/streamgrid/internal/plan"
)

var tracer = otel.Tracer("streamgrid/stream")

// Releaser is whatever the driver must release on every exit path in
// addition to the cursor itself (typically the pooled database
// connection the cursor was checked out from). A nil Releaser is
// valid when the cursor owns its own connection end to end.
type Releaser interface {
	Release()
}

// Options tunes driver behaviour (SPEC_FULL "Configuration").
type Options struct {
	// RowBatchEventInterval is how many rows elapse between row-batch
	// heartbeat events. Default 5000 per §4.5.
	RowBatchEventInterval int

	// Scratch, when non-nil, recycles the per-request slot buffer
	// across requests instead of allocating a fresh one every call,
	// the same way the teacher's projection.gridResultPool recycles
	// GridResult buffers. A nil Scratch falls back to p.NewScratch().
	Scratch *executor.ScratchPool
}

func (o Options) interval() int {
	if o.RowBatchEventInterval > 0 {
		return o.RowBatchEventInterval
	}
	return 5000
}

// Result summarizes a finished (or aborted) stream for the caller's
// own logging/metrics beyond the event sink.
type Result struct {
	RowCount int
	Elapsed  time.Duration
	// Canceled is true iff the stream terminated via ctx without
	// writing the closing ']'.
	Canceled bool
}

// Stream runs the plan against cur, writing a JSON array of row
// objects to w. It guarantees cur (and releaser, if non-nil) are
// released on every exit path, and that w is flushed before release
// so partial rows are never left buffered. correlationID is attached
// to every event emitted.
//
// Per SPEC_FULL's resolution of the open question in spec.md §9: once
// any row bytes have been written, cancellation drops the connection
// without emitting the closing ']' rather than risk a client mistaking
// a truncated response for a complete one.
func Stream(
	ctx context.Context,
	p *plan.Plan,
	cur cursor.RowCursor,
	releaser Releaser,
	w *jsonw.Writer,
	sink events.Sink,
	correlationID string,
	opts Options,
) Result {
	ctx, span := tracer.Start(ctx, "stream.run",
		trace.WithAttributes(attribute.String("streamgrid.shape_id", p.ShapeID)))
	defer span.End()

	start := time.Now()
	defer func() {
		if releaser != nil {
			releaser.Release()
		}
		_ = cur.Close()
	}()

	sink.Emit(events.Event{Category: events.StreamStart, CorrelationID: correlationID})

	var scratch []plan.Slot
	if opts.Scratch != nil {
		scratch = opts.Scratch.Get(p.SlotCount)
		defer opts.Scratch.Put(scratch)
	} else {
		scratch = p.NewScratch()
	}
	w.Open()

	rowCount := 0
	interval := opts.interval()
	anyRowWritten := false

	for {
		if err := ctx.Err(); err != nil {
			return finishCanceled(ctx, span, w, sink, correlationID, rowCount, start, anyRowWritten)
		}

		ok, err := cur.Advance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return finishCanceled(ctx, span, w, sink, correlationID, rowCount, start, anyRowWritten)
			}
			return finishError(span, w, sink, correlationID, rowCount, start, anyRowWritten, err)
		}
		if !ok {
			break
		}

		if err := executor.EmitRow(p, cur, w, scratch); err != nil {
			return finishError(span, w, sink, correlationID, rowCount, start, anyRowWritten, err)
		}
		anyRowWritten = true
		rowCount++

		if rowCount%interval == 0 {
			elapsed := time.Since(start)
			sink.Emit(events.Event{Category: events.RowBatch, CorrelationID: correlationID, RowCount: rowCount, Elapsed: elapsed})
			span.AddEvent("row-batch", trace.WithAttributes(attribute.Int("streamgrid.row_count", rowCount)))
		}
	}

	w.Close()
	if err := w.Flush(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "writer flush failed")
		sink.Emit(events.Event{Category: events.StreamError, CorrelationID: correlationID, RowCount: rowCount, Elapsed: time.Since(start), Fields: map[string]string{"error": err.Error()}})
		return Result{RowCount: rowCount, Elapsed: time.Since(start)}
	}

	elapsed := time.Since(start)
	sink.Emit(events.Event{Category: events.StreamComplete, CorrelationID: correlationID, RowCount: rowCount, Elapsed: elapsed})
	span.SetAttributes(attribute.Int("streamgrid.row_count", rowCount))
	return Result{RowCount: rowCount, Elapsed: elapsed}
}

func finishCanceled(ctx context.Context, span trace.Span, w *jsonw.Writer, sink events.Sink, correlationID string, rowCount int, start time.Time, anyRowWritten bool) Result {
	// Flush whatever complete row objects are already buffered, but
	// never emit the closing ']': a client that sees one would wrongly
	// conclude the response is complete.
	if anyRowWritten {
		_ = w.Flush()
	}
	elapsed := time.Since(start)
	sink.Emit(events.Event{Category: events.StreamCanceled, CorrelationID: correlationID, RowCount: rowCount, Elapsed: elapsed})
	span.SetStatus(codes.Error, "canceled")
	span.SetAttributes(attribute.Int("streamgrid.row_count", rowCount))
	return Result{RowCount: rowCount, Elapsed: elapsed, Canceled: true}
}

func finishError(span trace.Span, w *jsonw.Writer, sink events.Sink, correlationID string, rowCount int, start time.Time, anyRowWritten bool, err error) Result {
	if anyRowWritten {
		_ = w.Flush()
	}
	elapsed := time.Since(start)
	sink.Emit(events.Event{
		Category:      events.StreamError,
		CorrelationID: correlationID,
		RowCount:      rowCount,
		Elapsed:       elapsed,
		Fields:        map[string]string{"error": err.Error()},
	})
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Result{RowCount: rowCount, Elapsed: elapsed}
}

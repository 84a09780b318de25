package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Operation is one user-visible action, such as loading a screen or sending a like.
type Operation struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// Start derives a child operation from ctx. The first operation on a context
// opens a trace; nested operations record their parent.
func Start(ctx context.Context, name string) (context.Context, *Operation) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, ok := ctx.Value(traceLoggerKey).(*slog.Logger)
	if !ok {
		logger = FromContext(ctx)
		traceID := TraceIDFromContext(ctx)
		if traceID == "" {
			traceID = uuid.NewString()
			ctx = WithTraceID(ctx, traceID)
		}
		logger = logger.With(slog.String("trace_id", traceID))
		ctx = context.WithValue(ctx, traceLoggerKey, logger)
	}

	id := uuid.NewString()
	attrs := []any{slog.String("op_id", id), slog.String("op", name)}
	if parent := OperationIDFromContext(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent_op_id", parent))
	}
	logger = logger.With(attrs...)

	ctx = WithLogger(ctx, logger)
	ctx = withOperationID(ctx, id)

	return ctx, &Operation{name: name, logger: logger, start: time.Now()}
}

// End records the outcome. A nil err logs at debug, anything else at warn.
func (o *Operation) End(err error) {
	if o == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(o.start))
	if err != nil {
		o.logger.Warn("operation failed", elapsed, slog.Any("error", err))
		return
	}
	o.logger.Debug("operation completed", elapsed)
}

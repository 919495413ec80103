package invocation

import (
	"context"
	"encoding/json"
	"fmt"

	"msgrelay/internal/constants"
	"msgrelay/internal/display"
	"msgrelay/internal/extractor"
	"msgrelay/internal/logger"
	"msgrelay/pkg/errors"
	"msgrelay/pkg/logging"
	"msgrelay/pkg/metrics"
)

// Handler serves one serverless invocation per event: it recovers an
// envelope from whatever shape the event has and reports it.
type Handler struct {
	extractor *extractor.Extractor
	sink      *display.Sink
	logger    logger.Logger
}

func NewHandler(ex *extractor.Extractor, sink *display.Sink, log logger.Logger) *Handler {
	return &Handler{
		extractor: ex,
		sink:      sink,
		logger:    log,
	}
}

// Handle is the entry registered with the Lambda runtime.
func (h *Handler) Handle(ctx context.Context, event map[string]interface{}) (string, error) {
	return h.Process(ctx, event, ContextFrom(ctx))
}

// Process returns "Mensagem processada com sucesso: <id>" on success. Any
// failure, panics included, is returned wrapped in errors.ErrProcessing.
func (h *Handler) Process(ctx context.Context, event map[string]interface{}, ic Context) (result string, err error) {
	if ic.RequestID != "" {
		ctx = logging.WithRequestID(ctx, ic.RequestID)
	}

	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = h.fail(ctx, errors.FromPanic(r))
		}
	}()

	h.logger.InfowCtx(ctx, "Invocation started",
		"function_name", ic.FunctionName,
	)

	raw, err := json.Marshal(event)
	if err != nil {
		return "", h.fail(ctx, fmt.Errorf("failed to serialize event: %w", err))
	}
	h.logger.InfowCtx(ctx, "Event received", "event", string(raw))

	msg, strategy := h.extractor.ExtractWithStrategy(ctx, event)
	if msg.ID != "" {
		ctx = logging.WithMessageID(ctx, msg.ID)
	}

	h.sink.Box(msg)

	h.logger.InfowCtx(ctx, "Message processed",
		"strategy", strategy,
		"id", msg.ID,
		"content", msg.Content,
		"sender", msg.Sender,
		"timestamp", msg.Timestamp.String(),
		"function_name", ic.FunctionName,
		"function_version", ic.FunctionVersion,
		"memory_limit_mb", ic.MemoryLimitMB,
		"remaining_time_ms", ic.RemainingTime().Milliseconds(),
	)

	metrics.IncInvocation(constants.InvocationStatusSuccess)
	return constants.InvocationSuccessPrefix + idOrNull(msg.ID), nil
}

func (h *Handler) fail(ctx context.Context, cause error) error {
	metrics.IncInvocation(constants.InvocationStatusFailed)
	h.logger.ErrorwCtx(ctx, "Failed to process invocation", "error", cause)
	return errors.Wrap(cause, errors.ErrProcessing)
}

func idOrNull(id string) string {
	if id == "" {
		return "null"
	}
	return id
}

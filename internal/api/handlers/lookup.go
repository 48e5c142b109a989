// Package handlers provides HTTP handlers for the case-status service API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/courtlens/casestatus-api/internal/court"
	"github.com/courtlens/casestatus-api/internal/logging"
	"github.com/courtlens/casestatus-api/internal/models"
)

// LookupInput carries the raw request body so body decoding and validation
// stay under this handler's control and the error envelope stays uniform.
type LookupInput struct {
	RawBody []byte `contentType:"application/json"`
}

// LookupOutput lets the handler pick the response status explicitly.
type LookupOutput struct {
	Status int
	Body   models.LookupResponse
}

// CaseLookuper resolves one validated diary number. Satisfied by
// court.Orchestrator.
type CaseLookuper interface {
	Lookup(ctx context.Context, key models.LookupKey) (court.Result, error)
}

// LookupHandler handles case-status lookups.
type LookupHandler struct {
	orch        CaseLookuper
	normalizing bool
	logger      *slog.Logger
}

func NewLookupHandler(orch CaseLookuper, normalizing bool, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{orch: orch, normalizing: normalizing, logger: logger}
}

// Handle validates the request, runs the lookup, and maps the outcome onto
// the wire contract. It never returns an error; failures are encoded in the
// response envelope.
func (h *LookupHandler) Handle(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	start := time.Now()
	tookMs := func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}

	var req models.LookupRequest
	if err := json.Unmarshal(input.RawBody, &req); err != nil {
		return &LookupOutput{
			Status: http.StatusBadRequest,
			Body:   *models.NewErrorResponse("invalid request body: expected JSON with a diaryData field", tookMs()),
		}, nil
	}
	key, ok := models.ParseDiaryData(req.DiaryData)
	if !ok {
		return &LookupOutput{
			Status: http.StatusBadRequest,
			Body:   *models.NewErrorResponse("invalid diaryData: expected <digits>/<4-digit year>", tookMs()),
		}, nil
	}

	ctx = logging.WithLookupKey(ctx, key.String())
	h.logger.InfoContext(ctx, "lookup request received")

	result, err := h.orch.Lookup(ctx, key)
	if err != nil {
		kind := court.KindOf(err)
		status := http.StatusInternalServerError
		if kind == court.KindUpstreamRejected && h.normalizing {
			status = http.StatusUnprocessableEntity
		}
		h.logger.WarnContext(ctx, "lookup failed",
			"kind", string(kind),
			"status", status,
			"took_ms", tookMs(),
			"error", err)
		return &LookupOutput{
			Status: status,
			Body:   *models.NewErrorResponse(err.Error(), tookMs()),
		}, nil
	}

	h.logger.InfoContext(ctx, "lookup succeeded",
		"cached", result.Cached,
		"took_ms", tookMs())
	return &LookupOutput{
		Status: http.StatusOK,
		Body:   *models.NewSuccessResponse(result.Data, result.Cached, tookMs()),
	}, nil
}

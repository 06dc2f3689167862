// handler.go exposes decoded answer accounts over HTTP:
//   - GET /answers/{address}?variant=single_feed|aggregate|cross_chain
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/inbound"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
	"github.com/archon-research/answer-relay/internal/services/answers"
)

// Handler implements HTTP handlers for the answer API.
type Handler struct {
	reader inbound.AnswerReader
	logger *slog.Logger
}

// NewHandler creates a new HTTP handler with the given reader.
func NewHandler(reader inbound.AnswerReader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reader: reader,
		logger: logger.With("component", "answer-api"),
	}
}

// RegisterRoutes registers the HTTP routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /answers/{address}", h.GetAnswer)
}

// GetAnswer handles answer lookups.
func (h *Handler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	name := r.URL.Query().Get("variant")
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "variant is required")
		return
	}
	variant, err := entity.ParseAnswerVariant(name)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.reader.GetAnswer(r.Context(), address, variant)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("answer lookup failed", "address", address, "variant", name, "error", err)
			h.respondError(w, status, "internal error")
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	respondJSON(h.logger, w, http.StatusOK, view)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, answers.ErrInvalidAddress), errors.Is(err, entity.ErrUnknownVariant):
		return http.StatusBadRequest
	case errors.Is(err, outbound.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrMalformedDestination):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(h.logger, w, status, map[string]string{"error": message})
}

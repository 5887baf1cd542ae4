package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/dispatch"
)

// InquiryDispatcher is the part of the dispatch service the inquiry endpoints use
type InquiryDispatcher interface {
	Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error)
	Contact(ctx context.Context, req models.ContactRequest) (*models.DispatchResult, error)
}

// InquiryHandler exposes the email-dispatch endpoints
type InquiryHandler struct {
	dispatcher InquiryDispatcher
	clientIP   *ClientIPResolver
	logger     arbor.ILogger
}

// NewInquiryHandler creates the inquiry handler. clientIP keys the per-client rate limit.
func NewInquiryHandler(dispatcher InquiryDispatcher, clientIP *ClientIPResolver, logger arbor.ILogger) *InquiryHandler {
	return &InquiryHandler{
		dispatcher: dispatcher,
		clientIP:   clientIP,
		logger:     logger,
	}
}

// SendTripPlanHandler handles POST /api/send-trip-plan
func (h *InquiryHandler) SendTripPlanHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.TripPlanRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, models.DispatchResult{Success: false, Error: "Invalid request body"})
		return
	}

	ctx := dispatch.WithClientIP(r.Context(), h.clientIP.ClientIP(r))
	result, err := h.dispatcher.Dispatch(ctx, req)
	h.writeResult(w, result, err)
}

// ContactHandler handles POST /api/contact
func (h *InquiryHandler) ContactHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ContactRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteJSON(w, http.StatusBadRequest, models.DispatchResult{Success: false, Error: "Invalid request body"})
		return
	}

	ctx := dispatch.WithClientIP(r.Context(), h.clientIP.ClientIP(r))
	result, err := h.dispatcher.Contact(ctx, req)
	h.writeResult(w, result, err)
}

func (h *InquiryHandler) writeResult(w http.ResponseWriter, result *models.DispatchResult, err error) {
	if errors.Is(err, dispatch.ErrRateLimited) {
		w.Header().Set("Retry-After", "60")
		WriteJSON(w, http.StatusTooManyRequests, models.DispatchResult{Success: false, Error: err.Error()})
		return
	}

	if fieldErrors, ok := dispatch.IsValidationError(err); ok {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success":     false,
			"error":       "Please correct the highlighted fields",
			"fieldErrors": fieldErrors,
		})
		return
	}

	if err != nil || result == nil {
		h.logger.Error().Err(err).Msg("Inquiry dispatch failed")
		WriteJSON(w, http.StatusInternalServerError, models.DispatchResult{Success: false, Error: "Something went wrong, please try again"})
		return
	}

	if !result.Success {
		WriteJSON(w, http.StatusBadGateway, result)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/dispatch"
	"github.com/ternarybob/serendib/internal/services/sessions"
)

// PlannerHandler serves the trip planner JSON API. Each browser gets its own
// planner session, identified by a cookie.
type PlannerHandler struct {
	sessions        *sessions.Manager
	dispatchTimeout time.Duration
	secureCookies   bool
	clientIP        *ClientIPResolver
	logger          arbor.ILogger
}

// NewPlannerHandler creates the planner API handler
func NewPlannerHandler(manager *sessions.Manager, dispatchTimeout time.Duration, secureCookies bool, clientIP *ClientIPResolver, logger arbor.ILogger) *PlannerHandler {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 30 * time.Second
	}
	return &PlannerHandler{
		sessions:        manager,
		dispatchTimeout: dispatchTimeout,
		secureCookies:   secureCookies,
		clientIP:        clientIP,
		logger:          logger,
	}
}

// selectionResponse is the selection together with its itinerary view
type selectionResponse struct {
	SessionID string            `json:"sessionId"`
	Itinerary planner.Itinerary `json:"itinerary"`
}

// session returns the caller's planner session, starting one when needed.
// Only requests that change planner state call it.
func (h *PlannerHandler) session(w http.ResponseWriter, r *http.Request) *planner.Session {
	return plannerSession(h.sessions, h.secureCookies, w, r)
}

// existingSession returns the caller's live session, or nil without starting one
func (h *PlannerHandler) existingSession(r *http.Request) *planner.Session {
	cookie, err := r.Cookie(sessions.CookieName)
	if err != nil {
		return nil
	}
	session, ok := h.sessions.Get(cookie.Value)
	if !ok {
		return nil
	}
	return session
}

// selectedPlaces is the caller's selection, empty when there is no session
func selectedPlaces(session *planner.Session) []models.Place {
	if session == nil {
		return nil
	}
	return session.Selection.Places()
}

// plannerSession resolves the planner session cookie, setting it when a new
// session is started. Shared by the planner API and the plan-trip page.
func plannerSession(manager *sessions.Manager, secure bool, w http.ResponseWriter, r *http.Request) *planner.Session {
	var id string
	if cookie, err := r.Cookie(sessions.CookieName); err == nil {
		id = cookie.Value
	}

	session, created := manager.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessions.CookieName,
			Value:    session.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return session
}

// CatalogHandler handles GET /api/planner/catalog - province tabs with place counts
func (h *PlannerHandler) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	catalog := h.sessions.Catalog()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"provinces":       catalog.Summaries(),
		"defaultProvince": catalog.DefaultProvinceID(),
		"placeCount":      catalog.PlaceCount(),
	})
}

// PlacesHandler handles GET /api/planner/places?province=&q= - filtered places
func (h *PlannerHandler) PlacesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	catalog := h.sessions.Catalog()
	provinceID := r.URL.Query().Get("province")
	if provinceID == "" {
		provinceID = catalog.DefaultProvinceID()
	}
	query := r.URL.Query().Get("q")

	selection := planner.NewSelection()
	if session := h.existingSession(r); session != nil {
		selection = session.Selection
	}
	places := planner.Filter(catalog, provinceID, query)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"province": provinceID,
		"query":    query,
		"tabs":     planner.Tabs(catalog, provinceID),
		"places":   planner.Cards(places, selection),
	})
}

// SelectionHandler handles GET, POST and DELETE on /api/planner/selection
func (h *PlannerHandler) SelectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		response := selectionResponse{Itinerary: planner.RenderItinerary(nil)}
		if session := h.existingSession(r); session != nil {
			response = selectionResponse{SessionID: session.ID, Itinerary: planner.RenderItinerary(session.Selection.Places())}
		}
		WriteJSON(w, http.StatusOK, response)
		return
	}

	session := h.session(w, r)

	switch r.Method {
	case http.MethodPost:
		var req struct {
			PlaceID string `json:"placeId"`
		}
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if !session.AddPlace(req.PlaceID) {
			WriteError(w, http.StatusNotFound, "Unknown destination: "+req.PlaceID)
			return
		}
	case http.MethodDelete:
		session.Selection.Clear()
	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	h.writeSelection(w, session)
}

// SelectionItemHandler handles DELETE /api/planner/selection/{id}
func (h *PlannerHandler) SelectionItemHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	placeID := PathID(r.URL.Path, "/api/planner/selection/")
	if placeID == "" {
		WriteError(w, http.StatusBadRequest, "Destination id is required")
		return
	}

	session := h.session(w, r)
	session.Selection.Remove(placeID)
	h.writeSelection(w, session)
}

func (h *PlannerHandler) writeSelection(w http.ResponseWriter, session *planner.Session) {
	// Render from a fresh snapshot so the response matches this request's mutation
	WriteJSON(w, http.StatusOK, selectionResponse{
		SessionID: session.ID,
		Itinerary: planner.RenderItinerary(session.Selection.Places()),
	})
}

// MapHandler handles GET /api/planner/map - markers, bounds and route polyline
func (h *PlannerHandler) MapHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, planner.RenderMap(selectedPlaces(h.existingSession(r))))
}

// DialogHandler handles GET /api/planner/dialog - current dialog snapshot
func (h *PlannerHandler) DialogHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	session := h.existingSession(r)
	if session == nil {
		WriteJSON(w, http.StatusOK, planner.DialogSnapshot{})
		return
	}
	WriteJSON(w, http.StatusOK, session.Dialog.Snapshot())
}

// DialogOpenHandler handles POST /api/planner/dialog/open
func (h *PlannerHandler) DialogOpenHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	session := h.session(w, r)
	if err := session.Dialog.Open(session.Selection); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, session.Dialog.Snapshot())
}

// DialogSubmitHandler handles POST /api/planner/dialog/submit. The request
// waits for the dispatch to finish and returns the final dialog state.
func (h *PlannerHandler) DialogSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var form planner.ContactForm
	if err := DecodeJSON(r, &form); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := h.session(w, r)

	// The dispatch outlives a dropped connection; Close on the dialog is what abandons it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.dispatchTimeout)
	ctx = dispatch.WithClientIP(ctx, h.clientIP.ClientIP(r))

	task, err := session.Dialog.Submit(ctx, form)
	if err != nil {
		cancel()
		status := http.StatusConflict
		if errors.Is(err, planner.ErrSubmissionInFlight) {
			status = http.StatusTooManyRequests
		}
		WriteError(w, status, err.Error())
		return
	}
	go func() {
		<-task.Done()
		cancel()
	}()

	state, err := task.WaitContext(r.Context())
	if err != nil {
		// Client went away; the outcome still reaches the session and its websocket
		return
	}

	snapshot := session.Dialog.Snapshot()
	snapshot.State = state

	switch state.Phase {
	case planner.PhaseSuccess:
		WriteJSON(w, http.StatusOK, snapshot)
	case planner.PhaseFailed:
		WriteJSON(w, http.StatusBadGateway, snapshot)
	default:
		WriteJSON(w, http.StatusUnprocessableEntity, snapshot)
	}
}

// DialogRetryHandler handles POST /api/planner/dialog/retry
func (h *PlannerHandler) DialogRetryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	session := h.session(w, r)
	session.Dialog.Retry()
	WriteJSON(w, http.StatusOK, session.Dialog.Snapshot())
}

// DialogCloseHandler handles POST /api/planner/dialog/close
func (h *PlannerHandler) DialogCloseHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	session := h.session(w, r)
	session.Dialog.Close()
	WriteJSON(w, http.StatusOK, session.Dialog.Snapshot())
}

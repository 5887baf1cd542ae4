package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/services/systemlogs"
)

// LogsHandler exposes the application log to the admin area
type LogsHandler struct {
	logs   *systemlogs.Service
	logger arbor.ILogger
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logs *systemlogs.Service, logger arbor.ILogger) *LogsHandler {
	return &LogsHandler{
		logs:   logs,
		logger: logger,
	}
}

// FilesHandler handles GET /api/admin/logs/files
func (h *LogsHandler) FilesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	files, err := h.logs.Files()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list log files")
		WriteError(w, http.StatusInternalServerError, "Failed to list log files")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// TailHandler handles GET /api/admin/logs?file=&limit=&level=
func (h *LogsHandler) TailHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	tail, err := h.logs.Read(query.Get("file"), limit, query.Get("level"))
	switch {
	case errors.Is(err, systemlogs.ErrInvalidFile):
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, os.ErrNotExist):
		WriteError(w, http.StatusNotFound, "Log file not found")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("Failed to read log file")
		WriteError(w, http.StatusInternalServerError, "Failed to read log file")
		return
	}
	WriteJSON(w, http.StatusOK, tail)
}

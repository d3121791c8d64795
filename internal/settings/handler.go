package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redmonkez12/dichoptic/internal/auth"
	"github.com/redmonkez12/dichoptic/internal/httputil"
	"github.com/redmonkez12/dichoptic/internal/logging"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns the caller's colour settings
// @Summary      Get settings
// @Description  Returns null when the user has not saved settings yet
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserSettings
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /settings [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	s, err := h.service.Get(r.Context(), userID)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to get settings", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get settings", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// a nil pointer encodes as null
	httputil.RespondJSON(w, s, http.StatusOK)
}

// Put replaces the caller's colour settings
// @Summary      Save settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Update true "Settings"
// @Success      200 {object} UserSettings
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /settings [put]
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req Update
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid settings request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	s, err := h.service.Upsert(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidColor) || errors.Is(err, ErrInvalidDominance) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("failed to save settings", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to save settings", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, s, http.StatusOK)
}

package scores

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

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

// SubmitRequest is the body of POST /scores
type SubmitRequest struct {
	Score *int   `json:"score" example:"1200"`
	Game  string `json:"game" example:"tetris"`
	Date  string `json:"date" example:"2026-10-17"`
	Time  string `json:"time" example:"03:21"`
}

// List returns the user's best scores for one game
// @Summary      Top scores
// @Description  Up to 10 entries for the game, highest score first
// @Tags         scores
// @Produce      json
// @Security     BearerAuth
// @Param        game path string true "Game" Enums(tetris, snake)
// @Success      200 {array} Entry
// @Failure      400 {object} httputil.ErrorResponse "Unknown game"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /scores/{game} [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	entries, err := h.service.ListTop(r.Context(), userID, chi.URLParam(r, "game"))
	if err != nil {
		if errors.Is(err, ErrInvalidGame) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidGame, http.StatusBadRequest)
			return
		}
		logger.Error("failed to list scores", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list scores", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, entries, http.StatusOK)
}

// Submit records a finished game
// @Summary      Submit a score
// @Description  Returns the stored entry, or null when the score was rejected by the zero-score policy
// @Tags         scores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SubmitRequest true "Score"
// @Success      201 {object} Entry
// @Success      200 {object} Entry "null when rejected"
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid access token"
// @Router       /scores [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid score request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Score == nil {
		httputil.RespondErrorWithCode(w, "score is required", httputil.CodeInvalidScore, http.StatusBadRequest)
		return
	}

	entry, err := h.service.Record(r.Context(), userID, Submission{
		Game:  req.Game,
		Score: *req.Score,
		Date:  req.Date,
		Time:  req.Time,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidGame):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidGame, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidScore):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidScore, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEntry):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("failed to record score", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to record score", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if entry == nil {
		httputil.RespondJSON(w, nil, http.StatusOK)
		return
	}

	logger.Info("score recorded", "game", entry.Game, "score", entry.Score)
	httputil.RespondJSON(w, entry, http.StatusCreated)
}

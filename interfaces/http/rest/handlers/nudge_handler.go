package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mindrise-backend/application/queries"
	querybus "mindrise-backend/application/queries/bus"
	"mindrise-backend/pkg/auth"
)

// NudgeHandler handles nudge HTTP requests
type NudgeHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewNudgeHandler creates a new nudge handler
func NewNudgeHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *NudgeHandler {
	return &NudgeHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetNudges handles GET /nudges
func (h *NudgeHandler) GetNudges(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetNudgesQuery{UserID: userCtx.UserID})
	if err != nil {
		h.logger.Error("Failed to compose nudges",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve nudges")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

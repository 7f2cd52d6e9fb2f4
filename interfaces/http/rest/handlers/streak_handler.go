package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"mindrise-backend/application/commands"
	"mindrise-backend/application/queries"
	querybus "mindrise-backend/application/queries/bus"
	"mindrise-backend/pkg/auth"
	apperrors "mindrise-backend/pkg/errors"
)

// StreakHandler handles streak HTTP requests
type StreakHandler struct {
	queryBus      *querybus.QueryBus
	populate      *commands.PopulateLedgerHandler
	populateLimit *auth.DistributedRateLimiter
	logger        *zap.Logger
}

// NewStreakHandler creates a new streak handler
func NewStreakHandler(
	queryBus *querybus.QueryBus,
	populate *commands.PopulateLedgerHandler,
	populateLimit *auth.DistributedRateLimiter,
	logger *zap.Logger,
) *StreakHandler {
	return &StreakHandler{
		queryBus:      queryBus,
		populate:      populate,
		populateLimit: populateLimit,
		logger:        logger,
	}
}

// GetStreak handles GET /streak
func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetStreakQuery{UserID: userCtx.UserID})
	if err != nil {
		h.logger.Error("Failed to get streak",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve streak")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// PopulateLedgerRequest represents the request body for a ledger backfill
type PopulateLedgerRequest struct {
	Force bool `json:"force"`
}

// PopulateLedger handles POST /streak/populate
func (h *StreakHandler) PopulateLedger(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// A backfill reads a user's entire entry history; the distributed
	// limiter keeps the frequency sane across instances.
	allowed, err := h.populateLimit.Allow(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Warn("populate rate limiter degraded", zap.Error(err))
	}
	if !allowed {
		remaining, retryAfter, _ := h.populateLimit.GetRemaining(r.Context(), userCtx.UserID)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", h.populateLimit.GetLimit()))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
		respondError(w, h.logger, http.StatusTooManyRequests, "Backfill rate limit exceeded")
		return
	}

	var req PopulateLedgerRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.populate.Handle(r.Context(), commands.PopulateLedgerCommand{
		UserID: userCtx.UserID,
		Force:  req.Force,
	})
	if err != nil {
		h.logger.Error("Failed to populate ledger",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		if apperrors.IsConflict(err) {
			respondError(w, h.logger, http.StatusConflict, "A backfill is already running for this user")
		} else {
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to populate ledger")
		}
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindrise-backend/application/commands"
	"mindrise-backend/domain/streak"
	"mindrise-backend/pkg/auth"
	apperrors "mindrise-backend/pkg/errors"
	"mindrise-backend/pkg/utils"
)

// EntryHandler handles journal entry HTTP requests
type EntryHandler struct {
	recordEntry *commands.RecordEntryDayHandler
	logger      *zap.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(recordEntry *commands.RecordEntryDayHandler, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{
		recordEntry: recordEntry,
		logger:      logger,
	}
}

// CreateEntryRequest represents the request body for recording an entry
type CreateEntryRequest struct {
	// EntryDate is the journal day in YYYY-MM-DD form. Defaults to today
	// (UTC) when omitted; backdated entries are accepted.
	EntryDate string `json:"entry_date,omitempty" validate:"omitempty,len=10"`
}

// CreateEntryResponse represents the response for recording an entry
type CreateEntryResponse struct {
	ID            string `json:"id"`
	EntryDate     string `json:"entry_date"`
	CurrentStreak uint   `json:"current_streak"`
	LongestStreak uint   `json:"longest_streak"`
	CreatedAt     string `json:"createdAt"`
}

// CreateEntry handles POST /entries
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	now := time.Now().UTC()
	entryDate := streak.DateOf(now)
	if req.EntryDate != "" {
		entryDate, err = streak.ParseDate(req.EntryDate)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, "Invalid entry_date, expected YYYY-MM-DD")
			return
		}
		if streak.DateOf(now).Before(entryDate) {
			respondError(w, h.logger, http.StatusBadRequest, "entry_date cannot be in the future")
			return
		}
	}

	entryID := uuid.New().String()
	cmd := commands.RecordEntryDayCommand{
		UserID:    userCtx.UserID,
		EntryID:   entryID,
		EntryDate: entryDate.String(),
	}

	state, err := h.recordEntry.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("Failed to record entry",
			zap.String("userID", userCtx.UserID),
			zap.String("entryDate", entryDate.String()),
			zap.Error(err),
		)
		if apperrors.IsValidation(err) {
			respondError(w, h.logger, http.StatusBadRequest, err.Error())
		} else {
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to record entry")
		}
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, CreateEntryResponse{
		ID:            entryID,
		EntryDate:     entryDate.String(),
		CurrentStreak: state.CurrentStreak,
		LongestStreak: state.LongestStreak,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

// Shared response helpers for this package

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

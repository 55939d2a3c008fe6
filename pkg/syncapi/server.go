// Package syncapi serves the HTTP endpoints the Anki plugin polls. The
// wire shapes (token as a query parameter, {"cards": [...]} bodies,
// {"error": ...} failures) are what the plugin already speaks.
package syncapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smith3v/tg-anki-sync/pkg/cards"
	"github.com/smith3v/tg-anki-sync/pkg/logger"
	"github.com/smith3v/tg-anki-sync/pkg/streaks"
	"github.com/smith3v/tg-anki-sync/pkg/tokens"
)

func NewHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /anki/cards", handleCards)
	mux.HandleFunc("POST /anki/confirm", handleConfirm)
	mux.HandleFunc("POST /anki/report", handleReport)
	mux.HandleFunc("GET /anki/streak", handleStreak)
	return mux
}

// Run serves the sync API until ctx is cancelled.
func Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      NewHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("sync api shutdown failed", "error", err)
		}
	}()

	logger.Info("sync api listening", "addr", addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type cardPayload struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type confirmRequest struct {
	CardIDs []string `json:"card_ids"`
}

type reportRequest struct {
	DeckCountsDue        map[string]int `json:"deck_counts_due"`
	NewCardsLearnedToday int            `json:"new_cards_learned_today"`
}

func handleCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := authorize(w, r)
	if !ok {
		return
	}

	polled, err := cards.Poll(userID)
	if err != nil {
		logger.Error("poll failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := make([]cardPayload, 0, len(polled))
	for _, card := range polled {
		payload = append(payload, cardPayload{ID: card.CardID, Front: card.Front, Back: card.Back})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": payload})
}

func handleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := authorize(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	acked, err := cards.Acknowledge(userID, req.CardIDs)
	if err != nil {
		logger.Error("acknowledge failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "acked": acked})
}

func handleReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := authorize(w, r)
	if !ok {
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if req.NewCardsLearnedToday < 0 {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	for _, due := range req.DeckCountsDue {
		if due < 0 {
			writeError(w, http.StatusBadRequest, "malformed request")
			return
		}
	}

	if err := streaks.Ingest(userID, req.DeckCountsDue, req.NewCardsLearnedToday, time.Now().UTC()); err != nil {
		logger.Error("report ingestion failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func handleStreak(w http.ResponseWriter, r *http.Request) {
	userID, ok := authorize(w, r)
	if !ok {
		return
	}

	summary, err := streaks.Get(userID)
	if err != nil {
		logger.Error("streak query failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var lastSuccess string
	if summary.LastSuccessDay != nil {
		lastSuccess = summary.LastSuccessDay.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"streak":           summary.Length,
		"last_success_day": lastSuccess,
		"tracked_decks":    summary.TrackedDecks,
	})
}

func authorize(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := tokens.Validate(r.URL.Query().Get("token"))
	if errors.Is(err, tokens.ErrInvalidToken) || errors.Is(err, tokens.ErrRevokedToken) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if err != nil {
		logger.Error("token validation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

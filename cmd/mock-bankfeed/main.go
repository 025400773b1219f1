package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// The mock stands in for the bank's statement API and the statement
// delivery endpoint. Statements are served from <dir>/<date>.json; a missing
// file is an empty statement.
func main() {
	logging.Init("mock-bankfeed", "info", os.Getenv("APP_ENV"))

	dir := os.Getenv("MOCK_STATEMENTS_DIR")
	if dir == "" {
		dir = "./statements"
	}

	var failing atomic.Bool
	failing.Store(os.Getenv("MOCK_FAIL") == "true")

	var delivered atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "delivered": delivered.Load()})
	})

	mux.HandleFunc("POST /admin/fail", func(w http.ResponseWriter, r *http.Request) {
		failing.Store(r.URL.Query().Get("on") != "false")
		writeJSON(w, http.StatusOK, map[string]bool{"failing": failing.Load()})
	})

	mux.HandleFunc("GET /statements/{date}", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "bank feed unavailable"})
			return
		}

		date, err := domain.ParseDate(r.PathValue("date"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}

		body, err := os.ReadFile(filepath.Join(dir, date.String()+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusOK, map[string]any{"date": date.String(), "records": []any{}})
			return
		}
		if err != nil {
			slog.Error("failed to read statement fixture", "date", date.String(), "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "fixture unreadable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	mux.HandleFunc("POST /statements", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "delivery unavailable"})
			return
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		delivered.Add(1)
		slog.Info("statement delivered", "vendor_id", payload["vendor_id"], "period", payload["period"])
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	slog.Info("mock bank feed started", "addr", ":8081", "dir", dir)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

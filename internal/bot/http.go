package bot

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ghexplorer/internal/models"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 100
	defaultPopularDays  = 7
)

// HTTPServer serves the admin API over the activity journal
type HTTPServer struct {
	bot         *Bot
	adminToken  string
	webhookMode bool // If false (polling mode) and no token is set, skip authentication for local dev
}

// NewHTTPServer creates the admin API handler
func NewHTTPServer(bot *Bot, adminToken string, webhookMode bool) *HTTPServer {
	return &HTTPServer{
		bot:         bot,
		adminToken:  adminToken,
		webhookMode: webhookMode,
	}
}

// RegisterRoutes registers admin API routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/popular", hs.authMiddleware(hs.handlePopular))
	mux.HandleFunc("/api/stats", hs.authMiddleware(hs.handleStats))
}

// authMiddleware checks the "Authorization: Bearer <ADMIN_API_TOKEN>" header.
// Without a configured token the API is open in polling mode and closed in
// webhook mode.
func (hs *HTTPServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hs.adminToken == "" {
			if hs.webhookMode {
				http.Error(w, `{"error":"Admin API disabled"}`, http.StatusForbidden)
				return
			}
			hs.bot.logger.Debug("Skipping authentication (polling mode)",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(hs.adminToken)) != 1 {
			hs.bot.logger.Warn("Unauthorized admin API request",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// PopularResponse is the body of GET /api/popular
type PopularResponse struct {
	Since        time.Time           `json:"since"`
	Profiles     []models.EntityStat `json:"profiles"`
	Repositories []models.EntityStat `json:"repositories"`
}

// handlePopular returns the most viewed profiles and repositories.
// Query parameters: limit (1-100, default 10), days (default 7).
func (hs *HTTPServer) handlePopular(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	limit, ok := intParam(r, "limit", defaultPopularLimit)
	if !ok || limit < 1 || limit > maxPopularLimit {
		http.Error(w, `{"error":"Invalid limit"}`, http.StatusBadRequest)
		return
	}
	days, ok := intParam(r, "days", defaultPopularDays)
	if !ok || days < 1 {
		http.Error(w, `{"error":"Invalid days"}`, http.StatusBadRequest)
		return
	}

	resp := PopularResponse{Since: time.Now().AddDate(0, 0, -days).UTC()}
	var err error
	resp.Profiles, err = hs.bot.db.TopEntities(r.Context(), models.EntityProfile, limit, resp.Since)
	if err == nil {
		resp.Repositories, err = hs.bot.db.TopEntities(r.Context(), models.EntityRepository, limit, resp.Since)
	}
	if err != nil {
		hs.bot.logger.Error("Failed to load popular entities", zap.Error(err))
		http.Error(w, `{"error":"Failed to fetch popular entities"}`, http.StatusInternalServerError)
		return
	}
	if resp.Profiles == nil {
		resp.Profiles = []models.EntityStat{}
	}
	if resp.Repositories == nil {
		resp.Repositories = []models.EntityStat{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStats returns interaction counts for the last day and week
func (hs *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	day, err := hs.bot.db.CountInteractions(r.Context(), now.Add(-24*time.Hour))
	if err != nil {
		hs.bot.logger.Error("Failed to count interactions", zap.Error(err))
		http.Error(w, `{"error":"Failed to fetch stats"}`, http.StatusInternalServerError)
		return
	}
	week, err := hs.bot.db.CountInteractions(r.Context(), now.AddDate(0, 0, -7))
	if err != nil {
		hs.bot.logger.Error("Failed to count interactions", zap.Error(err))
		http.Error(w, `{"error":"Failed to fetch stats"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"interactions_24h": day,
		"interactions_7d":  week,
	})
}

func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

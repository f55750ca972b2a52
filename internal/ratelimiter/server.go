package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caimel/mediacore/internal/apperr"
	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
	"github.com/caimel/mediacore/internal/models"
)

// checkTimeout bounds a single /ratelimit request.
const checkTimeout = 2 * time.Second

// Server exposes Service over its HTTP contract.
type Server struct {
	svc    *Service
	store  interfaces.RateLimitStore
	logger *common.Logger
}

// NewServer builds a Server.
func NewServer(svc *Service, store interfaces.RateLimitStore, logger *common.Logger) *Server {
	return &Server{svc: svc, store: store, logger: logger}
}

// Mux builds the ServeMux for GET /healthz and POST /ratelimit.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/ratelimit", s.handleRatelimit)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	ok := s.store.Ping(ctx) == nil
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": ok})
}

func (s *Server) handleRatelimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	result, err := s.svc.Check(ctx, req)
	if err != nil {
		var verr *apperr.ValidationError
		var terr *apperr.TimeoutError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.As(err, &terr), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, "timeout")
		default:
			s.logger.Warn().Str("id", req.ID).Err(err).Msg("ratelimit check failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

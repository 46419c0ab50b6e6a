package server

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"

	"github.com/wondrvoices/wondrsuggest/internal/logger"
	"github.com/wondrvoices/wondrsuggest/pkg/config"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

// HTTPHandler serves suggestions as JSON.
type HTTPHandler struct {
	loader suggest.Loader
	config *config.Config
	policy *bluemonday.Policy
	log    *log.Logger
	mux    *http.ServeMux
}

// NewHTTPHandler creates the HTTP surface for loader.
func NewHTTPHandler(loader suggest.Loader, cfg *config.Config) *HTTPHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := &HTTPHandler{
		loader: loader,
		config: cfg,
		policy: bluemonday.StrictPolicy(),
		log:    logger.New("http"),
		mux:    http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /suggestions", h.handleSuggestions)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *HTTPHandler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := h.sanitize(params.Get("q"))

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	res, err := lookup(r.Context(), h.loader, h.config.Suggest, h.log, params.Get("category"), query, limit)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			h.writeError(w, reqErr.code, reqErr.msg)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, HTTPResponse{
		Query:       query,
		Suggestions: res,
		Count:       res.Count(),
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sanitize strips markup from a query, keeping literal text such as "&".
func (h *HTTPHandler) sanitize(q string) string {
	return strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(q)))
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"error": msg, "status": status})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Marshaling response: %v", err)
	}
}

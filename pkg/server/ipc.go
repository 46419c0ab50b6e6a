package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wondrvoices/wondrsuggest/internal/logger"
	"github.com/wondrvoices/wondrsuggest/pkg/config"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

// Server handles msgpack IPC for suggestion requests.
type Server struct {
	loader       suggest.Loader
	config       *config.Config
	decoder      *msgpack.Decoder
	encoder      *msgpack.Encoder
	log          *log.Logger
	requestCount int
}

// NewServer creates an IPC server reading requests from r and writing
// responses to w.
func NewServer(loader suggest.Loader, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		loader:  loader,
		config:  cfg,
		decoder: msgpack.NewDecoder(r),
		encoder: msgpack.NewEncoder(w),
		log:     logger.New("ipc"),
	}
}

// Start signals readiness and serves requests until the reader is
// exhausted or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting IPC server")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Client disconnected", "requests", s.requestCount)
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}
		s.handleRequest(ctx, raw)
	}
}

// handleRequest decodes one request and dispatches it by action.
func (s *Server) handleRequest(ctx context.Context, raw msgpack.RawMessage) {
	s.requestCount++

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid request", 400)
		return
	}

	switch req.Action {
	case "", "suggest":
		s.handleSuggest(ctx, req)
	case "health":
		s.reply(StatusResponse{ID: req.ID, Status: "ok"})
	case "stats":
		s.handleStats(ctx, req)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleSuggest(ctx context.Context, req Request) {
	start := time.Now()
	res, err := lookup(ctx, s.loader, s.config.Suggest, s.log, req.Category, req.Query, req.Limit)
	if err != nil {
		s.replyErr(req.ID, err)
		return
	}
	elapsed := time.Since(start)
	s.log.Debug("Served suggestions", "id", req.ID, "query", req.Query, "count", res.Count(), "took", elapsed)

	s.reply(SuggestResponse{
		ID:          req.ID,
		Suggestions: res,
		Count:       res.Count(),
		TimeTaken:   elapsed.Microseconds(),
	})
}

// loadState is implemented by loaders that can report readiness without
// triggering a fetch.
type loadState interface {
	Loaded() bool
}

func (s *Server) handleStats(ctx context.Context, req Request) {
	stats := map[string]int{"requests": s.requestCount, "loaded": 0}
	if ls, ok := s.loader.(loadState); ok && !ls.Loaded() {
		s.reply(StatsResponse{ID: req.ID, Stats: stats})
		return
	}
	if idx, err := s.loader.Load(ctx); err == nil {
		for k, v := range idx.Stats() {
			stats[k] = v
		}
		stats["loaded"] = 1
	}
	s.reply(StatsResponse{ID: req.ID, Stats: stats})
}

func (s *Server) replyErr(id string, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		s.sendError(id, reqErr.msg, reqErr.code)
		return
	}
	s.sendError(id, err.Error(), 500)
}

func (s *Server) sendError(id, message string, code int) {
	s.reply(ErrorResponse{ID: id, Error: message, Code: code})
}

func (s *Server) reply(v any) {
	if err := s.send(v); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) send(v any) error {
	return s.encoder.Encode(v)
}

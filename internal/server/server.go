// Package server exposes the order analysis over HTTP: connect to a database,
// list its tables and analyze one of them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/cadence-cli/internal/analysis"
	"github.com/KaramelBytes/cadence-cli/internal/source"
	"github.com/KaramelBytes/cadence-cli/internal/table"
)

// Session is the subset of *source.DB the handlers need.
type Session interface {
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, name string, maxRows int) (*table.Table, error)
	Ping(ctx context.Context) error
	Close() error
}

// Connector opens a session for the given parameters.
type Connector func(ctx context.Context, p source.Params) (Session, error)

// Options configures a Server.
type Options struct {
	StaticDir string
	MaxRows   int
	Analysis  analysis.Options
	Pool      source.PoolOptions
	Logger    *zap.Logger
	// Connect overrides how sessions are opened; nil uses source.Open.
	Connect Connector
}

// Server holds at most one database session shared by all requests.
type Server struct {
	opt     Options
	log     *zap.Logger
	connect Connector

	mu  sync.Mutex
	cur *lease
}

// lease is a session plus the requests currently using it. A replaced lease
// is closed only after its in-flight requests release it.
type lease struct {
	Session
	inflight sync.WaitGroup
}

func (l *lease) release() { l.inflight.Done() }

func (l *lease) retire() error {
	l.inflight.Wait()
	return l.Close()
}

// New returns a Server with no active session.
func New(opt Options) *Server {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Pool.Logger == nil {
		opt.Pool.Logger = log
	}
	s := &Server{opt: opt, log: log, connect: opt.Connect}
	if s.connect == nil {
		pool := opt.Pool
		s.connect = func(ctx context.Context, p source.Params) (Session, error) {
			db, err := source.Open(ctx, p, pool)
			if err != nil {
				return nil, err
			}
			return db, nil
		}
	}
	return s
}

// Register mounts the API (and the static directory, if any) on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/connect", s.handleConnect)
	mux.HandleFunc("/api/tables", s.handleTables)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Endpoint not found", nil)
	})
	if s.opt.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opt.StaticDir)))
	} else {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusNotFound, "File not found", nil)
		})
	}
}

// Handler returns the full handler chain: CORS, request logging, routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.withLogging(withCORS(mux))
}

// Close waits for requests using the current session, then releases it.
func (s *Server) Close() error {
	s.mu.Lock()
	old := s.cur
	s.cur = nil
	s.mu.Unlock()
	if old == nil {
		return nil
	}
	return old.retire()
}

// Connect opens a session for p and makes it current, closing the previous one.
func (s *Server) Connect(ctx context.Context, p source.Params) error {
	sess, err := s.connect(ctx, p)
	if err != nil {
		return err
	}
	s.swap(sess)
	return nil
}

// acquire returns the current session marked in use, or nil when not
// connected. Callers must release it.
func (s *Server) acquire() *lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	s.cur.inflight.Add(1)
	return s.cur
}

// swap installs sess and closes the one it replaces once it is idle.
func (s *Server) swap(sess Session) {
	s.mu.Lock()
	old := s.cur
	s.cur = &lease{Session: sess}
	s.mu.Unlock()
	if old != nil {
		if err := old.retire(); err != nil {
			s.log.Warn("close previous session", zap.Error(err))
		}
	}
}

type connectRequest struct {
	Driver   string      `json:"driver"`
	DSN      string      `json:"dsn"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Schema   string      `json:"schema"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	var body connectRequest
	if !decodeBody(w, r, &body) {
		return
	}
	p := source.Params{
		Driver:   body.Driver,
		DSN:      body.DSN,
		Host:     strings.TrimSpace(body.Host),
		Username: strings.TrimSpace(body.Username),
		Password: body.Password,
		Schema:   strings.TrimSpace(body.Schema),
	}
	if body.Port != "" {
		port, err := body.Port.Int64()
		if err != nil || port < 0 || port > 65535 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid port number: %s", body.Port), nil)
			return
		}
		p.Port = int(port)
	}
	if _, _, err := source.BuildDSN(p); err != nil {
		if errors.Is(err, source.ErrIncomplete) {
			respondError(w, http.StatusBadRequest, "Missing required fields: host, username, password, and schema are required", nil)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.Connect(r.Context(), p); err != nil {
		s.log.Warn("connect failed", zap.String("host", p.Host), zap.String("schema", p.Schema), zap.Error(err))
		respondError(w, http.StatusBadRequest, "Failed to connect to the database: "+err.Error(), nil)
		return
	}

	target := p.Schema
	if p.Host != "" {
		target = fmt.Sprintf("%s database at %s", p.Schema, p.Host)
		if p.Port > 0 {
			target = fmt.Sprintf("%s:%d", target, p.Port)
		}
	}
	if target == "" {
		target = "database"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Successfully connected to " + target,
	})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	sess := s.acquire()
	if sess == nil {
		respondError(w, http.StatusBadRequest, "Not connected to database", nil)
		return
	}
	defer sess.release()
	tables, err := sess.ListTables(r.Context())
	if err != nil {
		s.log.Error("list tables", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error retrieving tables: "+err.Error(), nil)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "tables": tables})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	sess := s.acquire()
	if sess == nil {
		respondError(w, http.StatusBadRequest, "Not connected to database", nil)
		return
	}
	defer sess.release()
	var body struct {
		Table string `json:"table"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body.Table)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Table name required", nil)
		return
	}
	if !source.ValidTableName(name) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid table name: %s", name), nil)
		return
	}

	start := time.Now()
	t, err := sess.LoadTable(r.Context(), name, s.opt.MaxRows)
	if err != nil {
		s.log.Error("load table", zap.String("table", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Analytics error: "+err.Error(), nil)
		return
	}
	rep, err := analysis.Run(t, s.opt.Analysis)
	if err != nil {
		var se *analysis.SchemaError
		if errors.As(err, &se) {
			respondError(w, http.StatusUnprocessableEntity, se.Error(), se.Diagnostics())
			return
		}
		s.log.Error("analyze", zap.String("table", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Analytics error: "+err.Error(), nil)
		return
	}
	s.log.Info("analysis complete",
		zap.String("table", name),
		zap.String("run_id", rep.RunID),
		zap.Int("rows", rep.Rows),
		zap.Int("customers", len(rep.Records)),
		zap.Duration("elapsed", time.Since(start)))

	resp := map[string]any{
		"status": "success",
		"run_id": rep.RunID,
		"data":   rep.Records,
	}
	if len(rep.Warnings) > 0 {
		resp["warnings"] = rep.Warnings
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if sess := s.acquire(); sess != nil {
		defer sess.release()
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := sess.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, err.Error(), nil)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a JSON body; an empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid JSON", nil)
		return false
	}
	return true
}

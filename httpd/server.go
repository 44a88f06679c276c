// Package httpd is the HTTP front end: it translates client requests into
// calls against the sqlstore.Engine (direct, for reads) or raftstore.RaftStore
// (proposed through consensus, for writes and membership changes). Nothing
// in this package understands raft itself.
package httpd

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/quorumdb/quorumdb/sqlstore"
	"github.com/quorumdb/quorumdb/status"
)

// QueryEngine is the local SQL surface httpd reads and writes through.
type QueryEngine interface {
	Query(req sqlstore.Request) (sqlstore.Rows, error)
}

// RaftControl is the membership and write-proposal surface httpd delegates
// to. raftstore.RaftStore implements it.
type RaftControl interface {
	Propose(ctx context.Context, payload []byte) error
	Join(ctx context.Context, nodeID uint64, addr string) error
	Remove(ctx context.Context, nodeID uint64) error
	LeaderID() (uint64, bool)
	IsLeader() bool
}

// StatusReporter supplies the host-level stats the /status endpoint
// reports. status.Reporter implements it.
type StatusReporter interface {
	Report() (status.Info, error)
}

// Server is the HTTP front end for one node.
type Server struct {
	router *mux.Router
	h      *handlers
}

// NewServer builds a Server wired to the given collaborators.
func NewServer(engine QueryEngine, control RaftControl, status StatusReporter) *Server {
	s := &Server{
		router: mux.NewRouter(),
		h:      &handlers{engine: engine, control: control, status: status},
	}
	s.router.HandleFunc("/ping", s.h.ping).Methods(http.MethodGet)
	s.router.HandleFunc("/db/execute", s.h.execute).Methods(http.MethodPost)
	s.router.HandleFunc("/db/query", s.h.query).Methods(http.MethodPost)
	s.router.HandleFunc("/join", s.h.join).Methods(http.MethodPost)
	s.router.HandleFunc("/remove", s.h.remove).Methods(http.MethodPost)
	s.router.HandleFunc("/status", s.h.status).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(http.NotFound)
	return s
}

// ServeHTTP implements http.Handler so Server can be passed straight to
// http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	log.Info("request served",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("latency", time.Since(start)))
}

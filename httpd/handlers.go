package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quorumdb/quorumdb/sqlstore"
)

// proposeTimeout bounds how long /db/execute, /join, and /remove wait for
// their proposal to commit before reporting a timeout to the client.
const proposeTimeout = 5 * time.Second

type handlers struct {
	engine  QueryEngine
	control RaftControl
	status  StatusReporter
}

func (h *handlers) ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (h *handlers) execute(w http.ResponseWriter, r *http.Request) {
	var req sqlstore.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if !h.control.IsLeader() {
		writeNotLeader(w, h.control)
		return
	}

	payload, err := sqlstore.EncodeRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), proposeTimeout)
	defer cancel()
	if err := h.control.Propose(ctx, payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The commit ack only promises the entry committed, not that every
	// statement inside it succeeded — re-run it locally (now applied on
	// this node too, since it's the leader and applies its own entries in
	// order) to report the actual per-statement outcomes.
	responses, err := h.localExecute(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// localExecute is a small seam so handlers.execute can report real
// per-statement Responses without httpd depending on sqlstore.Engine's
// concrete type; QueryEngine alone doesn't expose Execute; for the common
// case the same object (sqlstore.Engine) implements both. Cast rather than
// widen QueryEngine because only /db/execute needs this.
type executor interface {
	Execute(req sqlstore.Request) ([]sqlstore.Response, error)
}

func (h *handlers) localExecute(req sqlstore.Request) ([]sqlstore.Response, error) {
	if ex, ok := h.engine.(executor); ok {
		return ex.Execute(req)
	}
	return nil, nil
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	var req sqlstore.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := h.engine.Query(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type joinRequest struct {
	ID   uint64 `json:"id"`
	Addr string `json:"addr"`
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.control.IsLeader() {
		writeNotLeader(w, h.control)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), proposeTimeout)
	defer cancel()
	if err := h.control.Join(ctx, req.ID, req.Addr); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type removeRequest struct {
	ID uint64 `json:"id"`
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !h.control.IsLeader() {
		writeNotLeader(w, h.control)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), proposeTimeout)
	defer cancel()
	if err := h.control.Remove(ctx, req.ID); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	hostInfo, err := h.status.Report()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	leaderID, _ := h.control.LeaderID()
	info := StatusInfo{LeaderID: leaderID, IsLeader: h.control.IsLeader(), Info: hostInfo}
	writeJSON(w, http.StatusOK, info)
}

func writeNotLeader(w http.ResponseWriter, control RaftControl) {
	leaderID, _ := control.LeaderID()
	writeJSON(w, http.StatusConflict, map[string]uint64{"leader_id": leaderID})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, sqlstore.Response{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package httpd

import "github.com/quorumdb/quorumdb/status"

// StatusInfo is the JSON body GET /status returns. LeaderID and IsLeader
// are filled in by the handler itself; the embedded status.Info comes from
// the StatusReporter collaborator (status.Reporter, gopsutil-backed).
type StatusInfo struct {
	LeaderID uint64 `json:"leader_id"`
	IsLeader bool   `json:"is_leader"`
	status.Info
}

// Package audit records security-relevant actions: logins, failed logins,
// logouts, and registry changes. It only observes; nothing here changes
// principals or sessions.
package audit

import "time"

// Entry is one recorded action. ActorID is 0 when nobody was signed in
// (a failed login). TargetID is the principal the action applied to.
type Entry struct {
	ID        int64          `json:"id"`
	ActorID   int64          `json:"actorId"`
	Action    string         `json:"action"`
	TargetID  int64          `json:"targetId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`

	// ActorName is joined from users at query time. Not stored.
	ActorName string `json:"actorName,omitempty"`
}

package models

import "time"

// SessionStatus is the operator's presence status.
type SessionStatus string

const (
	StatusOnline SessionStatus = "online"
	StatusAway   SessionStatus = "away"
	StatusBusy   SessionStatus = "busy"
	// StatusOffline is derived server-side for expired sessions; clients never send it.
	StatusOffline SessionStatus = "offline"
)

// Valid reports whether the status is one a client may report.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Session is one operator's live presence record.
type Session struct {
	ID           string        `json:"id"`
	OperatorID   string        `json:"operator_id"`
	OperatorName string        `json:"operator_name"`
	StandID      string        `json:"stand_id,omitempty"`
	StandName    string        `json:"stand_name,omitempty"`
	Section      string        `json:"section,omitempty"`
	CurrentTab   string        `json:"current_tab,omitempty"`
	Status       SessionStatus `json:"status"`
	Sandbox      bool          `json:"sandbox"`
	StartedAt    time.Time     `json:"started_at"`
	LastSeen     time.Time     `json:"last_seen"`
}

// SessionContext is the mutable slice of a session the client tracks locally.
type SessionContext struct {
	StandID    string
	StandName  string
	Section    string
	CurrentTab string
	Status     SessionStatus
}

// CreateSessionRequest is the body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	OperatorID   string        `json:"operator_id" binding:"required"`
	OperatorName string        `json:"operator_name" binding:"required"`
	StandID      string        `json:"stand_id"`
	StandName    string        `json:"stand_name"`
	Section      string        `json:"section"`
	CurrentTab   string        `json:"current_tab"`
	Status       SessionStatus `json:"status"`
	Sandbox      bool          `json:"sandbox"`
}

// CreateSessionResponse returns the service-assigned session id.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// HeartbeatUpdate is a partial context/status update. Nil fields are left
// untouched server-side; last write wins.
type HeartbeatUpdate struct {
	StandID    *string        `json:"stand_id,omitempty"`
	StandName  *string        `json:"stand_name,omitempty"`
	Section    *string        `json:"section,omitempty"`
	CurrentTab *string        `json:"current_tab,omitempty"`
	Status     *SessionStatus `json:"status,omitempty"`
}

// ActiveSessionsResponse lists sessions whose records have not expired.
type ActiveSessionsResponse struct {
	Count    int       `json:"count"`
	Sessions []Session `json:"sessions"`
}

// StrPtr is a convenience for building partial heartbeat updates.
func StrPtr(s string) *string {
	return &s
}

// StatusPtr is a convenience for building status-only heartbeat updates.
func StatusPtr(s SessionStatus) *SessionStatus {
	return &s
}

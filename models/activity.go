package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JSONB type for PostgreSQL JSONB fields
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// ActivityKind classifies a discrete operator action. Closed set.
type ActivityKind string

const (
	ActivityLogin               ActivityKind = "login"
	ActivityLogout              ActivityKind = "logout"
	ActivityStandSelected       ActivityKind = "stand_selected"
	ActivityTabChanged          ActivityKind = "tab_changed"
	ActivityDeliveryRequested   ActivityKind = "delivery_requested"
	ActivityIssueOpened         ActivityKind = "issue_opened"
	ActivityIssueResolved       ActivityKind = "issue_resolved"
	ActivityCountStarted        ActivityKind = "count_started"
	ActivityCountCompleted      ActivityKind = "count_completed"
	ActivityMessageSent         ActivityKind = "message_sent"
	ActivityComplianceSubmitted ActivityKind = "compliance_submitted"
	ActivityFacilityIssue       ActivityKind = "facility_issue"
	ActivityEmergencyAlert      ActivityKind = "emergency_alert"
)

var activityKinds = map[ActivityKind]bool{
	ActivityLogin:               true,
	ActivityLogout:              true,
	ActivityStandSelected:       true,
	ActivityTabChanged:          true,
	ActivityDeliveryRequested:   true,
	ActivityIssueOpened:         true,
	ActivityIssueResolved:       true,
	ActivityCountStarted:        true,
	ActivityCountCompleted:      true,
	ActivityMessageSent:         true,
	ActivityComplianceSubmitted: true,
	ActivityFacilityIssue:       true,
	ActivityEmergencyAlert:      true,
}

// Valid reports whether the kind belongs to the closed set.
func (k ActivityKind) Valid() bool {
	return activityKinds[k]
}

// ActivityEvent is an immutable, append-only record of an operator action.
type ActivityEvent struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SessionID    string       `json:"session_id" gorm:"not null;index"`
	OperatorID   string       `json:"operator_id" gorm:"not null;index"`
	OperatorName string       `json:"operator_name" gorm:"not null"`
	Kind         ActivityKind `json:"kind" gorm:"not null;index"`
	Description  string       `json:"description"`
	StandID      string       `json:"stand_id,omitempty"`
	StandName    string       `json:"stand_name,omitempty"`
	Metadata     JSONB        `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}

// StandRef points at a stand by id and display name.
type StandRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LogActivityRequest is the body of POST /api/v1/activity.
type LogActivityRequest struct {
	SessionID    string       `json:"session_id" binding:"required"`
	OperatorID   string       `json:"operator_id" binding:"required"`
	OperatorName string       `json:"operator_name" binding:"required"`
	Kind         ActivityKind `json:"kind" binding:"required"`
	Description  string       `json:"description"`
	StandID      string       `json:"stand_id"`
	StandName    string       `json:"stand_name"`
	Metadata     JSONB        `json:"metadata"`
}

// ListResponse is a generic paginated listing envelope.
type ListResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

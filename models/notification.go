package models

import "encoding/json"

// NotificationType identifies a push message on the notification channel.
type NotificationType string

const (
	NotifyEventActivated      NotificationType = "EVENT_ACTIVATED"
	NotifyDepartmentNoteAdded NotificationType = "DEPARTMENT_NOTE_ADDED"
)

// NotificationMessage is a transient frame pushed over the channel. Payload is
// decoded per type; unrecognized types are dropped by receivers.
type NotificationMessage struct {
	Type    NotificationType `json:"type"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

// EventActivatedPayload announces that a venue event went live.
type EventActivatedPayload struct {
	EventName   string `json:"eventName"`
	ActivatedBy string `json:"activatedBy"`
}

// DepartmentNotePayload carries a note posted to a department board.
type DepartmentNotePayload struct {
	Department string `json:"department"`
	Note       string `json:"note"`
}

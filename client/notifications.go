package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"venuepulse/models"
	"venuepulse/utils"
)

// DefaultReconnectDelay is the fixed wait before a reconnect attempt. No
// backoff growth and no retry cap: the channel retries indefinitely while it
// stays open. Flagged as a resource risk under sustained outages; preserved
// as observed behavior.
const DefaultReconnectDelay = 5 * time.Second

// Toast auto-dismiss durations per message type.
const (
	eventToastDuration = 6 * time.Second
	noteToastDuration  = 5 * time.Second
)

// Severity levels for emitted notifications.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Notifier is the local sink for transient notifications (the toast surface).
type Notifier interface {
	Notify(severity Severity, message string, duration time.Duration, id string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(severity Severity, message string, duration time.Duration, id string)

func (f NotifierFunc) Notify(severity Severity, message string, duration time.Duration, id string) {
	f(severity, message, duration, id)
}

// NotificationChannel maintains at most one websocket connection to the
// gateway, reconnects after any disconnect and dispatches recognized frames
// to the notifier. Everything else is dropped silently.
type NotificationChannel struct {
	wsURL    string
	notifier Notifier
	logger   *utils.Logger
	delay    time.Duration
	dialer   *websocket.Dialer

	mu             sync.Mutex
	conn           *websocket.Conn
	reconnectTimer *time.Timer
	closed         bool
}

// NewNotificationChannel creates a channel targeting the gateway's /ws path.
// gatewayURL is the HTTP origin (e.g. "https://ops.example.com"); the socket
// scheme mirrors it: https becomes wss, http becomes ws.
func NewNotificationChannel(gatewayURL string, notifier Notifier, logger *utils.Logger) (*NotificationChannel, error) {
	wsURL, err := websocketURL(gatewayURL)
	if err != nil {
		return nil, err
	}
	return &NotificationChannel{
		wsURL:    wsURL,
		notifier: notifier,
		logger:   logger,
		delay:    DefaultReconnectDelay,
		dialer:   websocket.DefaultDialer,
	}, nil
}

// SetReconnectDelay overrides the fixed reconnect delay.
func (nc *NotificationChannel) SetReconnectDelay(d time.Duration) {
	nc.delay = d
}

// Connect opens the connection and starts the read loop. Idempotent: a no-op
// while a connection is already open or the channel is closed. A failed dial
// schedules a reconnect just like a dropped connection.
func (nc *NotificationChannel) Connect() {
	nc.mu.Lock()
	if nc.closed || nc.conn != nil {
		nc.mu.Unlock()
		return
	}
	nc.mu.Unlock()

	conn, _, err := nc.dialer.Dial(nc.wsURL, nil)
	if err != nil {
		nc.logger.Warn("notification channel dial failed", "url", nc.wsURL, "error", err)
		nc.scheduleReconnect()
		return
	}

	nc.mu.Lock()
	if nc.closed {
		nc.mu.Unlock()
		conn.Close()
		return
	}
	if nc.conn != nil {
		// Raced with another Connect; keep the existing connection.
		nc.mu.Unlock()
		conn.Close()
		return
	}
	nc.conn = conn
	nc.mu.Unlock()

	nc.logger.Info("notification channel connected", "url", nc.wsURL)
	go nc.readLoop(conn)
}

// Close cancels any pending reconnect and closes the socket. No further
// reconnection happens after Close.
func (nc *NotificationChannel) Close() {
	nc.mu.Lock()
	nc.closed = true
	if nc.reconnectTimer != nil {
		nc.reconnectTimer.Stop()
		nc.reconnectTimer = nil
	}
	conn := nc.conn
	nc.conn = nil
	nc.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Connected reports whether a connection is currently open.
func (nc *NotificationChannel) Connected() bool {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.conn != nil
}

func (nc *NotificationChannel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			nc.mu.Lock()
			if nc.conn == conn {
				nc.conn = nil
			}
			closed := nc.closed
			nc.mu.Unlock()
			if !closed {
				nc.logger.Warn("notification channel disconnected", "error", err)
				nc.scheduleReconnect()
			}
			return
		}

		var msg models.NotificationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// One bad frame never takes the connection down.
			nc.logger.Warn("dropping malformed notification frame", "error", err)
			continue
		}
		nc.dispatch(msg)
	}
}

// scheduleReconnect arms exactly one reconnect timer. Repeated disconnects
// while a timer is pending do not stack attempts.
func (nc *NotificationChannel) scheduleReconnect() {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	if nc.closed || nc.reconnectTimer != nil {
		return
	}
	nc.reconnectTimer = time.AfterFunc(nc.delay, func() {
		nc.mu.Lock()
		nc.reconnectTimer = nil
		closed := nc.closed
		nc.mu.Unlock()
		if !closed {
			nc.Connect()
		}
	})
}

func (nc *NotificationChannel) dispatch(msg models.NotificationMessage) {
	switch msg.Type {
	case models.NotifyEventActivated:
		var p models.EventActivatedPayload
		if msg.Payload != nil {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				nc.logger.Warn("bad EVENT_ACTIVATED payload", "error", err)
				return
			}
		}
		text := fmt.Sprintf("Event '%s' is now LIVE - activated by %s",
			orUnknown(p.EventName), orUnknown(p.ActivatedBy))
		nc.notifier.Notify(SeveritySuccess, text, eventToastDuration, notificationID())

	case models.NotifyDepartmentNoteAdded:
		var p models.DepartmentNotePayload
		if msg.Payload != nil {
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				nc.logger.Warn("bad DEPARTMENT_NOTE_ADDED payload", "error", err)
				return
			}
		}
		text := fmt.Sprintf("New note for %s: %s", orUnknown(p.Department), p.Note)
		nc.notifier.Notify(SeverityInfo, text, noteToastDuration, notificationID())

	default:
		// Unrecognized types are ignored without error.
	}
}

// notificationID derives a unique id from dispatch time so rapid repeats are
// never coalesced into one toast.
func notificationID() string {
	return fmt.Sprintf("notif-%d", time.Now().UnixNano())
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// websocketURL maps the gateway's HTTP origin onto its websocket endpoint.
func websocketURL(gatewayURL string) (string, error) {
	u, err := url.Parse(gatewayURL)
	if err != nil {
		return "", fmt.Errorf("parse gateway url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported gateway scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

package client

import (
	"context"
	"sync"
	"time"

	"venuepulse/models"
	"venuepulse/utils"
)

// DefaultHeartbeatInterval is how often an idle session confirms liveness.
const DefaultHeartbeatInterval = 30 * time.Second

// ErrorSink receives failures from fire-and-forget service calls. The
// default sink logs them; tests install their own to observe failures
// without changing behavior.
type ErrorSink func(op string, err error)

// SessionManager owns exactly one live session for a signed-in operator:
// creation, periodic heartbeat, context updates, activity logging and
// termination. Every service call is best effort; a flaky network degrades
// presence fidelity, never dashboard usability.
type SessionManager struct {
	svc      SessionService
	logger   *utils.Logger
	interval time.Duration
	onError  ErrorSink

	mu           sync.Mutex
	sessionID    string
	operatorID   string
	operatorName string
	sandbox      bool
	context      models.SessionContext

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSessionManager creates a manager in the uninitialized state. Nothing is
// sent until Start.
func NewSessionManager(svc SessionService, logger *utils.Logger) *SessionManager {
	return &SessionManager{
		svc:      svc,
		logger:   logger,
		interval: DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval overrides the heartbeat cadence. Must be called
// before Start.
func (m *SessionManager) SetHeartbeatInterval(d time.Duration) {
	m.interval = d
}

// SetErrorSink installs an observer for swallowed service-call failures.
func (m *SessionManager) SetErrorSink(sink ErrorSink) {
	m.onError = sink
}

// Start creates the session and begins the heartbeat loop. On create failure
// the manager stays session-less (heartbeats and activity calls become
// no-ops) but the loop still runs for the lifetime of the manager; there is
// no automatic retry of the create itself. Returns the assigned session id,
// or "" if creation failed.
func (m *SessionManager) Start(ctx context.Context, operatorID, operatorName string, initial models.SessionContext, sandbox bool) string {
	if initial.Status == "" {
		initial.Status = models.StatusOnline
	}

	m.mu.Lock()
	m.operatorID = operatorID
	m.operatorName = operatorName
	m.sandbox = sandbox
	m.context = initial
	if m.cancel == nil {
		m.runCtx, m.cancel = context.WithCancel(ctx)
		m.wg.Add(1)
		go m.heartbeatLoop()
	}
	m.mu.Unlock()

	id, err := m.svc.CreateSession(ctx, models.CreateSessionRequest{
		OperatorID:   operatorID,
		OperatorName: operatorName,
		StandID:      initial.StandID,
		StandName:    initial.StandName,
		Section:      initial.Section,
		CurrentTab:   initial.CurrentTab,
		Status:       initial.Status,
		Sandbox:      sandbox,
	})
	if err != nil {
		m.report("create_session", err)
		return ""
	}

	m.mu.Lock()
	m.sessionID = id
	m.mu.Unlock()

	m.LogActivity(models.ActivityLogin, "Signed into dashboard", nil, nil)
	m.logger.Info("session started", "session_id", id, "operator_id", operatorID)
	return id
}

// Heartbeat reports liveness. A nil update sends the full tracked context;
// otherwise the partial update is merged locally (last write wins) and sent
// as-is. No-op without a session id. Failures are swallowed and the loop
// keeps running.
func (m *SessionManager) Heartbeat(update *models.HeartbeatUpdate) {
	m.mu.Lock()
	id := m.sessionID
	if id == "" {
		m.mu.Unlock()
		return
	}

	var payload models.HeartbeatUpdate
	if update == nil {
		c := m.context
		payload = models.HeartbeatUpdate{
			StandID:    &c.StandID,
			StandName:  &c.StandName,
			Section:    &c.Section,
			CurrentTab: &c.CurrentTab,
			Status:     &c.Status,
		}
	} else {
		m.mergeLocked(update)
		payload = *update
	}
	m.mu.Unlock()

	// Independent of the run context: a heartbeat already in flight is not
	// torn down by the ticker's cancellation.
	if err := m.svc.Heartbeat(context.Background(), id, payload); err != nil {
		m.report("heartbeat", err)
	}
}

// UpdateTab records the newly viewed tab, heartbeats the change and logs a
// tab_changed activity.
func (m *SessionManager) UpdateTab(tab string) {
	m.Heartbeat(&models.HeartbeatUpdate{CurrentTab: models.StrPtr(tab)})
	m.LogActivity(models.ActivityTabChanged, "Viewing "+tab, nil, nil)
}

// UpdateStand heartbeats the new stand and section; when both id and name
// are set it also logs a stand_selected activity referencing the stand.
func (m *SessionManager) UpdateStand(standID, standName, section string) {
	update := models.HeartbeatUpdate{
		StandID:   models.StrPtr(standID),
		StandName: models.StrPtr(standName),
	}
	if section != "" {
		update.Section = models.StrPtr(section)
	}
	m.Heartbeat(&update)

	if standID != "" && standName != "" {
		m.LogActivity(models.ActivityStandSelected, "Selected "+standName, &models.StandRef{ID: standID, Name: standName}, nil)
	}
}

// UpdateStatus heartbeats a status-only change.
func (m *SessionManager) UpdateStatus(status models.SessionStatus) {
	m.Heartbeat(&models.HeartbeatUpdate{Status: models.StatusPtr(status)})
}

// HandleVisibility maps page visibility onto presence status: hidden means
// away, visible means online.
func (m *SessionManager) HandleVisibility(visible bool) {
	if visible {
		m.UpdateStatus(models.StatusOnline)
	} else {
		m.UpdateStatus(models.StatusAway)
	}
}

// LogActivity appends one immutable activity record. No-op without a
// session: an activity cannot exist without an owning session. The stand
// reference defaults to the currently tracked stand.
func (m *SessionManager) LogActivity(kind models.ActivityKind, description string, stand *models.StandRef, metadata models.JSONB) {
	m.mu.Lock()
	id := m.sessionID
	if id == "" {
		m.mu.Unlock()
		return
	}
	req := models.LogActivityRequest{
		SessionID:    id,
		OperatorID:   m.operatorID,
		OperatorName: m.operatorName,
		Kind:         kind,
		Description:  description,
		Metadata:     metadata,
	}
	if stand != nil {
		req.StandID = stand.ID
		req.StandName = stand.Name
	} else {
		req.StandID = m.context.StandID
		req.StandName = m.context.StandName
	}
	m.mu.Unlock()

	if err := m.svc.LogActivity(context.Background(), req); err != nil {
		m.report("log_activity", err)
	}
}

// End logs a logout activity, fires the end-session beacon and clears the
// local session id. The session is considered closed locally regardless of
// either request's outcome. Idempotent; a later Start creates a new session.
func (m *SessionManager) End() {
	m.mu.Lock()
	id := m.sessionID
	m.mu.Unlock()
	if id == "" {
		return
	}

	m.LogActivity(models.ActivityLogout, "Signed out of dashboard", nil, nil)

	m.mu.Lock()
	m.sessionID = ""
	m.mu.Unlock()

	if err := m.svc.EndSession(id); err != nil {
		m.report("end_session", err)
	}
	m.logger.Info("session ended", "session_id", id)
}

// Stop cancels the heartbeat loop and ends the session once. Call on
// teardown.
func (m *SessionManager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		m.wg.Wait()
	}
	m.End()
}

// SessionID returns the current session id, or "" when no session exists.
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Context returns a copy of the locally tracked session context.
func (m *SessionManager) Context() models.SessionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.context
}

func (m *SessionManager) heartbeatLoop() {
	defer m.wg.Done()

	m.mu.Lock()
	ctx := m.runCtx
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Heartbeat(nil)
		}
	}
}

// mergeLocked folds a partial update into the tracked context. Caller holds mu.
func (m *SessionManager) mergeLocked(update *models.HeartbeatUpdate) {
	if update.StandID != nil {
		m.context.StandID = *update.StandID
	}
	if update.StandName != nil {
		m.context.StandName = *update.StandName
	}
	if update.Section != nil {
		m.context.Section = *update.Section
	}
	if update.CurrentTab != nil {
		m.context.CurrentTab = *update.CurrentTab
	}
	if update.Status != nil {
		m.context.Status = *update.Status
	}
}

func (m *SessionManager) report(op string, err error) {
	if m.onError != nil {
		m.onError(op, err)
		return
	}
	m.logger.Error("session request failed", "op", op, "error", err)
}

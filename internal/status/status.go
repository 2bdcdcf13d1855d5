// Package status provides a thread-safe status tracker for the moodfuse daemon.
// It is written by the session engine and read by HTTP handlers and
// heartbeat events.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	UserName    string
	BackendURL  string
	TickMs      int64
	DecayMs     int64
	NudgeMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	EventsTopic string // topic the status page subscribes to
	GPIOChip    string // empty = no button panel
}

// ModalityState describes whether a modality is producing samples.
type ModalityState string

const (
	ModalityIdle     ModalityState = "idle"     // no adapter attached
	ModalityActive   ModalityState = "active"   // adapter attached
	ModalityDisabled ModalityState = "disabled" // adapter failed to initialize
)

// ModalityStatus is the health of one modality.
type ModalityStatus struct {
	State    ModalityState
	Reason   string // set when disabled
	Buffered int    // samples in the smoothing window
	Since    time.Time
}

// Session is the engine-owned part of the snapshot.
type Session struct {
	Trend        logic.Trend
	Crisis       logic.CrisisState
	Pet          logic.PetSnapshot
	Ledger       logic.LedgerStats
	Recent       []logic.MoodEntry
	Transcript   []logic.Message
	NudgePending bool
	FollowUpDue  bool
	Counts       logic.EventCounts
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	SessionID        string
	Session          Session
	Modalities       map[logic.Modality]ModalityStatus
	ButtonsBaselined bool
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	MQTTBuffered     int
	Network          *NetworkInfo
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, session ID and config.
// Every streaming modality starts idle.
func NewTracker(startTime time.Time, sessionID string, cfg Config) *Tracker {
	mods := make(map[logic.Modality]ModalityStatus, len(logic.AllModalities))
	for _, m := range logic.AllModalities {
		mods[m] = ModalityStatus{State: ModalityIdle, Since: startTime}
	}
	mods[logic.ModalityButton] = ModalityStatus{State: ModalityActive, Since: startTime}
	return &Tracker{
		snap: Snapshot{
			SessionID:  sessionID,
			StartTime:  startTime,
			Config:     cfg,
			Modalities: mods,
			Session: Session{
				Trend:  logic.TrendNeutral,
				Crisis: logic.NewCrisisState(),
			},
		},
	}
}

// Update replaces the session state.
// Called by the engine after every handler that changed something.
func (t *Tracker) Update(s Session) {
	t.mu.Lock()
	t.snap.Session = s
	t.mu.Unlock()
}

// SetModality sets the status of one modality.
func (t *Tracker) SetModality(m logic.Modality, ms ModalityStatus) {
	t.mu.Lock()
	t.snap.Modalities[m] = ms
	t.mu.Unlock()
}

// SetBuffered updates the smoothing window depth of one modality.
func (t *Tracker) SetBuffered(m logic.Modality, n int) {
	t.mu.Lock()
	ms := t.snap.Modalities[m]
	ms.Buffered = n
	t.snap.Modalities[m] = ms
	t.mu.Unlock()
}

// SetButtonsBaselined records whether the button panel has a baseline.
func (t *Tracker) SetButtonsBaselined(b bool) {
	t.mu.Lock()
	t.snap.ButtonsBaselined = b
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets the number of events waiting for a reconnect.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Modalities = make(map[logic.Modality]ModalityStatus, len(t.snap.Modalities))
	for m, ms := range t.snap.Modalities {
		s.Modalities[m] = ms
	}
	s.Session.Recent = append([]logic.MoodEntry(nil), t.snap.Session.Recent...)
	s.Session.Transcript = append([]logic.Message(nil), t.snap.Session.Transcript...)
	if t.snap.Session.Ledger.ByMood != nil {
		s.Session.Ledger.ByMood = make(map[logic.Mood]int, len(t.snap.Session.Ledger.ByMood))
		for k, v := range t.snap.Session.Ledger.ByMood {
			s.Session.Ledger.ByMood[k] = v
		}
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// FormatDuration renders a session length as "1h 05m", "5m 03s" or "42s".
func FormatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

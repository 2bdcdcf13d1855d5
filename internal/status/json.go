package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string                  `json:"event,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
	SessionID     string                  `json:"session_id"`
	Trend         string                  `json:"trend"`
	Crisis        logic.CrisisState       `json:"crisis"`
	Pet           PetJSON                 `json:"pet"`
	Ledger        LedgerJSON              `json:"ledger"`
	Modalities    map[string]ModalityJSON `json:"modalities"`
	ButtonsReady  bool                    `json:"buttons_ready"`
	NudgePending  bool                    `json:"nudge_pending"`
	FollowUpDue   bool                    `json:"follow_up_pending"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Duration      string                  `json:"session_duration"`
	StartTime     string                  `json:"start_time"`
	Timestamp     string                  `json:"timestamp"`
	MQTT          MQTTStatus              `json:"mqtt"`
	Counts        CountsJSON              `json:"event_counts"`
	Network       *NetworkJSON            `json:"network,omitempty"`
	Config        ConfigJSON              `json:"config"`

	// Web output only.
	Recent     []logic.MoodEntry `json:"recent,omitempty"`
	Transcript []logic.Message   `json:"transcript,omitempty"`
}

// PetJSON is the companion's snapshot with the art to show.
type PetJSON struct {
	logic.PetSnapshot
	Visual string `json:"visual"`
}

// LedgerJSON summarizes the mood ledger.
type LedgerJSON struct {
	Count   int            `json:"count"`
	Average float64        `json:"average"`
	ByMood  map[string]int `json:"by_mood"`
}

// ModalityJSON reports one modality's health.
type ModalityJSON struct {
	State    string `json:"state"`
	Reason   string `json:"reason,omitempty"`
	Buffered int    `json:"buffered"`
	Since    string `json:"since"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Button     int `json:"button_entries"`
	Voice      int `json:"voice_entries"`
	Video      int `json:"video_entries"`
	Crisis     int `json:"crisis_detections"`
	Nudges     int `json:"nudges_sent"`
	PetActions int `json:"pet_actions"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	UserName    string `json:"user_name"`
	Backend     string `json:"backend_url,omitempty"`
	TickMs      int64  `json:"tick_ms"`
	DecayMs     int64  `json:"decay_interval_ms"`
	NudgeMs     int64  `json:"nudge_delay_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	GPIOChip    string `json:"gpio_chip,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	sess := snap.Session
	trend := string(sess.Trend)
	if trend == "" {
		trend = string(logic.TrendNeutral)
	}
	crisis := sess.Crisis
	if crisis.Level == "" {
		crisis = logic.NewCrisisState()
	}

	byMood := make(map[string]int, len(logic.AllMoods))
	for _, m := range logic.AllMoods {
		byMood[string(m)] = sess.Ledger.ByMood[m]
	}

	mods := make(map[string]ModalityJSON, len(snap.Modalities))
	for m, ms := range snap.Modalities {
		mods[string(m)] = ModalityJSON{
			State:    string(ms.State),
			Reason:   ms.Reason,
			Buffered: ms.Buffered,
			Since:    ms.Since.UTC().Format(time.RFC3339),
		}
	}

	uptime := snap.Uptime()
	return StatusInner{
		SessionID:     snap.SessionID,
		Trend:         trend,
		Crisis:        crisis,
		Pet:           PetJSON{PetSnapshot: sess.Pet, Visual: sess.Pet.State.Visual()},
		Ledger:        LedgerJSON{Count: sess.Ledger.Count, Average: sess.Ledger.Average, ByMood: byMood},
		Modalities:    mods,
		ButtonsReady:  snap.ButtonsBaselined,
		NudgePending:  sess.NudgePending,
		FollowUpDue:   sess.FollowUpDue,
		UptimeSeconds: int64(uptime.Truncate(time.Second).Seconds()),
		Duration:      FormatDuration(uptime),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.MQTTBuffered,
		},
		Counts: CountsJSON{
			Button:     sess.Counts.ButtonEntries,
			Voice:      sess.Counts.VoiceEntries,
			Video:      sess.Counts.VideoEntries,
			Crisis:     sess.Counts.CrisisDetections,
			Nudges:     sess.Counts.NudgesSent,
			PetActions: sess.Counts.PetActions,
		},
		Config: ConfigJSON{
			UserName:    snap.Config.UserName,
			Backend:     snap.Config.BackendURL,
			TickMs:      snap.Config.TickMs,
			DecayMs:     snap.Config.DecayMs,
			NudgeMs:     snap.Config.NudgeMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			GPIOChip:    snap.Config.GPIOChip,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
// It includes the recent mood entries and transcript tail.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	inner.Recent = snap.Session.Recent
	inner.Transcript = snap.Session.Transcript

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Message contents are left out of broker traffic.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)
	// The trigger is user text; keep it off the broker.
	inner.Crisis.Trigger = ""

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

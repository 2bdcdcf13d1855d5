package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/mqtt"
	"github.com/sweeney/moodfuse/internal/session"
	"github.com/sweeney/moodfuse/internal/status"
)

func testConfig() status.Config {
	return status.Config{
		UserName:    "Sam",
		TickMs:      1000,
		DecayMs:     60000,
		NudgeMs:     5000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
}

// fakeEngine records API calls.
type fakeEngine struct {
	mu       sync.Mutex
	chosen   []logic.Mood
	messages []string
	actions  []logic.PetAction
	breathe  int
	err      error
	pet      *logic.Pet
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{pet: logic.NewPet(logic.DefaultPetStats)}
}

func (f *fakeEngine) AdapterAttached(logic.Modality)                    {}
func (f *fakeEngine) SubmitSample(logic.Modality, logic.EmotionSample) {}
func (f *fakeEngine) ResetModality(logic.Modality)                      {}
func (f *fakeEngine) AdapterFailed(logic.Modality, error)               {}
func (f *fakeEngine) AdapterDetached(logic.Modality)                    {}

func (f *fakeEngine) Choose(_ context.Context, m logic.Mood) (logic.MoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return logic.MoodEntry{}, f.err
	}
	f.chosen = append(f.chosen, m)
	info := logic.ChoiceInfo(m)
	return logic.MoodEntry{ID: "01TEST", Mood: info.Mood, Value: info.Value, Emoji: info.Emoji, Source: logic.ModalityButton}, nil
}

func (f *fakeEngine) SendMessage(_ context.Context, text string) (logic.CrisisLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return logic.CrisisNone, session.ErrEmptyMessage
	}
	f.messages = append(f.messages, text)
	return logic.Scan(text), nil
}

func (f *fakeEngine) PetAction(_ context.Context, a logic.PetAction) (logic.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	return f.pet.Do(a)
}

func (f *fakeEngine) DismissCrisis(context.Context) (bool, error) {
	return true, nil
}

func (f *fakeEngine) StartBreathing(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breathe++
	return f.err
}

func newTestServer(t *testing.T, engine Engine) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, "sess-1", testConfig())
	srv := New(":0", tr, engine)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(status.Session{
		Trend:  logic.TrendPositive,
		Crisis: logic.NewCrisisState(),
		Counts: logic.EventCounts{ButtonEntries: 5, VoiceEntries: 2},
	})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Trend != "positive" {
		t.Errorf("Trend: got %q, want positive", sj.Status.Trend)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Button != 5 || sj.Status.Counts.Voice != 2 {
		t.Errorf("Counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.TickMs != 1000 {
		t.Errorf("Config.TickMs: got %d, want 1000", sj.Status.Config.TickMs)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(status.Session{
		Trend:  logic.TrendNegative,
		Crisis: logic.CrisisState{Level: logic.CrisisMild},
		Pet:    logic.NewPet(logic.DefaultPetStats).Snapshot(),
		Recent: []logic.MoodEntry{{Mood: logic.MoodSad, Value: 2, Emoji: "😔", Source: logic.ModalityVoice}},
	})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"sess-1", `class="negative"`, "crisis-mild", "😔 sad (2)", "Buddy"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestAPIDisabledWithoutEngine(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp := post(t, ts.URL+"/api/mood", `{"mood":"happy"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, nil)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.Crisis.Level != logic.CrisisNone {
		t.Errorf("expected no crisis initially, got %q", sj1.Status.Crisis.Level)
	}

	tr.Update(status.Session{Crisis: logic.CrisisState{Level: logic.CrisisSevere}})
	tr.SetMQTTConnected(true)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if sj2.Status.Crisis.Level != logic.CrisisSevere {
		t.Errorf("Crisis: got %q, want severe", sj2.Status.Crisis.Level)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func TestMoodAPI(t *testing.T) {
	eng := newFakeEngine()
	ts, _ := newTestServer(t, eng)

	resp := post(t, ts.URL+"/api/mood", `{"mood":"Anxious"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got MoodResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, logic.MoodAnxious, got.Entry.Mood)
	assert.Equal(t, 3, got.Entry.Value)
	assert.Equal(t, []logic.Mood{logic.MoodAnxious}, eng.chosen)

	resp = post(t, ts.URL+"/api/mood", `{"mood":"elated"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/api/mood", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMoodAPIEngineStopped(t *testing.T) {
	eng := newFakeEngine()
	eng.err = session.ErrStopped
	ts, _ := newTestServer(t, eng)

	resp := post(t, ts.URL+"/api/mood", `{"mood":"happy"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMessageAPI(t *testing.T) {
	eng := newFakeEngine()
	ts, _ := newTestServer(t, eng)

	resp := post(t, ts.URL+"/api/message", `{"text":"I feel hopeless and want to die"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var got MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, logic.CrisisSevere, got.CrisisLevel)

	resp = post(t, ts.URL+"/api/message", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPetAPI(t *testing.T) {
	eng := newFakeEngine()
	ts, _ := newTestServer(t, eng)

	resp := post(t, ts.URL+"/api/pet/feed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got PetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.OK)
	assert.Equal(t, 0, got.Stats.Hunger)

	// Failed precondition is still a 200 with ok=false.
	resp = post(t, ts.URL+"/api/pet/feed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = PetResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.False(t, got.OK)
	assert.Equal(t, "🍎 Buddy is already full!", got.Message)

	resp = post(t, ts.URL+"/api/pet/juggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, eng.actions, 2)
}

func TestDismissAndBreathingAPI(t *testing.T) {
	eng := newFakeEngine()
	ts, _ := newTestServer(t, eng)

	resp := post(t, ts.URL+"/api/crisis/dismiss", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got DismissResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Dismissed)

	resp = post(t, ts.URL+"/api/breathing", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, eng.breathe)
}

func TestAPIRejectsWrongMethod(t *testing.T) {
	ts, _ := newTestServer(t, newFakeEngine())

	resp, err := http.Get(ts.URL + "/api/mood")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAdapterWebsocketFeedsEngine(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	start := time.Now()
	tr := status.NewTracker(start, "sess-ws", testConfig())
	eng := session.New(session.Options{SessionID: "sess-ws", Publisher: pub, Tracker: tr})
	ctx, cancel := context.WithCancel(context.Background())
	go eng.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-eng.Done()
	})

	srv := New(":0", tr, eng)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/adapter/video"), nil)
	require.NoError(t, err)

	waitFor(t, "video active", func() bool {
		return tr.Snapshot().Modalities[logic.ModalityVideo].State == status.ModalityActive
	})
	assert.Equal(t, 1, srv.Adapters())

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "sample", "emotion": "happy", "confidence": 0.9}))
	waitFor(t, "video entry", func() bool { return len(pub.OfType(logic.EventMoodEntry)) == 1 })
	entry := pub.OfType(logic.EventMoodEntry)[0].Entry
	assert.Equal(t, logic.ModalityVideo, entry.Source)
	assert.Equal(t, logic.MoodHappy, entry.Mood)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitFor(t, "video idle", func() bool {
		return tr.Snapshot().Modalities[logic.ModalityVideo].State == status.ModalityIdle
	})
	waitFor(t, "adapter released", func() bool { return srv.Adapters() == 0 })
}

func TestAdapterWebsocketUnknownModality(t *testing.T) {
	ts, _ := newTestServer(t, newFakeEngine())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/adapter/button"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShutdownClosesAdapters(t *testing.T) {
	eng := newFakeEngine()
	tr := status.NewTracker(time.Now(), "sess", testConfig())
	srv := New(":0", tr, eng)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/adapter/voice"), nil)
	require.NoError(t, err)
	defer conn.Close()
	waitFor(t, "adapter registered", func() bool { return srv.Adapters() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server should have closed the adapter connection")
	waitFor(t, "adapter released", func() bool { return srv.Adapters() == 0 })
}

package adapter

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/moodfuse/internal/logic"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestParseFrameDefaultsToSample(t *testing.T) {
	f, err := ParseFrame([]byte(`{"emotion":"happy","confidence":0.9}`))
	require.NoError(t, err)
	assert.Equal(t, FrameSample, f.Type)

	_, err = ParseFrame([]byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestDecode(t *testing.T) {
	f := Frame{Type: FrameSample, Emotion: " Happy ", Confidence: 0.85}
	s, err := Decode(logic.ModalityVoice, f, now)
	require.NoError(t, err)
	assert.Equal(t, "happy", s.Label)
	assert.Equal(t, 0.85, s.Confidence)
	assert.True(t, s.Time.Equal(now))
}

func TestDecodeIgnoresAdapterClock(t *testing.T) {
	for _, skew := range []time.Duration{time.Hour, -6 * time.Second, -24 * time.Hour} {
		raw, _ := json.Marshal(map[string]any{
			"emotion":    "sad",
			"confidence": 0.9,
			"timestamp":  now.Add(skew).UnixMilli(),
		})
		f, err := ParseFrame(raw)
		require.NoError(t, err)

		s, err := Decode(logic.ModalityVideo, f, now)
		require.NoError(t, err)
		assert.True(t, s.Time.Equal(now), "skew %v: got %v, want receive time", skew, s.Time)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name     string
		modality logic.Modality
		frame    Frame
		want     error
	}{
		{"button modality", logic.ModalityButton, Frame{Type: FrameSample, Emotion: "happy", Confidence: 1}, ErrNotStreaming},
		{"confidence above one", logic.ModalityVoice, Frame{Type: FrameSample, Emotion: "happy", Confidence: 1.2}, ErrInvalidFrame},
		{"negative confidence", logic.ModalityVideo, Frame{Type: FrameSample, Emotion: "sad", Confidence: -0.1}, ErrInvalidFrame},
		{"missing emotion", logic.ModalityVideo, Frame{Type: FrameSample, Confidence: 0.9}, ErrInvalidFrame},
		{"not a sample", logic.ModalityVideo, Frame{Type: FrameNoFace}, ErrInvalidFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.modality, tt.frame, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type fakeHandle struct{ closed int }

func (h *fakeHandle) Close() error {
	h.closed++
	return nil
}

func TestAcquireReleasesOnce(t *testing.T) {
	h := &fakeHandle{}
	got, release, err := Acquire(logic.ModalityVideo, func() (*fakeHandle, error) { return h, nil })
	require.NoError(t, err)
	assert.Same(t, h, got)

	release()
	release()
	assert.Equal(t, 1, h.closed)
}

func TestAcquireWrapsInitError(t *testing.T) {
	cause := errors.New("no camera found")
	_, release, err := Acquire(logic.ModalityVideo, func() (*fakeHandle, error) { return nil, cause })
	require.Error(t, err)
	release()

	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, logic.ModalityVideo, initErr.Modality)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "video unavailable")
}

type recordingSink struct {
	calls   []string
	samples []logic.EmotionSample
	errs    []error
}

func (s *recordingSink) AdapterAttached(m logic.Modality) { s.calls = append(s.calls, "attached") }
func (s *recordingSink) SubmitSample(m logic.Modality, e logic.EmotionSample) {
	s.calls = append(s.calls, "sample")
	s.samples = append(s.samples, e)
}
func (s *recordingSink) ResetModality(m logic.Modality) { s.calls = append(s.calls, "reset") }
func (s *recordingSink) AdapterFailed(m logic.Modality, err error) {
	s.calls = append(s.calls, "failed")
	s.errs = append(s.errs, err)
}
func (s *recordingSink) AdapterDetached(m logic.Modality) { s.calls = append(s.calls, "detached") }

type scriptedReader struct {
	frames []string
}

func (r *scriptedReader) ReadJSON(v any) error {
	if len(r.frames) == 0 {
		return io.EOF
	}
	next := r.frames[0]
	r.frames = r.frames[1:]
	return json.Unmarshal([]byte(next), v)
}

func TestServe(t *testing.T) {
	r := &scriptedReader{frames: []string{
		`{"type":"sample","emotion":"sad","confidence":0.8}`,
		`{"type":"sample","emotion":"sad","confidence":7}`,
		`{"type":"no_face"}`,
		`{"type":"error","error":"microphone busy"}`,
		`{"emotion":"happy","confidence":0.9,"history":[{"emotion":"sad","confidence":0.7,"timestamp":1}]}`,
	}}
	sink := &recordingSink{}

	err := Serve(logic.ModalityVoice, r, sink, func() time.Time { return now })
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"attached", "sample", "reset", "failed", "sample", "detached"}, sink.calls)
	require.Len(t, sink.samples, 2)
	assert.Equal(t, "sad", sink.samples[0].Label)
	assert.Equal(t, "happy", sink.samples[1].Label)

	var initErr *InitError
	require.True(t, errors.As(sink.errs[0], &initErr))
	assert.Equal(t, "microphone busy", initErr.Cause.Error())
}

func TestServeRejectsButton(t *testing.T) {
	sink := &recordingSink{}
	err := Serve(logic.ModalityButton, &scriptedReader{}, sink, time.Now)
	assert.ErrorIs(t, err, ErrNotStreaming)
	assert.Empty(t, sink.calls)
}

// Package adapter decodes frames from voice and video classifier processes
// and feeds them to the session.
package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sweeney/moodfuse/internal/logic"
)

// FrameType tags an adapter frame.
type FrameType string

const (
	FrameSample FrameType = "sample"
	FrameNoFace FrameType = "no_face"
	FrameError  FrameType = "error"
)

// Frame is the JSON message an adapter sends. Other fields adapters send,
// such as their own timestamp or classification history, are ignored.
type Frame struct {
	Type       FrameType `json:"type"`
	Emotion    string    `json:"emotion,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ErrInvalidFrame is returned for frames that cannot become a sample.
var ErrInvalidFrame = errors.New("adapter: invalid frame")

// ErrNotStreaming is returned for modalities that have no adapter.
var ErrNotStreaming = errors.New("adapter: modality does not stream")

// InitError means a modality's model, camera or microphone is unavailable.
// Only that modality is disabled.
type InitError struct {
	Modality logic.Modality
	Cause    error
}

// Error implements the error interface.
func (e *InitError) Error() string {
	return fmt.Sprintf("adapter %s unavailable: %v", e.Modality, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InitError) Unwrap() error {
	return e.Cause
}

// Streaming reports whether m is produced by an adapter process.
func Streaming(m logic.Modality) bool {
	return m == logic.ModalityVoice || m == logic.ModalityVideo
}

// ParseFrame decodes a raw frame. A missing type means "sample".
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if f.Type == "" {
		f.Type = FrameSample
	}
	return f, nil
}

// Decode turns a sample frame into an EmotionSample stamped with the receive
// time now, so window ageing never depends on the adapter's clock.
// Confidence must lie in [0,1].
func Decode(m logic.Modality, f Frame, now time.Time) (logic.EmotionSample, error) {
	if !Streaming(m) {
		return logic.EmotionSample{}, fmt.Errorf("%w: %s", ErrNotStreaming, m)
	}
	if f.Type != FrameSample {
		return logic.EmotionSample{}, fmt.Errorf("%w: type %q is not a sample", ErrInvalidFrame, f.Type)
	}
	label := strings.ToLower(strings.TrimSpace(f.Emotion))
	if label == "" {
		return logic.EmotionSample{}, fmt.Errorf("%w: missing emotion", ErrInvalidFrame)
	}
	if math.IsNaN(f.Confidence) || f.Confidence < 0 || f.Confidence > 1 {
		return logic.EmotionSample{}, fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidFrame, f.Confidence)
	}
	return logic.EmotionSample{Label: label, Confidence: f.Confidence, Time: now}, nil
}

package adapter

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
)

// Handle is an acquired camera, microphone or adapter connection.
type Handle interface {
	Close() error
}

// Acquire opens a handle and returns it with a release func that is safe to
// call more than once. An open failure is returned as *InitError.
func Acquire[H Handle](m logic.Modality, open func() (H, error)) (H, func(), error) {
	h, err := open()
	if err != nil {
		var zero H
		var initErr *InitError
		if errors.As(err, &initErr) {
			return zero, func() {}, err
		}
		return zero, func() {}, &InitError{Modality: m, Cause: err}
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := h.Close(); err != nil {
				log.Debug("adapter release", "modality", m, "error", err)
			}
		})
	}
	return h, release, nil
}

// Sink receives decoded adapter traffic. The session engine implements it.
type Sink interface {
	AdapterAttached(m logic.Modality)
	SubmitSample(m logic.Modality, s logic.EmotionSample)
	ResetModality(m logic.Modality)
	AdapterFailed(m logic.Modality, err error)
	AdapterDetached(m logic.Modality)
}

// FrameReader reads one JSON message. *websocket.Conn satisfies it.
type FrameReader interface {
	ReadJSON(v any) error
}

// Serve reads frames until r fails, forwarding them to sink. Invalid frames
// are logged and skipped. The sink sees AdapterAttached first and
// AdapterDetached last.
func Serve(m logic.Modality, r FrameReader, sink Sink, now func() time.Time) error {
	if !Streaming(m) {
		return ErrNotStreaming
	}
	sink.AdapterAttached(m)
	defer sink.AdapterDetached(m)

	for {
		var raw json.RawMessage
		if err := r.ReadJSON(&raw); err != nil {
			return err
		}
		f, err := ParseFrame(raw)
		if err != nil {
			log.Warn("adapter frame dropped", "modality", m, "error", err)
			continue
		}
		switch f.Type {
		case FrameNoFace:
			sink.ResetModality(m)
		case FrameError:
			sink.AdapterFailed(m, &InitError{Modality: m, Cause: errors.New(f.Error)})
		default:
			s, err := Decode(m, f, now())
			if err != nil {
				log.Warn("adapter frame dropped", "modality", m, "error", err)
				continue
			}
			sink.SubmitSample(m, s)
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/moodfuse/internal/chat"
	"github.com/sweeney/moodfuse/internal/config"
	"github.com/sweeney/moodfuse/internal/gpio"
	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/mqtt"
	"github.com/sweeney/moodfuse/internal/session"
	"github.com/sweeney/moodfuse/internal/status"
	"github.com/sweeney/moodfuse/internal/web"
)

const shutdownTimeout = 5 * time.Second

// daemon holds the process-wide collaborators of one session.
type daemon struct {
	cfg       *config.Config
	sessionID string
	wsBroker  string
	publisher mqtt.Publisher
	chat      session.ChatClient
	reader    gpio.Reader // nil without a button panel
	now       func() time.Time
}

// newDaemon wires the real broker, backend and GPIO for cfg.
// A panel that fails to open is logged and skipped; the web API still
// accepts button choices.
func newDaemon(cfg *config.Config) *daemon {
	d := &daemon{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		wsBroker:  resolveWSBroker(cfg.WSBroker, cfg.Broker),
		now:       time.Now,
	}

	topics := mqtt.TopicsFor(cfg.TopicPrefix)
	if cfg.Broker != "" {
		d.publisher = mqtt.NewRealPublisher(cfg.Broker, "moodfuse-"+d.sessionID[:8], topics)
	} else {
		log.Info("no broker configured, events are not published")
		d.publisher = mqtt.NopPublisher{}
	}

	if cfg.BackendURL != "" {
		d.chat = chat.NewClient(cfg.BackendURL, d.sessionID, cfg.BackendTimeout())
	} else {
		log.Info("no backend configured, chat replies disabled")
	}

	if cfg.GPIOChip != "" {
		r, err := gpio.NewRealReader(cfg.GPIOChip, cfg.GPIOPins)
		if err != nil {
			log.Warn("button panel unavailable", "chip", cfg.GPIOChip, "error", err)
		} else {
			d.reader = r
		}
	}
	return d
}

func (d *daemon) statusConfig() status.Config {
	return status.Config{
		UserName:    d.cfg.UserName,
		BackendURL:  d.cfg.BackendURL,
		TickMs:      d.cfg.Tick().Milliseconds(),
		DecayMs:     d.cfg.DecayInterval().Milliseconds(),
		NudgeMs:     d.cfg.NudgeDelay().Milliseconds(),
		HeartbeatMs: d.cfg.Heartbeat().Milliseconds(),
		Broker:      d.cfg.Broker,
		HTTPAddr:    d.cfg.HTTPAddr,
		WSBroker:    d.wsBroker,
		EventsTopic: mqtt.TopicsFor(d.cfg.TopicPrefix).Events,
		GPIOChip:    d.cfg.GPIOChip,
	}
}

// run starts the session and blocks until a signal arrives on sig or a
// component fails. STARTUP and SHUTDOWN are published around it.
func (d *daemon) run(sig <-chan os.Signal) error {
	defer d.publisher.Close()
	if d.reader != nil {
		defer d.reader.Close()
	}

	tracker := status.NewTracker(d.now(), d.sessionID, d.statusConfig())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	engine := session.New(session.Options{
		SessionID:     d.sessionID,
		UserName:      d.cfg.UserName,
		Fusion:        d.cfg.Fusion(),
		Tick:          d.cfg.Tick(),
		DecayInterval: d.cfg.DecayInterval(),
		NudgeDelay:    d.cfg.NudgeDelay(),
		FollowUpDelay: d.cfg.BreathingFollowup(),
		Heartbeat:     d.cfg.Heartbeat(),
		Chat:          d.chat,
		Publisher:     d.publisher,
		Tracker:       tracker,
		Now:           d.now,
	})

	d.publishSystem(tracker, "STARTUP", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gctx)
	})

	if d.cfg.HTTPAddr != "" {
		srv := web.New(d.cfg.HTTPAddr, tracker, engine)
		g.Go(func() error {
			log.Info("http server listening", "addr", d.cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	if d.reader != nil {
		g.Go(func() error {
			ticker := time.NewTicker(d.cfg.GPIOPoll())
			defer ticker.Stop()
			return gpio.Watch(gctx, d.reader, d.cfg.GPIODebounce(), ticker.C, func(m logic.Mood) {
				if _, err := engine.Choose(gctx, m); err != nil && !errors.Is(err, session.ErrStopped) {
					log.Warn("button choice failed", "mood", m, "error", err)
				}
			}, func() {
				tracker.SetButtonsBaselined(true)
			})
		})
	}

	log.Info("started",
		"session", d.sessionID,
		"broker", d.cfg.Broker,
		"backend", d.cfg.BackendURL,
		"buttons", d.reader != nil,
		"heartbeat", d.cfg.Heartbeat())

	var reason string
	g.Go(func() error {
		select {
		case s := <-sig:
			reason = signalName(s)
			log.Info("shutting down", "signal", reason)
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err := g.Wait()
	if err != nil && reason == "" {
		reason = "ERROR"
	}
	d.publishSystem(tracker, "SHUTDOWN", reason)
	return err
}

func (d *daemon) publishSystem(tracker *status.Tracker, event, reason string) {
	if cs, ok := d.publisher.(mqtt.ConnectionStatus); ok {
		tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := tracker.Snapshot()
	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Warn("publish system event failed", "event", event, "error", err)
		return
	}
	log.Info("published system event", "event", event)
}

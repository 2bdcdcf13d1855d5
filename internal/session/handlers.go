package session

import (
	"context"
	"time"

	"github.com/sweeney/moodfuse/internal/chat"
	"github.com/sweeney/moodfuse/internal/log"
	"github.com/sweeney/moodfuse/internal/logic"
	"github.com/sweeney/moodfuse/internal/mqtt"
	"github.com/sweeney/moodfuse/internal/status"
)

// Every method in this file runs on the Run goroutine.

func (e *Engine) onSample(m logic.Modality, s logic.EmotionSample, now time.Time) {
	if reason, off := e.disabled[m]; off {
		log.Debug("sample from disabled modality", "modality", m, "reason", reason)
		return
	}
	entry, emotion, verdict := e.fuser.Accept(m, s, now)
	e.opts.Tracker.SetBuffered(m, e.fuser.Buffered(m))

	switch verdict {
	case logic.VerdictAccepted:
		log.Info("fused mood", "modality", m, "emotion", emotion, "confidence", entry.Confidence)
		e.appendEntry(entry, logic.Acknowledgment(m, emotion, entry), now)
	case logic.VerdictUnsupported:
		log.Warn("sample for unsupported modality", "modality", m)
	default:
		log.Debug("sample held", "modality", m, "label", s.Label, "confidence", s.Confidence, "verdict", verdict)
	}
}

func (e *Engine) onChoose(mood logic.Mood, now time.Time) (logic.MoodEntry, error) {
	info := logic.ChoiceInfo(mood)
	entry := logic.MoodEntry{
		Mood:      info.Mood,
		Value:     info.Value,
		Emoji:     info.Emoji,
		Timestamp: now,
		Source:    logic.ModalityButton,
		RawText:   "Selected: " + string(info.Mood),
	}
	entry, err := e.appendEntry(entry, logic.Acknowledgment(logic.ModalityButton, "", entry), now)
	if err == nil {
		log.Info("mood chosen", "mood", entry.Mood)
	}
	return entry, err
}

// appendEntry runs the ledger pipeline: append, trend, acknowledgment, pet, nudge.
func (e *Engine) appendEntry(entry logic.MoodEntry, ack string, now time.Time) (logic.MoodEntry, error) {
	entry.ID = e.newID(now)
	if err := e.ledger.Append(entry); err != nil {
		log.Error("ledger append", "error", err, "value", entry.Value)
		return logic.MoodEntry{}, err
	}
	e.counts.CountEntry(entry.Source)
	e.publish(logic.Event{Timestamp: now, Type: logic.EventMoodEntry, Entry: &entry})

	if trend := e.ledger.Trend(); trend != e.trend {
		log.Info("trend changed", "from", e.trend, "to", trend)
		e.trend = trend
		e.publish(logic.Event{Timestamp: now, Type: logic.EventTrendChanged, Trend: trend})
	}

	e.emit(logic.Message{Kind: logic.KindAck, Text: ack, Timestamp: now, Source: entry.Source}, now)

	before := e.pet.Snapshot().State
	e.pet.ApplyMood(logic.PetClassForEmoji(entry.Emoji))
	e.publishPet(now, before)

	e.evaluateNudge(now)
	e.sync()
	return entry, nil
}

func (e *Engine) onMessage(text string, now time.Time) logic.CrisisLevel {
	if e.nudge.Interrupt() == logic.NudgeCancelled {
		e.publish(logic.Event{Timestamp: now, Type: logic.EventNudgeCancelled, Detail: "user message"})
	}

	level := logic.Scan(text)
	msg := logic.Message{Kind: logic.KindUser, Text: text, Timestamp: now, CrisisLevel: level}
	e.transcript.Append(msg)
	e.publish(logic.Event{Timestamp: now, Type: logic.EventMessage, Message: &msg})

	if level != logic.CrisisNone {
		e.counts.CrisisDetections++
		log.Warn("crisis keywords detected", "level", level)
		detected := logic.CrisisState{Level: level, DetectedAt: now, Trigger: text}
		e.publish(logic.Event{Timestamp: now, Type: logic.EventCrisisDetected, Crisis: &detected})
		if e.crisis.Observe(level, text, now) {
			e.publishCrisis(now)
		}
	}

	switch {
	case logic.WantsBreathing(text):
		e.onBreathing(now)
	case e.opts.Chat == nil:
		log.Debug("no backend configured, message not sent")
	default:
		e.dispatch(text)
	}
	e.sync()
	return level
}

// dispatch starts a backend request. A newer request cancels the older one.
func (e *Engine) dispatch(text string) {
	if e.chatCancel != nil {
		e.chatCancel()
	}
	e.chatSeq++
	seq := e.chatSeq
	ctx, cancel := context.WithCancel(e.runCtx)
	e.chatCancel = cancel

	req := chat.Request{
		Message:      text,
		UserName:     e.opts.UserName,
		MoodHistory:  e.ledger.Tail(logic.BackendTail),
		MessageCount: e.transcript.UserMessages(),
		CrisisLevel:  e.crisis.Level,
	}

	e.chatWG.Add(1)
	go func() {
		defer e.chatWG.Done()
		resp, err := e.opts.Chat.Send(ctx, req)
		fn := func(now time.Time) { e.onReply(seq, text, resp, err, now) }
		select {
		case e.cmds <- fn:
		case <-e.runCtx.Done():
		}
	}()
}

func (e *Engine) onReply(seq uint64, text string, resp chat.Response, err error, now time.Time) {
	if seq != e.chatSeq {
		log.Debug("stale reply dropped", "seq", seq, "current", e.chatSeq)
		return
	}
	if e.chatCancel != nil {
		e.chatCancel()
		e.chatCancel = nil
	}

	if err != nil {
		kind := chat.Classify(err)
		if kind == chat.KindCanceled {
			log.Debug("chat request canceled")
			return
		}
		log.Warn("chat request failed", "kind", kind, "error", err)
		e.emit(logic.Message{Kind: logic.KindError, Text: chat.UserMessage(kind, e.opts.UserName), Timestamp: now}, now)
		e.evaluateNudge(now)
		e.sync()
		return
	}

	e.emit(logic.Message{
		Kind:         logic.KindReply,
		Text:         resp.Response,
		Timestamp:    now,
		Model:        resp.Model,
		ResponseTime: resp.ResponseTime,
	}, now)
	if resp.IsCrisis && e.crisis.RaiseFromBackend(text, now) {
		e.counts.CrisisDetections++
		log.Warn("backend flagged crisis", "level", e.crisis.Level)
		e.publishCrisis(now)
	}
	e.evaluateNudge(now)
	e.sync()
}

func (e *Engine) onBreathing(now time.Time) {
	e.emit(logic.Message{Kind: logic.KindBreathing, Text: logic.BreathingText, Timestamp: now}, now)
	e.followUp.Arm(now, e.opts.FollowUpDelay)
	e.evaluateNudge(now)
	e.sync()
}

func (e *Engine) onDismiss(now time.Time) bool {
	if !e.crisis.Dismiss() {
		return false
	}
	log.Info("crisis dismissed")
	c := e.crisis
	e.publish(logic.Event{Timestamp: now, Type: logic.EventCrisisDismissed, Crisis: &c})
	e.sync()
	return true
}

func (e *Engine) onPetAction(a logic.PetAction, now time.Time) (logic.ActionResult, error) {
	before := e.pet.Snapshot().State
	res, err := e.pet.Do(a)
	if err != nil {
		return res, err
	}
	if res.OK {
		e.counts.PetActions++
	}
	snap := e.pet.Snapshot()
	e.publish(logic.Event{Timestamp: now, Type: logic.EventPetFeedback, Pet: &snap, Detail: res.Message})
	if res.OK {
		e.publishPet(now, before)
	}
	e.sync()
	return res, nil
}

func (e *Engine) onAttached(m logic.Modality, now time.Time) {
	e.attached[m]++
	if _, off := e.disabled[m]; off {
		log.Info("modality re-enabled", "modality", m)
		delete(e.disabled, m)
	}
	e.setModality(m, status.ModalityActive, "", now)
}

func (e *Engine) onFailed(m logic.Modality, err error, now time.Time) {
	log.Warn("modality disabled", "modality", m, "error", err)
	e.disabled[m] = err.Error()
	e.fuser.Reset(m)
	e.setModality(m, status.ModalityDisabled, err.Error(), now)
}

func (e *Engine) onDetached(m logic.Modality, now time.Time) {
	if e.attached[m] > 0 {
		e.attached[m]--
	}
	if e.attached[m] > 0 {
		return
	}
	e.fuser.Reset(m)
	if reason, off := e.disabled[m]; off {
		e.setModality(m, status.ModalityDisabled, reason, now)
		return
	}
	e.setModality(m, status.ModalityIdle, "", now)
}

func (e *Engine) onReset(m logic.Modality) {
	e.fuser.Reset(m)
	e.opts.Tracker.SetBuffered(m, 0)
}

func (e *Engine) setModality(m logic.Modality, state status.ModalityState, reason string, now time.Time) {
	e.opts.Tracker.SetModality(m, status.ModalityStatus{
		State:    state,
		Reason:   reason,
		Buffered: e.fuser.Buffered(m),
		Since:    now,
	})
	detail := string(state)
	if reason != "" {
		detail += ": " + reason
	}
	e.publish(logic.Event{Timestamp: now, Type: logic.EventModalityChanged, Modality: m, Detail: detail})
}

func (e *Engine) onTick(now time.Time) {
	e.fuser.Expire(now)
	for _, m := range logic.AllModalities {
		e.opts.Tracker.SetBuffered(m, e.fuser.Buffered(m))
	}

	if e.nudge.Poll(now) == logic.NudgeFired {
		e.counts.NudgesSent++
		log.Info("nudge sent")
		e.emit(logic.Message{
			Kind:      logic.KindNudge,
			Text:      logic.NudgeText(e.opts.UserName),
			Timestamp: now,
			Breathing: true,
		}, now)
	}

	if e.followUp.Fire(now) {
		e.emit(logic.Message{Kind: logic.KindFollowUp, Text: logic.FollowUpText, Timestamp: now}, now)
		e.evaluateNudge(now)
	}

	if now.Sub(e.lastDecay) >= e.opts.DecayInterval {
		e.lastDecay = now
		before := e.pet.Snapshot().State
		e.pet.Decay()
		e.publishPet(now, before)
	}

	e.refreshMQTT()
	e.sync()

	if e.opts.Heartbeat > 0 && now.Sub(e.lastBeat) >= e.opts.Heartbeat {
		e.lastBeat = now
		snap := e.opts.Tracker.Snapshot()
		e.publishSystem(mqtt.SystemEvent{
			Timestamp:  now,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			Retained:   true,
		})
	}
}

func (e *Engine) evaluateNudge(now time.Time) {
	cond := logic.NudgeCondition(e.ledger.Tail(logic.NudgeRunLength), e.transcript.LastOutbound())
	switch e.nudge.Evaluate(now, cond) {
	case logic.NudgeScheduled:
		log.Debug("nudge scheduled", "due", e.nudge.Due())
		e.publish(logic.Event{Timestamp: now, Type: logic.EventNudgeScheduled, Detail: e.nudge.Due().UTC().Format(time.RFC3339)})
	case logic.NudgeCancelled:
		log.Debug("nudge cancelled")
		e.publish(logic.Event{Timestamp: now, Type: logic.EventNudgeCancelled})
	}
}

// emit appends an outbound message and publishes it.
func (e *Engine) emit(msg logic.Message, now time.Time) {
	e.transcript.Append(msg)
	e.publish(logic.Event{Timestamp: now, Type: logic.EventMessage, Message: &msg})
}

// publishPet publishes the stats and, when the state moved away from
// before, a state change. An empty before only publishes stats.
func (e *Engine) publishPet(now time.Time, before logic.PetState) {
	snap := e.pet.Snapshot()
	e.publish(logic.Event{Timestamp: now, Type: logic.EventPetStats, Pet: &snap})
	if before != "" && snap.State != before {
		log.Info("pet state changed", "from", before, "to", snap.State)
		e.publish(logic.Event{Timestamp: now, Type: logic.EventPetStateChanged, Pet: &snap, Detail: string(before)})
	}
}

func (e *Engine) publishCrisis(now time.Time) {
	c := e.crisis
	e.publish(logic.Event{Timestamp: now, Type: logic.EventCrisisChanged, Crisis: &c})
}

func (e *Engine) publish(ev logic.Event) {
	if err := e.opts.Publisher.Publish(ev); err != nil {
		log.Warn("publish failed", "event", ev.Type, "error", err)
	}
}

func (e *Engine) publishSystem(ev mqtt.SystemEvent) {
	if err := e.opts.Publisher.PublishSystem(ev); err != nil {
		log.Warn("publish failed", "event", ev.Event, "error", err)
	}
}

type bufferedPublisher interface {
	Buffered() int
}

func (e *Engine) refreshMQTT() {
	if cs, ok := e.opts.Publisher.(mqtt.ConnectionStatus); ok {
		e.opts.Tracker.SetMQTTConnected(cs.IsConnected())
	}
	if bp, ok := e.opts.Publisher.(bufferedPublisher); ok {
		e.opts.Tracker.SetMQTTBuffered(bp.Buffered())
	}
}

// sync copies the session state into the tracker.
func (e *Engine) sync() {
	e.opts.Tracker.Update(status.Session{
		Trend:        e.trend,
		Crisis:       e.crisis,
		Pet:          e.pet.Snapshot(),
		Ledger:       e.ledger.Stats(),
		Recent:       e.ledger.Tail(logic.DisplayTail),
		Transcript:   e.transcript.Tail(logic.DisplayTail),
		NudgePending: e.nudge.Pending(),
		FollowUpDue:  e.followUp.Pending(),
		Counts:       e.counts,
	})
}

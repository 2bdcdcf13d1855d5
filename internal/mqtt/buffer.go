package mqtt

import "github.com/sweeney/moodfuse/internal/log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable.
//
// A retained message replaces any buffered retained message on the same
// topic, since the broker would only keep the last one. When full, the
// oldest session event is dropped first; retained status messages are only
// dropped when nothing else is left.
// Not safe for concurrent use; RealPublisher holds its mutex.
type outbox struct {
	msgs      []bufferedMsg
	capacity  int
	overflow  bool // a message was dropped since the last drain
	dropped   int
	coalesced int
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		for i, m := range o.msgs {
			if m.retained && m.topic == msg.topic {
				o.remove(i)
				o.coalesced++
				break
			}
		}
	}
	if len(o.msgs) == o.capacity {
		if !o.overflow {
			log.Warn("mqtt outbox full, dropping oldest event", "capacity", o.capacity)
			o.overflow = true
		}
		o.remove(o.victim())
		o.dropped++
	}
	o.msgs = append(o.msgs, msg)
}

// victim is the index to evict: the oldest non-retained message, else the
// oldest message.
func (o *outbox) victim() int {
	for i, m := range o.msgs {
		if !m.retained {
			return i
		}
	}
	return 0
}

func (o *outbox) remove(i int) {
	copy(o.msgs[i:], o.msgs[i+1:])
	o.msgs = o.msgs[:len(o.msgs)-1]
}

// drainAll returns the buffered messages oldest first and empties the outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]
	o.overflow = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}

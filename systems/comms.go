package systems

import (
	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

// envelope wraps a message with the set of agents that already applied it.
type envelope struct {
	msg        components.Message
	receivedBy map[uint32]struct{}
}

// Bus propagates range-limited messages between agents.
// Expired messages are pruned lazily on each delivery pass.
type Bus struct {
	cfg    *config.CommsConfig
	queue  []envelope
	nextID uint64

	sent      uint64
	delivered uint64
}

// NewBus creates an empty bus.
func NewBus(cfg *config.CommsConfig) *Bus {
	return &Bus{cfg: cfg}
}

// Broadcast appends a message from sender at time now (ms).
func (b *Bus) Broadcast(sender *components.Agent, typ components.MessageType, payload components.Payload, now int64) components.Message {
	b.nextID++
	msg := components.Message{
		ID:        b.nextID,
		Sender:    sender.ID,
		SenderPos: sender.Pos,
		Type:      typ,
		Payload:   payload,
		Timestamp: now,
		Range:     float32(b.cfg.Range),
	}
	b.queue = append(b.queue, envelope{msg: msg})
	if limit := b.cfg.MaxMessages; limit > 0 && len(b.queue) > limit {
		b.queue = append(b.queue[:0], b.queue[len(b.queue)-limit:]...)
	}
	b.sent++
	return msg
}

func (b *Bus) live(m *components.Message, now int64) bool {
	return m.Age(now) < b.cfg.TTLMs
}

func inRange(m *components.Message, a *components.Agent) bool {
	return m.SenderPos.DistSq(a.Pos) <= m.Range*m.Range
}

// Deliverable returns every non-expired message sent from within range of
// the agent, excluding its own.
func (b *Bus) Deliverable(a *components.Agent, now int64) []components.Message {
	var out []components.Message
	for i := range b.queue {
		m := &b.queue[i].msg
		if m.Sender == a.ID || !b.live(m, now) || !inRange(m, a) {
			continue
		}
		out = append(out, *m)
	}
	return out
}

// Deliver prunes expired messages, then applies each deliverable message to
// each live agent at most once. Returns the number of applications.
func (b *Bus) Deliver(agents []*components.Agent, now int64) int {
	b.prune(now)

	applied := 0
	for i := range b.queue {
		env := &b.queue[i]
		for _, a := range agents {
			if !a.Alive() || a.ID == env.msg.Sender || !inRange(&env.msg, a) {
				continue
			}
			if _, done := env.receivedBy[a.ID]; done {
				continue
			}
			if env.receivedBy == nil {
				env.receivedBy = make(map[uint32]struct{}, 4)
			}
			env.receivedBy[a.ID] = struct{}{}
			b.apply(a, &env.msg)
			applied++
		}
	}
	b.delivered += uint64(applied)
	return applied
}

func (b *Bus) prune(now int64) {
	n := 0
	for _, env := range b.queue {
		if b.live(&env.msg, now) {
			b.queue[n] = env
			n++
		}
	}
	clear(b.queue[n:])
	b.queue = b.queue[:n]
}

// apply mutates the receiver according to the message type.
func (b *Bus) apply(a *components.Agent, m *components.Message) {
	switch m.Type {
	case components.MsgTargetSpotted:
		if !a.HasLastKnown || m.Timestamp > a.LastKnownAt {
			a.Remember(m.Payload.Pos, m.Timestamp)
		}
	case components.MsgUnderAttack:
		inc := m.Payload.Value
		if inc <= 0 {
			inc = float32(b.cfg.UnderAttackThreat)
		}
		a.PerceivedThreat = clamp01(a.PerceivedThreat + inc)
		if !a.HasLastKnown || m.Timestamp >= a.LastKnownAt {
			a.Remember(m.Payload.Pos, m.Timestamp)
		}
	case components.MsgNeedAssistance:
		if !a.Kind.SupportCapable() {
			return
		}
		a.Role = components.RoleSupport
		a.SetStrategicTarget(m.Payload.Pos)
	case components.MsgFormationCommand:
		a.Role = m.Payload.Role
	}
}

// Len returns the number of queued messages, including expired ones not yet pruned.
func (b *Bus) Len() int { return len(b.queue) }

// Stats returns totals of broadcasts and applications.
func (b *Bus) Stats() (sent, delivered uint64) { return b.sent, b.delivered }

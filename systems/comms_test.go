package systems

import (
	"testing"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
)

func newTestBus() *Bus {
	cfg := config.Default().Comms
	return NewBus(&cfg)
}

func agentAt(id uint32, arch components.Archetype, x, y float32) *components.Agent {
	a := components.NewAgent(id, arch, components.Position{X: x, Y: y}, testStats())
	return &a
}

func TestMessageTTL(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	receiver := agentAt(2, components.ArchetypeBaseline, 50, 0)

	bus.Broadcast(sender, components.MsgTargetSpotted, components.Payload{Pos: components.Position{X: 9, Y: 9}}, 1000)

	if got := bus.Deliverable(receiver, 5999); len(got) != 1 {
		t.Errorf("at age 4999: %d messages, want 1", len(got))
	}
	for _, now := range []int64{6000, 6001, 100000} {
		if got := bus.Deliverable(receiver, now); len(got) != 0 {
			t.Errorf("at age %d: %d messages, want 0", now-1000, len(got))
		}
	}
	if n := bus.Deliver([]*components.Agent{receiver}, 6000); n != 0 {
		t.Errorf("Deliver applied %d expired messages", n)
	}
	if bus.Len() != 0 {
		t.Errorf("expired message not pruned, Len = %d", bus.Len())
	}
	if receiver.HasLastKnown {
		t.Error("expired message updated receiver")
	}
}

func TestDeliverableRangeAndSelf(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	near := agentAt(2, components.ArchetypeBaseline, 100, 0)
	far := agentAt(3, components.ArchetypeBaseline, 1000, 0)

	bus.Broadcast(sender, components.MsgTargetSpotted, components.Payload{}, 0)

	if got := bus.Deliverable(sender, 10); len(got) != 0 {
		t.Errorf("sender received its own message")
	}
	if got := bus.Deliverable(near, 10); len(got) != 1 {
		t.Errorf("near agent got %d messages, want 1", len(got))
	}
	if got := bus.Deliverable(far, 10); len(got) != 0 {
		t.Errorf("far agent got %d messages, want 0", len(got))
	}
}

func TestDeliverAtMostOnce(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	receiver := agentAt(2, components.ArchetypeBaseline, 10, 0)
	agents := []*components.Agent{sender, receiver}

	bus.Broadcast(sender, components.MsgUnderAttack, components.Payload{Pos: components.Position{X: 5}}, 0)

	if n := bus.Deliver(agents, 10); n != 1 {
		t.Fatalf("first pass applied %d, want 1", n)
	}
	threat := receiver.PerceivedThreat
	if n := bus.Deliver(agents, 20); n != 0 {
		t.Errorf("second pass applied %d, want 0", n)
	}
	if receiver.PerceivedThreat != threat {
		t.Errorf("threat compounded: %v -> %v", threat, receiver.PerceivedThreat)
	}
}

func TestTargetSpottedOnlyIfNewer(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	receiver := agentAt(2, components.ArchetypeBaseline, 10, 0)
	own := components.Position{X: 500, Y: 500}
	receiver.Remember(own, 3000)

	bus.Broadcast(sender, components.MsgTargetSpotted, components.Payload{Pos: components.Position{X: 1, Y: 1}}, 2000)
	bus.Deliver([]*components.Agent{receiver}, 3500)
	if receiver.LastKnownTarget != own {
		t.Errorf("older report overwrote newer memory: %v", receiver.LastKnownTarget)
	}

	reported := components.Position{X: 2, Y: 2}
	bus.Broadcast(sender, components.MsgTargetSpotted, components.Payload{Pos: reported}, 4000)
	bus.Deliver([]*components.Agent{receiver}, 4100)
	if receiver.LastKnownTarget != reported || receiver.LastKnownAt != 4000 {
		t.Errorf("newer report not applied: %v @ %d", receiver.LastKnownTarget, receiver.LastKnownAt)
	}
}

func TestUnderAttackRaisesThreat(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	receiver := agentAt(2, components.ArchetypeBaseline, 10, 0)
	attacker := components.Position{X: 77, Y: 12}

	bus.Broadcast(sender, components.MsgUnderAttack, components.Payload{Pos: attacker}, 100)
	bus.Deliver([]*components.Agent{receiver}, 200)

	if receiver.PerceivedThreat <= 0 {
		t.Errorf("threat = %v, want > 0", receiver.PerceivedThreat)
	}
	if receiver.LastKnownTarget != attacker {
		t.Errorf("last known = %v, want attacker %v", receiver.LastKnownTarget, attacker)
	}
}

func TestNeedAssistanceSupportCapableOnly(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeFast, 0, 0)
	baseline := agentAt(2, components.ArchetypeBaseline, 10, 0)
	heavy := agentAt(3, components.ArchetypeHeavy, 20, 0)
	adaptive := agentAt(4, components.ArchetypeAdaptive, 30, 0)

	bus.Broadcast(sender, components.MsgNeedAssistance, components.Payload{Pos: sender.Pos}, 0)
	bus.Deliver([]*components.Agent{baseline, heavy, adaptive}, 10)

	for _, a := range []*components.Agent{baseline, adaptive} {
		if a.Role != components.RoleSupport || !a.HasStrategicTarget {
			t.Errorf("%v did not answer: role=%q", a.Archetype, a.Role)
		}
	}
	if heavy.Role == components.RoleSupport || heavy.HasStrategicTarget {
		t.Errorf("heavy answered need-assistance")
	}
}

func TestFormationCommandSetsRole(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeHeavy, 0, 0)
	receiver := agentAt(2, components.ArchetypeFast, 10, 0)

	bus.Broadcast(sender, components.MsgFormationCommand, components.Payload{Role: components.RoleHunter}, 0)
	bus.Deliver([]*components.Agent{receiver}, 1)
	if receiver.Role != components.RoleHunter {
		t.Errorf("role = %q, want hunter", receiver.Role)
	}
}

func TestDeadAgentsIgnored(t *testing.T) {
	bus := newTestBus()
	sender := agentAt(1, components.ArchetypeBaseline, 0, 0)
	dead := agentAt(2, components.ArchetypeBaseline, 10, 0)
	dead.Kill()

	bus.Broadcast(sender, components.MsgFormationCommand, components.Payload{Role: components.RoleHunter}, 0)
	if n := bus.Deliver([]*components.Agent{dead}, 1); n != 0 || dead.Alive() {
		t.Errorf("dead agent received %d messages, alive=%v", n, dead.Alive())
	}
}

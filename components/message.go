package components

// MessageType enumerates the agent-to-agent message kinds.
type MessageType uint8

const (
	MsgTargetSpotted MessageType = iota
	MsgUnderAttack
	MsgNeedAssistance
	MsgFormationCommand
)

// Payload is the message body. Fields irrelevant to a type are zero.
type Payload struct {
	Pos   Position // target or attacker position
	Role  Role     // formation-command only
	Value float32  // threat increment or urgency
}

// Message is an immutable broadcast between agents.
type Message struct {
	ID        uint64
	Sender    uint32
	SenderPos Position // sender position at broadcast time
	Type      MessageType
	Payload   Payload
	Timestamp int64   // sim ms
	Range     float32 // propagation range in world units
}

// Age returns the message age at now (ms).
func (m *Message) Age(now int64) int64 {
	return now - m.Timestamp
}

package router

import (
	"github.com/openmesa/binderd/internal/ipc/object"
	"github.com/openmesa/binderd/internal/ipc/wire"
)

// Message is one unit of queued work. Queued transactions and replies
// keep their write-side opcode as the type, matching the dispatch the
// read side performs; acknowledgements and death notices carry their
// read-side opcode directly.
type Message struct {
	Type uint32

	Obj   object.ID
	Code  uint32
	Flags uint32

	SenderPID  int32
	SenderEUID uint32

	// Cookie carries the notifier cookie on death-notification traffic.
	Cookie uint64

	// ReplyTo is the directory id of the queue awaiting the reply, zero
	// for one-way sends and bare control messages.
	ReplyTo uint64

	Data    []byte
	Offsets []uint64
}

// newMessage allocates a message with room for dataSize payload bytes.
func newMessage(dataSize, offsetsCount int) *Message {
	m := &Message{}
	if dataSize > 0 {
		m.Data = make([]byte, dataSize)
	}
	if offsetsCount > 0 {
		m.Offsets = make([]uint64, offsetsCount)
	}
	return m
}

// reuseMessage recycles a serviced request's buffers for its reply when
// they are large enough, else allocates fresh ones. Routing fields are
// reset; the caller fills them in.
func reuseMessage(m *Message, dataSize, offsetsCount int) *Message {
	if cap(m.Data) >= dataSize {
		m.Data = m.Data[:dataSize]
	} else {
		m.Data = make([]byte, dataSize)
	}
	if cap(m.Offsets) >= offsetsCount {
		m.Offsets = m.Offsets[:offsetsCount]
	} else {
		m.Offsets = make([]uint64, offsetsCount)
	}
	m.Obj = object.ID{}
	m.Cookie = 0
	m.ReplyTo = 0
	return m
}

// oneWay reports whether the message was sent without expecting a reply.
func (m *Message) oneWay() bool {
	return m.Flags&wire.FlagOneWay != 0
}

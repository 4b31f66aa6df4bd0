package telemetry

import (
	"strings"
	"time"

	"aprsnoop/packet"
)

// Key identifies one in-flight telemetry definition.
type Key struct {
	Addressee string
	From      string
	To        string
}

func (k Key) String() string {
	return k.Addressee + "," + k.From + "," + k.To
}

// KeyFor builds the key of a telemetry packet.
func KeyFor(pkt *packet.Packet) Key {
	return Key{Addressee: packet.Str(pkt.Addressee), From: pkt.From, To: pkt.To}
}

// ChannelSlot is one telemetry channel. An empty Name or Unit and a nil
// Equation mean that part has not arrived yet.
type ChannelSlot struct {
	Name     string
	Equation *packet.Equation
	Unit     string
}

// Complete reports whether name, equation and unit have all arrived.
func (s ChannelSlot) Complete() bool {
	return s.Name != "" && s.Equation != nil && s.Unit != ""
}

func (s ChannelSlot) String() string {
	eqn := packet.NA
	if s.Equation != nil {
		eqn = s.Equation.String()
	}
	return "[" + packet.NonEmpty(s.Name) + " " + eqn + " " + packet.NonEmpty(s.Unit) + "]"
}

// Entry is the merged state of one telemetry definition.
type Entry struct {
	LastUpdate time.Time
	Slots      []ChannelSlot
}

func (e *Entry) String() string {
	var b strings.Builder
	b.WriteString("time=")
	b.WriteString(e.LastUpdate.UTC().Format(time.RFC3339))
	b.WriteString(" values=[")
	for i, s := range e.Slots {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (e *Entry) clone() *Entry {
	cp := &Entry{LastUpdate: e.LastUpdate, Slots: make([]ChannelSlot, len(e.Slots))}
	copy(cp.Slots, e.Slots)
	return cp
}

// merge applies the definition fields of pkt. A PARM list whose length
// differs from the current slot count starts over with empty slots, losing
// any units and equations merged so far. UNIT and EQNS fill existing slots
// by position, or size the slots themselves when there are none yet.
func (e *Entry) merge(pkt *packet.Packet) {
	if pkt.TParm != nil {
		if len(pkt.TParm) != len(e.Slots) {
			e.Slots = make([]ChannelSlot, len(pkt.TParm))
		}
		for i, name := range pkt.TParm {
			e.Slots[i].Name = name
		}
	}

	if pkt.TUnit != nil {
		if len(e.Slots) == 0 {
			e.Slots = make([]ChannelSlot, len(pkt.TUnit))
		}
		for i, unit := range pkt.TUnit {
			if i >= len(e.Slots) {
				break
			}
			e.Slots[i].Unit = unit
		}
	}

	if pkt.TEqns != nil {
		if len(e.Slots) == 0 {
			e.Slots = make([]ChannelSlot, len(pkt.TEqns))
		}
		for i := range pkt.TEqns {
			if i >= len(e.Slots) {
				break
			}
			eqn := pkt.TEqns[i]
			e.Slots[i].Equation = &eqn
		}
	}

	// BITS carries bit sense and a project title. Nothing here uses them.
}

// Package schema defines the journaled event vocabulary of a
// simulation run: market ticks, fills, per-participant summaries and
// the run summary, plus the common header stamped on every record.
package schema

// SchemaVersion is the current event schema version.
const SchemaVersion uint16 = 1

// EventType defines the category of a journaled event.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventTick
	EventFill
	EventParticipantSummary
	EventRunSummary
)

func (t EventType) String() string {
	switch t {
	case EventTick:
		return "tick"
	case EventFill:
		return "fill"
	case EventParticipantSummary:
		return "participant_summary"
	case EventRunSummary:
		return "run_summary"
	default:
		return "unknown"
	}
}

// EventHeader is the common metadata attached to every event.
type EventHeader struct {
	Type    EventType
	Version uint16
	Source  uint16
	Flags   uint16
	Seq     uint64
	TsEvent int64
	TsRecv  int64
	TraceID uint64
}

// NewHeader builds a header with the current schema version.
func NewHeader(eventType EventType, source uint16, seq uint64, tsEvent, tsRecv int64) EventHeader {
	return EventHeader{
		Type:    eventType,
		Version: SchemaVersion,
		Source:  source,
		Seq:     seq,
		TsEvent: tsEvent,
		TsRecv:  tsRecv,
	}
}

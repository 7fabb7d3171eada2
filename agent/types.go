// Package agent provides the streaming tool-call agent implementation.
//
// Contains the event types emitted while a run is in flight.
package agent

import (
	"time"

	"github.com/richinex/plutus/llm"
)

// EventKind indicates the type of a run event.
type EventKind int

const (
	// EventText carries an incremental piece of assistant text.
	EventText EventKind = iota
	// EventToolStart marks the beginning of a tool execution.
	EventToolStart
	// EventToolEnd marks the end of a tool execution.
	EventToolEnd
	// EventDone is the terminal event of a successful run.
	EventDone
	// EventError is the terminal event of a failed run.
	EventError
)

// String returns a readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventToolStart:
		return "tool_start"
	case EventToolEnd:
		return "tool_end"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one item in a run's event stream. Exactly one terminal event
// (EventDone or EventError) is emitted per run, after which the stream closes.
type Event struct {
	Kind EventKind

	// Delta holds incremental assistant text for EventText.
	Delta string

	// Tool names the tool for EventToolStart and EventToolEnd.
	Tool string

	// Usage and Elapsed summarize the run for EventDone.
	Usage   *llm.TokenUsage
	Elapsed time.Duration

	// Err describes the failure for EventError.
	Err error
}

func textEvent(delta string) Event {
	return Event{Kind: EventText, Delta: delta}
}

func toolStartEvent(name string) Event {
	return Event{Kind: EventToolStart, Tool: name}
}

func toolEndEvent(name string) Event {
	return Event{Kind: EventToolEnd, Tool: name}
}

func doneEvent(usage *llm.TokenUsage, elapsed time.Duration) Event {
	return Event{Kind: EventDone, Usage: usage, Elapsed: elapsed}
}

func errorEvent(err error) Event {
	return Event{Kind: EventError, Err: err}
}

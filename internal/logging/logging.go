// Package logging carries protocol-level events from actors to one or more sinks.
package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ActorKind names the kind of actor on either end of an event.
type ActorKind string

const (
	ActorOrchestrator ActorKind = "orchestrator"
	ActorPlanet       ActorKind = "planet"
	ActorExplorer     ActorKind = "explorer"
)

// Actor identifies an event endpoint.
type Actor struct {
	Kind ActorKind
	ID   uint32
}

func (a Actor) String() string {
	if a.Kind == "" {
		return "-"
	}
	return fmt.Sprintf("%s-%d", a.Kind, a.ID)
}

// Orchestrator is the single orchestrator endpoint.
var Orchestrator = Actor{Kind: ActorOrchestrator}

// Planet returns the endpoint for planet id.
func Planet(id uint32) Actor { return Actor{Kind: ActorPlanet, ID: id} }

// Explorer returns the endpoint for explorer id.
func Explorer(id uint32) Actor { return Actor{Kind: ActorExplorer, ID: id} }

// Channel is the severity of an event.
type Channel string

const (
	ChannelError   Channel = "error"
	ChannelWarning Channel = "warning"
	ChannelInfo    Channel = "info"
	ChannelDebug   Channel = "debug"
	ChannelTrace   Channel = "trace"
)

// EventType classifies what an event records.
type EventType string

const (
	MessagePlanetToOrchestrator   EventType = "message_planet_to_orchestrator"
	MessagePlanetToExplorer       EventType = "message_planet_to_explorer"
	MessageOrchestratorToExplorer EventType = "message_orchestrator_to_explorer"
	MessageOrchestratorToPlanet   EventType = "message_orchestrator_to_planet"
	MessageExplorerToPlanet       EventType = "message_explorer_to_planet"
	MessageExplorerToOrchestrator EventType = "message_explorer_to_orchestrator"

	InternalPlanetAction       EventType = "internal_planet_action"
	InternalExplorerAction     EventType = "internal_explorer_action"
	InternalOrchestratorAction EventType = "internal_orchestrator_action"
)

// Event is one log entry. Timestamp is unix nanoseconds and is strictly
// increasing within the stream of a single Emitter.
type Event struct {
	Timestamp uint64
	Sender    Actor
	Receiver  Actor
	Type      EventType
	Channel   Channel
	Message   string
	Payload   map[string]string
}

// Sink accepts events from any actor. Emit must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Fanout forwards every event to each sink in order.
type Fanout []Sink

// Emit forwards e.
func (f Fanout) Emit(e Event) {
	for _, s := range f {
		if s != nil {
			s.Emit(e)
		}
	}
}

// ZerologSink writes events through a zerolog logger.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink wraps logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

// Emit writes e at the level matching its channel.
func (s *ZerologSink) Emit(e Event) {
	ev := s.logger.WithLevel(levelFor(e.Channel))
	if ev == nil {
		return
	}
	ev = ev.Uint64("ts", e.Timestamp).
		Str("sender", e.Sender.String()).
		Str("type", string(e.Type))
	if e.Receiver.Kind != "" {
		ev = ev.Str("receiver", e.Receiver.String())
	}
	for k, v := range e.Payload {
		ev = ev.Str(k, v)
	}
	ev.Msg(e.Message)
}

func levelFor(ch Channel) zerolog.Level {
	switch ch {
	case ChannelError:
		return zerolog.ErrorLevel
	case ChannelWarning:
		return zerolog.WarnLevel
	case ChannelDebug:
		return zerolog.DebugLevel
	case ChannelTrace:
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// Emitter stamps and forwards events on behalf of one actor.
type Emitter struct {
	mu   sync.Mutex
	sink Sink
	self Actor
	last uint64
	now  func() time.Time
}

// NewEmitter creates an emitter for self. A nil sink discards.
func NewEmitter(sink Sink, self Actor) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{sink: sink, self: self, now: time.Now}
}

// Self returns the actor the emitter speaks for.
func (e *Emitter) Self() Actor { return e.self }

// Emit stamps ev with the next timestamp and forwards it.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ts := uint64(e.now().UnixNano())
	if ts <= e.last {
		ts = e.last + 1
	}
	e.last = ts
	e.mu.Unlock()

	ev.Timestamp = ts
	if ev.Sender.Kind == "" {
		ev.Sender = e.self
	}
	if ev.Channel == "" {
		ev.Channel = ChannelInfo
	}
	e.sink.Emit(ev)
}

// Log emits a message event to receiver. kv is a flat list of payload key/value pairs.
func (e *Emitter) Log(ch Channel, typ EventType, receiver Actor, msg string, kv ...string) {
	var payload map[string]string
	if len(kv) > 0 {
		payload = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			payload[kv[i]] = kv[i+1]
		}
	}
	e.Emit(Event{
		Receiver: receiver,
		Type:     typ,
		Channel:  ch,
		Message:  msg,
		Payload:  payload,
	})
}

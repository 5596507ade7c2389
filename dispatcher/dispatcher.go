package dispatcher

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

type Target int

const (
	TargetConn Target = iota
	TargetAll
	TargetRoom
)

// Effect is one outbound event produced by a handler. The namespace runtime
// resolves its target against the live connections when it is applied.
type Effect struct {
	Target  Target
	ConnID  string
	Room    string
	Exclude string
	Event   string
	Payload any
}

func Unicast(connID, event string, payload any) Effect {
	return Effect{Target: TargetConn, ConnID: connID, Event: event, Payload: payload}
}

func Broadcast(event string, payload any) Effect {
	return Effect{Target: TargetAll, Event: event, Payload: payload}
}

func ToRoom(conversationID, exclude, event string, payload any) Effect {
	return Effect{Target: TargetRoom, Room: conversationID, Exclude: exclude, Event: event, Payload: payload}
}

// HandlerFunc handles one inbound event sent by connID. It may mutate the
// state's registry and ledger and returns the effects to deliver.
type HandlerFunc func(s *State, connID string, data json.RawMessage) []Effect

type LifecycleFunc func(s *State, connID string) []Effect

// Dispatcher routes inbound events of one namespace to its handler table.
// Calls are serialized so handlers always see a consistent registry.
type Dispatcher struct {
	mu           sync.Mutex
	state        *State
	handlers     map[string]HandlerFunc
	onConnect    LifecycleFunc
	onDisconnect LifecycleFunc
}

type Option func(*Dispatcher)

func WithConnect(fn LifecycleFunc) Option {
	return func(d *Dispatcher) {
		d.onConnect = fn
	}
}

func WithDisconnect(fn LifecycleFunc) Option {
	return func(d *Dispatcher) {
		d.onDisconnect = fn
	}
}

func New(state *State, handlers map[string]HandlerFunc, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		state:    state,
		handlers: handlers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Dispatcher) State() *State {
	return d.state
}

// Events lists the inbound events the dispatcher handles, sorted.
func (d *Dispatcher) Events() []string {
	events := make([]string, 0, len(d.handlers))
	for event := range d.handlers {
		events = append(events, event)
	}

	sort.Strings(events)

	return events
}

// Dispatch runs the handler registered for event and refreshes the sender's
// last-seen time. Unknown events and handler panics are logged and produce no
// effects.
func (d *Dispatcher) Dispatch(connID, event string, data json.RawMessage) []Effect {
	handler, ok := d.handlers[event]
	if !ok {
		d.state.Logger.Warn("unknown event",
			zap.String("conn_id", connID),
			zap.String("event", event),
			zap.ByteString("payload", data))
		return nil
	}

	return d.run(connID, event, func() []Effect {
		d.state.Registry.Touch(connID)
		return handler(d.state, connID, data)
	})
}

func (d *Dispatcher) Connect(connID string) []Effect {
	if d.onConnect == nil {
		return nil
	}

	return d.run(connID, "connect", func() []Effect {
		return d.onConnect(d.state, connID)
	})
}

func (d *Dispatcher) Disconnect(connID string) []Effect {
	if d.onDisconnect == nil {
		return nil
	}

	return d.run(connID, "disconnect", func() []Effect {
		return d.onDisconnect(d.state, connID)
	})
}

// Do runs fn in the event stream. It is used for pushes that do not come from
// a connection, such as order status updates.
func (d *Dispatcher) Do(name string, fn func(s *State) []Effect) []Effect {
	return d.run("", name, func() []Effect {
		return fn(d.state)
	})
}

func (d *Dispatcher) run(connID, event string, fn func() []Effect) (effects []Effect) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.state.Logger.Error("handler panicked",
				zap.String("conn_id", connID),
				zap.String("event", event),
				zap.Error(fmt.Errorf("%v", r)))
			effects = nil
		}
	}()

	return fn()
}

package service

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/dispatcher"
	"github.com/lam0glia/marketplace-relay/domain"
)

// Namespace is the runtime of one logical channel: its dispatcher and the
// live connections it delivers effects to.
type Namespace struct {
	name       string
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
	metrics    *Metrics

	// stream serializes dispatch and delivery so effects leave in event order.
	stream sync.Mutex

	mu    sync.RWMutex
	conns map[string]domain.Connection
}

func NewNamespace(name string, d *dispatcher.Dispatcher, metrics *Metrics) *Namespace {
	logger := d.State().Logger
	logger.Debug("namespace ready", zap.Strings("events", d.Events()))

	return &Namespace{
		name:       name,
		dispatcher: d,
		logger:     logger,
		metrics:    metrics,
		conns:      make(map[string]domain.Connection),
	}
}

func (n *Namespace) Name() string {
	return n.name
}

func (n *Namespace) State() *dispatcher.State {
	return n.dispatcher.State()
}

func (n *Namespace) Attach(conn domain.Connection) {
	n.stream.Lock()
	defer n.stream.Unlock()

	n.mu.Lock()
	n.conns[conn.ID()] = conn
	connected := len(n.conns)
	n.mu.Unlock()

	n.metrics.connections.WithLabelValues(n.name).Set(float64(connected))
	n.logger.Info("USER_CONNECTED", zap.String("conn_id", conn.ID()))

	n.apply(n.dispatcher.Connect(conn.ID()))
}

func (n *Namespace) Handle(connID, event string, data json.RawMessage) {
	n.stream.Lock()
	defer n.stream.Unlock()

	n.metrics.events.WithLabelValues(n.name, event).Inc()

	n.apply(n.dispatcher.Dispatch(connID, event, data))
	n.observe()
}

// Detach forgets the connection before running the disconnect handler, so
// notices produced by the departure never reach the departing client.
func (n *Namespace) Detach(connID string) {
	n.stream.Lock()
	defer n.stream.Unlock()

	n.mu.Lock()
	_, ok := n.conns[connID]
	delete(n.conns, connID)
	connected := len(n.conns)
	n.mu.Unlock()

	if !ok {
		return
	}

	n.metrics.connections.WithLabelValues(n.name).Set(float64(connected))

	n.apply(n.dispatcher.Disconnect(connID))
	n.observe()
}

// Push runs fn in the event stream and delivers its effects. It reports how
// many effects were produced.
func (n *Namespace) Push(name string, fn func(s *dispatcher.State) []dispatcher.Effect) int {
	n.stream.Lock()
	defer n.stream.Unlock()

	effects := n.dispatcher.Do(name, fn)
	n.apply(effects)

	return len(effects)
}

// Shutdown closes every live connection. Their disconnect handlers run as
// each connection's read loop ends.
func (n *Namespace) Shutdown() {
	n.mu.RLock()
	conns := make([]domain.Connection, 0, len(n.conns))
	for _, conn := range n.conns {
		conns = append(conns, conn)
	}
	n.mu.RUnlock()

	for _, conn := range conns {
		conn.Shutdown()
	}
}

func (n *Namespace) Connected() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.conns)
}

func (n *Namespace) OnlineUsers() int {
	return n.dispatcher.State().Registry.Count()
}

func (n *Namespace) observe() {
	n.metrics.onlineUsers.WithLabelValues(n.name).Set(float64(n.OnlineUsers()))
}

func (n *Namespace) apply(effects []dispatcher.Effect) {
	for _, effect := range effects {
		frame, err := encode(effect)
		if err != nil {
			n.logger.Error("failed to encode effect", zap.String("event", effect.Event), zap.Error(err))
			continue
		}

		for _, conn := range n.targets(effect) {
			n.send(conn, effect.Event, frame)
		}
	}
}

func (n *Namespace) targets(effect dispatcher.Effect) []domain.Connection {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var targets []domain.Connection

	switch effect.Target {
	case dispatcher.TargetConn:
		if conn, ok := n.conns[effect.ConnID]; ok {
			targets = append(targets, conn)
		}
	case dispatcher.TargetAll:
		targets = make([]domain.Connection, 0, len(n.conns))
		for _, conn := range n.conns {
			targets = append(targets, conn)
		}
	case dispatcher.TargetRoom:
		for _, connID := range n.dispatcher.State().Registry.Members(effect.Room) {
			if connID == effect.Exclude {
				continue
			}
			if conn, ok := n.conns[connID]; ok {
				targets = append(targets, conn)
			}
		}
	}

	return targets
}

func (n *Namespace) send(conn domain.Connection, event string, frame []byte) {
	err := conn.Send(frame)
	if err == nil {
		n.metrics.outbound.WithLabelValues(n.name, event).Inc()
		return
	}

	n.metrics.dropped.WithLabelValues(n.name).Inc()

	if errors.Is(err, domain.ErrSendBufferFull) {
		n.logger.Warn("outbound frame dropped", zap.String("conn_id", conn.ID()), zap.String("event", event), zap.Error(err))
		return
	}

	n.logger.Debug("outbound frame dropped", zap.String("conn_id", conn.ID()), zap.String("event", event), zap.Error(err))
}

func encode(effect dispatcher.Effect) ([]byte, error) {
	data, err := json.Marshal(effect.Payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(domain.Envelope{Event: effect.Event, Data: data})
}

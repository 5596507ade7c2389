package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/dispatcher"
	"github.com/lam0glia/marketplace-relay/domain"
)

// Hub owns every namespace of the relay. Each namespace keeps its own
// presence state.
type Hub struct {
	namespaces map[string]*Namespace
	order      []string
}

// NewHub builds the root, chat, refund, cancellation and order namespaces.
// sink may be nil.
func NewHub(logger *zap.Logger, metrics *Metrics, sink domain.PresenceSink) *Hub {
	h := &Hub{namespaces: make(map[string]*Namespace)}

	newState := func(name string) *dispatcher.State {
		s := dispatcher.NewState(name, logger)
		s.Sink = sink
		s.Status = h.Status
		return s
	}

	h.add(NewNamespace(domain.NamespaceRoot, dispatcher.NewRoot(newState(domain.NamespaceRoot)), metrics))
	h.add(NewNamespace(domain.NamespaceChat, dispatcher.NewChat(newState(domain.NamespaceChat)), metrics))
	h.add(NewNamespace(domain.NamespaceRefund, dispatcher.NewRefund(newState(domain.NamespaceRefund)), metrics))
	h.add(NewNamespace(domain.NamespaceCancellation, dispatcher.NewCancellation(newState(domain.NamespaceCancellation)), metrics))
	h.add(NewNamespace(domain.NamespaceOrder, dispatcher.NewOrder(newState(domain.NamespaceOrder)), metrics))

	return h
}

func (h *Hub) add(n *Namespace) {
	h.namespaces[n.Name()] = n
	h.order = append(h.order, n.Name())
}

func (h *Hub) Namespace(name string) (*Namespace, error) {
	n, ok := h.namespaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNamespace, name)
	}

	return n, nil
}

// Status reports connections and registered identities of every namespace
// except the root one.
func (h *Hub) Status() domain.ServerStatus {
	status := make(domain.ServerStatus, len(h.namespaces))

	for _, name := range h.order {
		if name == domain.NamespaceRoot {
			continue
		}

		n := h.namespaces[name]
		status[name] = domain.NamespaceStatus{
			Connected:   n.Connected(),
			OnlineUsers: n.OnlineUsers(),
		}
	}

	return status
}

func (h *Hub) Shutdown() {
	for _, name := range h.order {
		h.namespaces[name].Shutdown()
	}
}

// PushOrderStatus tells the owning seller in the order namespace that the
// order was paid. It reports whether the seller was online.
func (h *Hub) PushOrderStatus(order domain.OrderStatus) bool {
	n := h.namespaces[domain.NamespaceOrder]

	return n.Push("order_status_push", func(s *dispatcher.State) []dispatcher.Effect {
		return dispatcher.OrderStatusUpdated(s, order)
	}) > 0
}

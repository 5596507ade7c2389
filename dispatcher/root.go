package dispatcher

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
)

const serverInfoMessage = "Server Socket.IO Terpusat"

type serverInfo struct {
	Message    string   `json:"message"`
	Namespaces []string `json:"namespaces"`
	Timestamp  string   `json:"timestamp"`
}

// NewRoot builds the dispatcher of the root namespace, which only describes
// the server.
func NewRoot(s *State) *Dispatcher {
	return New(s, map[string]HandlerFunc{
		EventGetServerStatus: handleGetServerStatus,
	}, WithConnect(handleRootConnect))
}

func handleRootConnect(s *State, connID string) []Effect {
	s.Logger.Info("ROOT_CONNECTED", zap.String("conn_id", connID))

	return []Effect{Unicast(connID, EventServerInfo, serverInfo{
		Message: serverInfoMessage,
		Namespaces: []string{
			"/" + domain.NamespaceChat,
			"/" + domain.NamespaceRefund,
			"/" + domain.NamespaceCancellation,
			"/" + domain.NamespaceOrder,
		},
		Timestamp: s.timestamp(),
	})}
}

func handleGetServerStatus(s *State, connID string, _ json.RawMessage) []Effect {
	status := domain.ServerStatus{}
	if s.Status != nil {
		status = s.Status()
	}

	return []Effect{Unicast(connID, EventServerStatus, status)}
}

package domain

import "errors"

const (
	NamespaceRoot         = "/"
	NamespaceChat         = "chat"
	NamespaceRefund       = "refund"
	NamespaceCancellation = "cancellation"
	NamespaceOrder        = "order"
)

var ErrUnknownNamespace = errors.New("unknown namespace")

type NamespaceStatus struct {
	Connected   int `json:"connected"`
	OnlineUsers int `json:"online_users"`
}

type ServerStatus map[string]NamespaceStatus

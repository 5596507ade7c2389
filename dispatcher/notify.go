package dispatcher

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
)

const statusCheckReceived = "Status check request received"

type statusChanged struct {
	OrderNumber any    `json:"order_number"`
	Status      any    `json:"status"`
	Message     any    `json:"message"`
	Timestamp   string `json:"timestamp"`
}

type cancellationResponse struct {
	OrderNumber any    `json:"order_number"`
	Response    any    `json:"response"`
	Message     any    `json:"message"`
	Timestamp   string `json:"timestamp"`
}

type statusCheckResponse struct {
	OrderNumber any    `json:"order_number"`
	Timestamp   string `json:"timestamp"`
	Message     string `json:"message"`
}

type announcement struct {
	Message   any    `json:"message"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
}

type requestCancelled struct {
	OrderNumber any    `json:"order_number"`
	CancelledBy string `json:"cancelled_by"`
	Timestamp   string `json:"timestamp"`
}

type orderNotification struct {
	Message   string `json:"message"`
	Order     any    `json:"order"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewRefund builds the dispatcher of the refund namespace.
func NewRefund(s *State) *Dispatcher {
	return New(s, map[string]HandlerFunc{
		EventRegisterUser:                handleRegisterUser,
		EventRequestRefundFromBuyer:      forwardToSeller(EventRequestRefundFromBuyer, EventNewRefundNotification),
		EventRefundStatusUpdate:          handleRefundStatusUpdate,
		EventCheckRefundStatus:           statusCheck(EventCheckRefundStatus, EventRefundStatusCheckResponse),
		EventBroadcastRefundAnnouncement: announce(EventBroadcastRefundAnnouncement, EventRefundAnnouncement),
	}, WithDisconnect(handleNotifyDisconnect))
}

// NewCancellation builds the dispatcher of the cancellation namespace.
func NewCancellation(s *State) *Dispatcher {
	return New(s, map[string]HandlerFunc{
		EventRegisterUser:                      handleRegisterUser,
		EventRequestCancellationFromBuyer:      forwardToSeller(EventRequestCancellationFromBuyer, EventNewCancellationNotification),
		EventRespondToCancellation:             handleRespondToCancellation,
		EventCancellationStatusUpdate:          handleCancellationStatusUpdate,
		EventCheckCancellationStatus:           statusCheck(EventCheckCancellationStatus, EventCancellationStatusCheckResponse),
		EventBroadcastCancellationAnnouncement: announce(EventBroadcastCancellationAnnouncement, EventCancellationAnnouncement),
		EventCancelCancellationRequest:         handleCancelCancellationRequest,
	}, WithDisconnect(handleNotifyDisconnect))
}

// NewOrder builds the dispatcher of the order namespace.
func NewOrder(s *State) *Dispatcher {
	return New(s, map[string]HandlerFunc{
		EventRegisterUser:   handleRegisterUser,
		EventNewOrderPlaced: handleNewOrderPlaced,
	}, WithDisconnect(handleNotifyDisconnect))
}

func handleRegisterUser(s *State, connID string, data json.RawMessage) []Effect {
	userID := target(data, "userId")
	if userID == "" {
		s.drop(connID, EventRegisterUser, data, "missing userId")
		return nil
	}

	if previous, ok := s.Registry.IdentityOf(connID); ok && previous != userID {
		s.offer(previous, "", false)
	}

	if superseded, replaced := s.Registry.Register(connID, userID, ""); replaced {
		s.activity(userID, "REGISTRATION_SUPERSEDED",
			zap.String("conn_id", connID),
			zap.String("superseded_conn_id", superseded.ConnID))
	}

	s.offer(userID, "", true)
	s.activity(userID, "USER_REGISTERED", zap.String("conn_id", connID))

	return nil
}

func handleNotifyDisconnect(s *State, connID string) []Effect {
	entry, ok := s.Registry.RemoveByConnection(connID)
	if !ok {
		s.Logger.Info("UNKNOWN_USER_DISCONNECTED", zap.String("conn_id", connID))
		return nil
	}

	s.offer(entry.Identity, entry.Role, false)
	s.activity(entry.Identity, "USER_DISCONNECTED", zap.String("conn_id", connID))

	return nil
}

// notifyIdentity unicasts to identity when it is online and logs either way.
func (s *State) notifyIdentity(identity, event string, payload any, fields ...zap.Field) []Effect {
	connID, ok := s.Registry.Lookup(identity)
	if !ok {
		s.activity(identity, "TARGET_OFFLINE", append(fields, zap.String("event", event))...)
		return nil
	}

	s.activity(identity, "TARGET_NOTIFIED", append(fields, zap.String("event", event), zap.String("conn_id", connID))...)

	return []Effect{Unicast(connID, event, payload)}
}

func (s *State) requester(connID string) string {
	identity, _ := s.Registry.IdentityOf(connID)
	return identity
}

// forwardToSeller relays the payload untouched to toko_<id_toko>.
func forwardToSeller(inbound, outbound string) HandlerFunc {
	return func(s *State, connID string, data json.RawMessage) []Effect {
		var p struct {
			StoreID any `json:"id_toko"`
		}
		if err := decode(data, &p); err != nil || text(p.StoreID) == "" {
			s.drop(connID, inbound, data, "missing id_toko")
			return nil
		}

		s.activity(s.requester(connID), "REQUEST_RECEIVED", zap.String("event", inbound), zap.ByteString("payload", data))

		return s.notifyIdentity(domain.SellerPrefix+text(p.StoreID), outbound, data)
	}
}

func handleRefundStatusUpdate(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		BuyerID     any `json:"id_pembeli"`
		Status      any `json:"status"`
		OrderNumber any `json:"order_number"`
		Message     any `json:"message"`
	}
	if err := decode(data, &p); err != nil || text(p.BuyerID) == "" {
		s.drop(connID, EventRefundStatusUpdate, data, "missing id_pembeli")
		return nil
	}

	return s.notifyIdentity(domain.BuyerPrefix+text(p.BuyerID), EventRefundStatusChanged, statusChanged{
		OrderNumber: p.OrderNumber,
		Status:      p.Status,
		Message:     p.Message,
		Timestamp:   s.timestamp(),
	}, zap.String("from", s.requester(connID)), zap.Any("order_number", p.OrderNumber))
}

func handleCancellationStatusUpdate(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		BuyerID     any `json:"id_pembeli"`
		Status      any `json:"status"`
		OrderNumber any `json:"order_number"`
		Message     any `json:"message"`
	}
	if err := decode(data, &p); err != nil || text(p.BuyerID) == "" {
		s.drop(connID, EventCancellationStatusUpdate, data, "missing id_pembeli")
		return nil
	}

	return s.notifyIdentity(domain.BuyerPrefix+text(p.BuyerID), EventCancellationStatusChanged, statusChanged{
		OrderNumber: p.OrderNumber,
		Status:      p.Status,
		Message:     p.Message,
		Timestamp:   s.timestamp(),
	}, zap.String("from", s.requester(connID)), zap.Any("order_number", p.OrderNumber))
}

func handleRespondToCancellation(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		BuyerID     any `json:"id_pembeli"`
		OrderNumber any `json:"order_number"`
		Response    any `json:"response"`
		Message     any `json:"message"`
	}
	if err := decode(data, &p); err != nil || text(p.BuyerID) == "" {
		s.drop(connID, EventRespondToCancellation, data, "missing id_pembeli")
		return nil
	}

	return s.notifyIdentity(domain.BuyerPrefix+text(p.BuyerID), EventCancellationResponse, cancellationResponse{
		OrderNumber: p.OrderNumber,
		Response:    p.Response,
		Message:     p.Message,
		Timestamp:   s.timestamp(),
	}, zap.String("from", s.requester(connID)), zap.Any("response", p.Response))
}

func handleCancelCancellationRequest(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		StoreID     any `json:"id_toko"`
		OrderNumber any `json:"order_number"`
	}
	if err := decode(data, &p); err != nil || text(p.StoreID) == "" {
		s.drop(connID, EventCancelCancellationRequest, data, "missing id_toko")
		return nil
	}

	requester := s.requester(connID)

	return s.notifyIdentity(domain.SellerPrefix+text(p.StoreID), EventCancellationRequestCancelled, requestCancelled{
		OrderNumber: p.OrderNumber,
		CancelledBy: requester,
		Timestamp:   s.timestamp(),
	}, zap.String("from", requester), zap.Any("order_number", p.OrderNumber))
}

func statusCheck(inbound, outbound string) HandlerFunc {
	return func(s *State, connID string, data json.RawMessage) []Effect {
		var p struct {
			OrderNumber any `json:"order_number"`
		}
		if err := decode(data, &p); err != nil {
			s.drop(connID, inbound, data, "malformed payload")
			return nil
		}

		s.activity(s.requester(connID), "STATUS_CHECKED", zap.Any("order_number", p.OrderNumber))

		return []Effect{Unicast(connID, outbound, statusCheckResponse{
			OrderNumber: p.OrderNumber,
			Timestamp:   s.timestamp(),
			Message:     statusCheckReceived,
		})}
	}
}

func announce(inbound, outbound string) HandlerFunc {
	return func(s *State, connID string, data json.RawMessage) []Effect {
		var p struct {
			Message any `json:"message"`
		}
		if err := decode(data, &p); err != nil {
			s.drop(connID, inbound, data, "malformed payload")
			return nil
		}

		sender := s.requester(connID)
		s.activity(sender, "ANNOUNCEMENT_BROADCAST", zap.Any("message", p.Message))

		return []Effect{Broadcast(outbound, announcement{
			Message:   p.Message,
			Timestamp: s.timestamp(),
			From:      sender,
		})}
	}
}

func handleNewOrderPlaced(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		StoreID   any            `json:"id_toko"`
		OrderData map[string]any `json:"order_data"`
	}
	if err := decode(data, &p); err != nil || text(p.StoreID) == "" || p.OrderData == nil {
		s.drop(connID, EventNewOrderPlaced, data, "missing id_toko or order_data")
		return nil
	}

	orderNumber := p.OrderData["order_number"]

	return s.notifyIdentity(domain.SellerPrefix+text(p.StoreID), EventNewOrderNotification, orderNotification{
		Message:   fmt.Sprintf("Pesanan baru #%s telah masuk!", label(orderNumber)),
		Order:     p.OrderData,
		Timestamp: s.timestamp(),
	}, zap.Any("order_number", orderNumber))
}

// OrderStatusUpdated notifies the seller owning order that its payment went
// through. It produces nothing when the seller is offline.
func OrderStatusUpdated(s *State, order domain.OrderStatus) []Effect {
	storeID, ok := order.StoreID()
	if !ok {
		s.Logger.Warn("order status dropped", zap.Error(domain.ErrMissingStoreID))
		return nil
	}

	return s.notifyIdentity(domain.SellerPrefix+storeID, EventOrderStatusUpdated, orderNotification{
		Message: fmt.Sprintf("Pembayaran untuk pesanan #%s berhasil.", label(order.OrderNumber())),
		Order:   order,
	}, zap.Any("order_number", order.OrderNumber()))
}

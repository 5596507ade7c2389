package dispatcher

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/delivery"
	"github.com/lam0glia/marketplace-relay/domain"
)

type viewingStatusChanged struct {
	UserID         string `json:"userId"`
	IsViewing      bool   `json:"isViewing"`
	ConversationID string `json:"conversationId"`
}

type userDisconnected struct {
	UserID string `json:"userId"`
}

type onlineStatusResponse struct {
	UserID        string              `json:"userId"`
	IsOnline      bool                `json:"isOnline"`
	IsViewingChat bool                `json:"isViewingChat"`
	Status        domain.ViewingState `json:"status"`
}

type typingNotice struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

type messageStatusResponse struct {
	ConversationID string                      `json:"conversationId"`
	Statuses       map[string]domain.CheckMark `json:"statuses"`
	Read           bool                        `json:"read"`
}

type conversationListUpdate struct {
	ConversationID any    `json:"conversationId"`
	UserID         string `json:"userId"`
}

// NewChat builds the dispatcher of the chat namespace.
func NewChat(s *State) *Dispatcher {
	return New(s, map[string]HandlerFunc{
		EventUserConnect:          handleUserConnect,
		EventStartViewingChat:     handleStartViewing,
		EventStopViewingChat:      handleStopViewing,
		EventRequestStatusUpdate:  handleRequestStatusUpdate,
		EventUserLogout:           handleUserLogout,
		EventJoinRoom:             handleJoinRoom,
		EventLeaveRoom:            handleLeaveRoom,
		EventSendMessage:          handleSendMessage,
		EventNotifySeller:         handleNotifySeller,
		EventSendMessageToBuyer:   handleSendMessageToBuyer,
		EventMarkMessagesAsRead:   handleMarkMessagesAsRead,
		EventRequestMessageStatus: handleRequestMessageStatus,
		EventCheckOnlineStatus:    handleCheckOnlineStatus,
		EventTypingStart:          typingHandler(EventTypingStart, EventTypingStartFromServer),
		EventTypingStop:           typingHandler(EventTypingStop, EventTypingStopFromServer),
		EventUpdateConversation:   handleUpdateConversation,
	}, WithDisconnect(handleChatDisconnect))
}

func handleUserConnect(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := decode(data, &p); err != nil || p.UserID == "" {
		s.drop(connID, EventUserConnect, data, "missing userId")
		return nil
	}

	var effects []Effect

	if previous, ok := s.Registry.IdentityOf(connID); ok && previous != p.UserID {
		effects = append(effects, s.leaveNotice(connID, previous)...)
		s.offer(previous, "", false)
	}

	superseded, replaced := s.Registry.Register(connID, p.UserID, p.Role)
	if replaced {
		s.activity(p.UserID, "REGISTRATION_SUPERSEDED",
			zap.String("conn_id", connID),
			zap.String("superseded_conn_id", superseded.ConnID))

		if superseded.IsViewingChat && superseded.ConversationID != "" {
			effects = append(effects, ToRoom(superseded.ConversationID, connID, EventViewingStatusChanged, viewingStatusChanged{
				UserID:         p.UserID,
				IsViewing:      false,
				ConversationID: superseded.ConversationID,
			}))
		}
	}

	s.offer(p.UserID, p.Role, true)
	s.activity(p.UserID, "CONNECTED", zap.String("role", p.Role), zap.String("conn_id", connID))

	return append(effects, s.presenceBroadcast())
}

// leaveNotice tells the room identity was viewing that it stopped, without
// touching the registry.
func (s *State) leaveNotice(connID, identity string) []Effect {
	entry, ok := s.Registry.Entry(identity)
	if !ok || entry.ConversationID == "" {
		return nil
	}

	return []Effect{ToRoom(entry.ConversationID, connID, EventViewingStatusChanged, viewingStatusChanged{
		UserID:         identity,
		IsViewing:      false,
		ConversationID: entry.ConversationID,
	})}
}

type viewingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

func handleStartViewing(s *State, connID string, data json.RawMessage) []Effect {
	var p viewingPayload
	if err := decode(data, &p); err != nil || p.UserID == "" || p.ConversationID == "" {
		s.drop(connID, EventStartViewingChat, data, "missing userId or conversationId")
		return nil
	}

	owner, previous, ok := s.Registry.StartViewing(p.UserID, p.ConversationID)
	if !ok {
		s.activity(p.UserID, "VIEWING_IGNORED_NOT_REGISTERED", zap.String("conversation_id", p.ConversationID))
		return nil
	}

	var effects []Effect

	if previous != "" {
		effects = append(effects, ToRoom(previous, owner, EventViewingStatusChanged, viewingStatusChanged{
			UserID:         p.UserID,
			IsViewing:      false,
			ConversationID: previous,
		}))
	}

	s.activity(p.UserID, "STARTED_VIEWING_CHAT", zap.String("conversation_id", p.ConversationID))

	return append(effects,
		s.presenceBroadcast(),
		ToRoom(p.ConversationID, owner, EventViewingStatusChanged, viewingStatusChanged{
			UserID:         p.UserID,
			IsViewing:      true,
			ConversationID: p.ConversationID,
		}),
	)
}

func handleStopViewing(s *State, connID string, data json.RawMessage) []Effect {
	var p viewingPayload
	if err := decode(data, &p); err != nil || p.UserID == "" {
		s.drop(connID, EventStopViewingChat, data, "missing userId")
		return nil
	}

	if p.ConversationID == "" {
		if entry, ok := s.Registry.Entry(p.UserID); ok {
			p.ConversationID = entry.ConversationID
		}
	}

	owner, ok := s.Registry.StopViewing(p.UserID, p.ConversationID)
	if !ok {
		s.activity(p.UserID, "VIEWING_IGNORED_NOT_REGISTERED", zap.String("conversation_id", p.ConversationID))
		return nil
	}

	s.activity(p.UserID, "STOPPED_VIEWING_CHAT", zap.String("conversation_id", p.ConversationID))

	effects := []Effect{s.presenceBroadcast()}
	if p.ConversationID != "" {
		effects = append(effects, ToRoom(p.ConversationID, owner, EventViewingStatusChanged, viewingStatusChanged{
			UserID:         p.UserID,
			IsViewing:      false,
			ConversationID: p.ConversationID,
		}))
	}

	return effects
}

func handleRequestStatusUpdate(s *State, connID string, data json.RawMessage) []Effect {
	requester, ok := s.Registry.IdentityOf(connID)
	if !ok {
		s.drop(connID, EventRequestStatusUpdate, data, "connection not registered")
		return nil
	}

	s.activity(requester, "REQUESTED_STATUS_UPDATE")

	return []Effect{Unicast(connID, EventOnlineUsersUpdate, s.Registry.Snapshot())}
}

func handleUserLogout(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		UserID        string `json:"userId"`
		IsPemilikToko bool   `json:"isPemilikToko"`
	}
	if err := decode(data, &p); err != nil || p.UserID == "" {
		s.drop(connID, EventUserLogout, data, "missing userId")
		return nil
	}

	entry, ok := s.Registry.Remove(p.UserID)
	if !ok {
		s.activity(p.UserID, "LOGOUT_IGNORED_NOT_REGISTERED", zap.String("conn_id", connID))
		return nil
	}

	s.activity(p.UserID, "EXPLICIT_LOGOUT", zap.String("conn_id", connID), zap.Bool("is_pemilik_toko", p.IsPemilikToko))

	return s.teardown(entry)
}

func handleChatDisconnect(s *State, connID string) []Effect {
	rooms := s.Registry.Rooms(connID)

	entry, ok := s.Registry.RemoveByConnection(connID)
	if !ok {
		s.Logger.Info("UNKNOWN_USER_DISCONNECTED", zap.String("conn_id", connID), zap.Strings("rooms", rooms))
		return nil
	}

	s.activity(entry.Identity, "DISCONNECTED", zap.String("conn_id", connID), zap.Strings("rooms", rooms))

	return s.teardown(entry)
}

// teardown builds the effects of a removed presence entry. The room notice
// carries the departing identity captured before removal.
func (s *State) teardown(entry domain.PresenceEntry) []Effect {
	var effects []Effect

	if entry.ConversationID != "" {
		effects = append(effects, ToRoom(entry.ConversationID, entry.ConnID, EventViewingStatusChanged, viewingStatusChanged{
			UserID:         entry.Identity,
			IsViewing:      false,
			ConversationID: entry.ConversationID,
		}))
	}

	s.offer(entry.Identity, entry.Role, false)

	return append(effects,
		Broadcast(EventUserDisconnected, userDisconnected{UserID: entry.Identity}),
		s.presenceBroadcast(),
	)
}

func handleJoinRoom(s *State, connID string, data json.RawMessage) []Effect {
	conversationID := target(data, "conversationId")
	if conversationID == "" {
		s.drop(connID, EventJoinRoom, data, "missing conversationId")
		return nil
	}

	s.Registry.Join(connID, conversationID)

	identity, _ := s.Registry.IdentityOf(connID)
	s.activity(identity, "JOINED_ROOM", zap.String("conversation_id", conversationID), zap.String("conn_id", connID))

	return nil
}

func handleLeaveRoom(s *State, connID string, data json.RawMessage) []Effect {
	conversationID := target(data, "conversationId")
	if conversationID == "" {
		s.drop(connID, EventLeaveRoom, data, "missing conversationId")
		return nil
	}

	s.Registry.Leave(connID, conversationID)

	identity, _ := s.Registry.IdentityOf(connID)
	s.activity(identity, "LEFT_ROOM", zap.String("conversation_id", conversationID), zap.String("conn_id", connID))

	return nil
}

func handleMarkMessagesAsRead(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		ConversationID string `json:"conversationId"`
		ReaderID       string `json:"readerId"`
	}
	if err := decode(data, &p); err != nil || p.ConversationID == "" {
		s.drop(connID, EventMarkMessagesAsRead, data, "missing conversationId")
		return nil
	}

	escalated := s.Ledger.MarkRead(p.ConversationID)

	s.activity(p.ReaderID, "MARKED_MESSAGES_READ",
		zap.String("conversation_id", p.ConversationID),
		zap.Int("escalated", escalated))

	return []Effect{ToRoom(p.ConversationID, connID, EventMessagesWereRead, domain.MessagesWereRead{
		ConversationID:  p.ConversationID,
		ReaderID:        p.ReaderID,
		CheckMarkStatus: domain.CheckMarkDoubleBlue,
	})}
}

func handleRequestMessageStatus(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		ConversationID string `json:"conversationId"`
		MessageIDs     []any  `json:"messageIds"`
	}
	if err := decode(data, &p); err != nil || p.ConversationID == "" {
		s.drop(connID, EventRequestMessageStatus, data, "missing conversationId")
		return nil
	}

	ids := make([]string, 0, len(p.MessageIDs))
	for _, id := range p.MessageIDs {
		if v := text(id); v != "" {
			ids = append(ids, v)
		}
	}

	return []Effect{Unicast(connID, EventMessageStatusResponse, messageStatusResponse{
		ConversationID: p.ConversationID,
		Statuses:       s.Ledger.Status(p.ConversationID, ids),
		Read:           s.Ledger.Read(p.ConversationID),
	})}
}

func handleCheckOnlineStatus(s *State, connID string, data json.RawMessage) []Effect {
	userID := target(data, "userId")
	if userID == "" {
		s.drop(connID, EventCheckOnlineStatus, data, "missing userId")
		return nil
	}

	state := s.Registry.State(userID)

	requester, _ := s.Registry.IdentityOf(connID)
	s.activity(userID, "STATUS_CHECKED", zap.String("requested_by", requester), zap.String("status", string(state)))

	return []Effect{Unicast(connID, EventOnlineStatusResponse, onlineStatusResponse{
		UserID:        userID,
		IsOnline:      state != domain.ViewingStateOffline,
		IsViewingChat: state == domain.ViewingStateViewing,
		Status:        state,
	})}
}

func typingHandler(inbound, outbound string) HandlerFunc {
	return func(s *State, connID string, data json.RawMessage) []Effect {
		var p struct {
			UserID         string `json:"userId"`
			RecipientID    string `json:"recipientId"`
			ConversationID string `json:"conversationId"`
		}
		if err := decode(data, &p); err != nil || p.UserID == "" {
			s.drop(connID, inbound, data, "missing userId")
			return nil
		}

		notice := typingNotice{UserID: p.UserID, ConversationID: p.ConversationID}

		if p.RecipientID != "" {
			recipientConn, ok := s.Registry.Lookup(p.RecipientID)
			if !ok {
				return nil
			}

			return []Effect{Unicast(recipientConn, outbound, notice)}
		}

		if p.ConversationID == "" {
			s.drop(connID, inbound, data, "missing recipientId and conversationId")
			return nil
		}

		return []Effect{ToRoom(p.ConversationID, connID, outbound, notice)}
	}
}

func handleUpdateConversation(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		ConversationID any  `json:"conversationId"`
		UserID         any  `json:"userId"`
		IsPemilikToko  bool `json:"isPemilikToko"`
	}
	if err := decode(data, &p); err != nil || text(p.UserID) == "" || p.ConversationID == nil {
		s.drop(connID, EventUpdateConversation, data, "missing userId or conversationId")
		return nil
	}

	prefix := domain.BuyerPrefix
	if p.IsPemilikToko {
		prefix = domain.SellerPrefix
	}

	userID := prefix + text(p.UserID)

	s.activity(userID, "CONVERSATION_UPDATE", zap.Any("conversation_id", p.ConversationID))

	return []Effect{Broadcast(EventUpdateConversationList, conversationListUpdate{
		ConversationID: p.ConversationID,
		UserID:         userID,
	})}
}

// relayed describes one chat message on its way from sender to recipient.
type relayed struct {
	SenderID       string
	RecipientID    string
	ConversationID string
	MessageID      any
	ForwardEvent   string
	Forward        any
}

// relay forwards a message to its recipient when present and reports the
// resulting check mark back to the sender.
func (s *State) relay(connID string, m relayed) []Effect {
	var effects []Effect

	recipientConn, online := s.Registry.Lookup(m.RecipientID)

	senderState := s.Registry.StateIn(m.SenderID, m.ConversationID)
	recipientState := s.Registry.StateIn(m.RecipientID, m.ConversationID)
	mark := delivery.Resolve(senderState, recipientState)

	s.activity(m.SenderID, "CHECK_MARK_CALCULATION",
		zap.String("sender_status", string(senderState)),
		zap.String("recipient_status", string(recipientState)),
		zap.String("recipient", m.RecipientID))

	status := delivery.Status(mark)
	if online {
		effects = append(effects, Unicast(recipientConn, m.ForwardEvent, m.Forward))

		s.activity(m.SenderID, "MESSAGE_RELAYED",
			zap.String("recipient", m.RecipientID),
			zap.Any("message_id", m.MessageID))
	} else {
		s.activity(m.SenderID, "RECIPIENT_OFFLINE",
			zap.String("recipient", m.RecipientID),
			zap.Any("message_id", m.MessageID))
	}

	mark = s.Ledger.Record(m.ConversationID, text(m.MessageID), mark)

	senderConn, ok := s.Registry.Lookup(m.SenderID)
	if !ok {
		senderConn = connID
	}

	return append(effects, Unicast(senderConn, EventUpdateMessageStatus, domain.MessageStatusUpdate{
		MessageIDs:      []any{m.MessageID},
		Status:          status,
		CheckMarkStatus: mark,
	}))
}

func handleSendMessage(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		SenderID       string `json:"senderId"`
		RecipientID    string `json:"recipientId"`
		ConversationID any    `json:"conversationId"`
		MessageID      any    `json:"messageId"`
	}
	if err := decode(data, &p); err != nil || p.SenderID == "" || p.RecipientID == "" {
		s.drop(connID, EventSendMessage, data, "missing senderId or recipientId")
		return nil
	}

	return s.relay(connID, relayed{
		SenderID:       p.SenderID,
		RecipientID:    p.RecipientID,
		ConversationID: text(p.ConversationID),
		MessageID:      p.MessageID,
		ForwardEvent:   EventReceiveMessage,
		Forward:        data,
	})
}

func handleNotifySeller(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		StoreID     any `json:"id_toko"`
		MessageData struct {
			ID             any `json:"id"`
			SenderID       any `json:"sender_id"`
			ConversationID any `json:"conversation_id"`
		} `json:"message_data"`
	}
	if err := decode(data, &p); err != nil || text(p.StoreID) == "" || text(p.MessageData.SenderID) == "" {
		s.drop(connID, EventNotifySeller, data, "missing id_toko or message_data.sender_id")
		return nil
	}

	return s.relay(connID, relayed{
		SenderID:       domain.BuyerPrefix + text(p.MessageData.SenderID),
		RecipientID:    domain.SellerPrefix + text(p.StoreID),
		ConversationID: text(p.MessageData.ConversationID),
		MessageID:      p.MessageData.ID,
		ForwardEvent:   EventSellerUpdateNotification,
		Forward:        data,
	})
}

func handleSendMessageToBuyer(s *State, connID string, data json.RawMessage) []Effect {
	var p struct {
		RecipientID    string `json:"recipientId"`
		SenderID       any    `json:"sender_id"`
		ID             any    `json:"id"`
		ConversationID any    `json:"conversation_id"`
	}
	if err := decode(data, &p); err != nil || p.RecipientID == "" || text(p.SenderID) == "" {
		s.drop(connID, EventSendMessageToBuyer, data, "missing recipientId or sender_id")
		return nil
	}

	return s.relay(connID, relayed{
		SenderID:       domain.SellerPrefix + text(p.SenderID),
		RecipientID:    p.RecipientID,
		ConversationID: text(p.ConversationID),
		MessageID:      p.ID,
		ForwardEvent:   EventReceiveMessage,
		Forward:        data,
	})
}

package dispatcher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam0glia/marketplace-relay/domain"
)

const (
	sellerConn = "c-seller"
	buyerConn  = "c-buyer"
	seller     = "toko_1"
	buyer      = "pembeli_5"
)

func newChat(t *testing.T) (*Dispatcher, *recordingSink) {
	t.Helper()

	sink := &recordingSink{}
	s := NewState(domain.NamespaceChat, nil)
	s.Sink = sink
	s.Now = func() time.Time { return time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC) }

	return NewChat(s), sink
}

func connect(t *testing.T, d *Dispatcher, connID, userID, role string) []Effect {
	t.Helper()

	return d.Dispatch(connID, EventUserConnect, raw(t, map[string]string{"userId": userID, "role": role}))
}

func startViewing(t *testing.T, d *Dispatcher, connID, userID, conversationID string) []Effect {
	t.Helper()

	return d.Dispatch(connID, EventStartViewingChat, raw(t, map[string]string{
		"userId":         userID,
		"conversationId": conversationID,
	}))
}

func sendMessage(t *testing.T, d *Dispatcher, connID, from, to, conversationID, messageID string) []Effect {
	t.Helper()

	return d.Dispatch(connID, EventSendMessage, raw(t, map[string]string{
		"senderId":       from,
		"recipientId":    to,
		"conversationId": conversationID,
		"messageId":      messageID,
		"message":        "halo kak",
	}))
}

func statusUpdate(t *testing.T, effects []Effect) (Effect, domain.MessageStatusUpdate) {
	t.Helper()

	e := single(t, effects, EventUpdateMessageStatus)
	update, ok := e.Payload.(domain.MessageStatusUpdate)
	require.True(t, ok)

	return e, update
}

func TestUserConnectBroadcastsPresence(t *testing.T) {
	d, sink := newChat(t)

	effects := connect(t, d, sellerConn, seller, "seller")

	e := single(t, effects, EventOnlineUsersUpdate)
	assert.Equal(t, TargetAll, e.Target)

	snapshot := e.Payload.(domain.OnlineUsersUpdate)
	assert.Equal(t, []string{seller}, snapshot.Users)
	assert.True(t, snapshot.Statuses[seller].IsOnline)

	require.Len(t, sink.changes, 1)
	assert.Equal(t, domain.PresenceChange{
		Namespace: domain.NamespaceChat,
		Identity:  seller,
		Role:      "seller",
		Online:    true,
	}, sink.changes[0])
}

func TestUserConnectMalformed(t *testing.T) {
	d, sink := newChat(t)

	for _, data := range []json.RawMessage{
		nil,
		json.RawMessage(`{}`),
		json.RawMessage(`{"userId":""}`),
		json.RawMessage(`{"userId":`),
		json.RawMessage(`"toko_1"`),
	} {
		assert.Nil(t, d.Dispatch(sellerConn, EventUserConnect, data), "payload %s", data)
	}

	assert.Zero(t, d.State().Registry.Count())
	assert.Empty(t, sink.changes)
}

// Scenario 1: the seller is offline.
func TestSendMessageRecipientOffline(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, buyerConn, buyer, "buyer")

	effects := sendMessage(t, d, buyerConn, buyer, seller, "c1", "m1")

	require.Len(t, effects, 1)
	e, update := statusUpdate(t, effects)
	assert.Equal(t, buyerConn, e.ConnID)
	assert.Equal(t, domain.MessageStatusSent, update.Status)
	assert.Equal(t, domain.CheckMarkSingle, update.CheckMarkStatus)
	assert.Equal(t, []any{"m1"}, update.MessageIDs)
}

// Scenario 2: the seller is online but not viewing.
func TestSendMessageRecipientConnected(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")

	effects := sendMessage(t, d, buyerConn, buyer, seller, "c1", "m1")

	forward := single(t, effects, EventReceiveMessage)
	assert.Equal(t, TargetConn, forward.Target)
	assert.Equal(t, sellerConn, forward.ConnID)
	assert.JSONEq(t, `{"senderId":"pembeli_5","recipientId":"toko_1","conversationId":"c1","messageId":"m1","message":"halo kak"}`,
		string(forward.Payload.(json.RawMessage)))

	e, update := statusUpdate(t, effects)
	assert.Equal(t, buyerConn, e.ConnID)
	assert.Equal(t, domain.MessageStatusDelivered, update.Status)
	assert.Equal(t, domain.CheckMarkDoubleGray, update.CheckMarkStatus)
}

// Scenario 3: the seller is viewing the conversation.
func TestSendMessageRecipientViewing(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")
	startViewing(t, d, sellerConn, seller, "c1")

	_, update := statusUpdate(t, sendMessage(t, d, buyerConn, buyer, seller, "c1", "m1"))
	assert.Equal(t, domain.MessageStatusDelivered, update.Status)
	assert.Equal(t, domain.CheckMarkDoubleBlue, update.CheckMarkStatus)
}

func TestSendMessageRecipientViewingOtherConversation(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")
	startViewing(t, d, sellerConn, seller, "c2")

	_, update := statusUpdate(t, sendMessage(t, d, buyerConn, buyer, seller, "c1", "m1"))
	assert.Equal(t, domain.MessageStatusDelivered, update.Status)
	assert.Equal(t, domain.CheckMarkDoubleGray, update.CheckMarkStatus)
}

// Scenario 4: the buyer reads the conversation the seller is viewing.
func TestMarkMessagesAsRead(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")
	startViewing(t, d, sellerConn, seller, "c1")
	startViewing(t, d, buyerConn, buyer, "c1")

	effects := d.Dispatch(buyerConn, EventMarkMessagesAsRead, raw(t, map[string]string{
		"conversationId": "c1",
		"readerId":       buyer,
	}))

	e := single(t, effects, EventMessagesWereRead)
	assert.Equal(t, TargetRoom, e.Target)
	assert.Equal(t, "c1", e.Room)
	assert.Equal(t, buyerConn, e.Exclude)
	assert.Equal(t, domain.MessagesWereRead{
		ConversationID:  "c1",
		ReaderID:        buyer,
		CheckMarkStatus: domain.CheckMarkDoubleBlue,
	}, e.Payload)

	assert.Contains(t, d.State().Registry.Members("c1"), sellerConn)
}

func TestReadIsTerminal(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")

	_, update := statusUpdate(t, sendMessage(t, d, sellerConn, seller, buyer, "c1", "m1"))
	require.Equal(t, domain.CheckMarkDoubleGray, update.CheckMarkStatus)

	d.Dispatch(buyerConn, EventMarkMessagesAsRead, raw(t, map[string]string{"conversationId": "c1", "readerId": buyer}))

	effects := d.Dispatch(sellerConn, EventRequestMessageStatus, raw(t, map[string]any{
		"conversationId": "c1",
		"messageIds":     []string{"m1"},
	}))

	e := single(t, effects, EventMessageStatusResponse)
	response := e.Payload.(messageStatusResponse)
	assert.Equal(t, domain.CheckMarkDoubleBlue, response.Statuses["m1"])
	assert.True(t, response.Read)

	// Resending the same message while the buyer is merely connected keeps it read.
	_, update = statusUpdate(t, sendMessage(t, d, sellerConn, seller, buyer, "c1", "m1"))
	assert.Equal(t, domain.CheckMarkDoubleBlue, update.CheckMarkStatus)
}

func TestSendMessageMissingIdentity(t *testing.T) {
	d, _ := newChat(t)

	effects := d.Dispatch(buyerConn, EventSendMessage, raw(t, map[string]string{"recipientId": seller}))
	assert.Nil(t, effects)
}

func TestStatusUpdateGoesToRegisteredSenderConnection(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, buyerConn, buyer, "buyer")

	// The message is emitted from a helper connection that never registered.
	effects := sendMessage(t, d, "c-other", buyer, seller, "c1", "m1")

	e, _ := statusUpdate(t, effects)
	assert.Equal(t, buyerConn, e.ConnID)

	effects = sendMessage(t, d, "c-other", "pembeli_9", seller, "c1", "m2")
	e, _ = statusUpdate(t, effects)
	assert.Equal(t, "c-other", e.ConnID, "unregistered sender falls back to the emitting connection")
}

func TestNotifySeller(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")

	data := raw(t, map[string]any{
		"id_toko": 1,
		"message_data": map[string]any{
			"id":              77,
			"sender_id":       5,
			"conversation_id": 9,
			"message":         "barang ready?",
		},
	})

	effects := d.Dispatch(buyerConn, EventNotifySeller, data)

	forward := single(t, effects, EventSellerUpdateNotification)
	assert.Equal(t, sellerConn, forward.ConnID)

	e, update := statusUpdate(t, effects)
	assert.Equal(t, buyerConn, e.ConnID)
	assert.Equal(t, domain.CheckMarkDoubleGray, update.CheckMarkStatus)
	assert.Equal(t, []any{json.Number("77")}, update.MessageIDs)

	assert.Equal(t, map[string]domain.CheckMark{"77": domain.CheckMarkDoubleGray},
		d.State().Ledger.Status("9", []string{"77"}))
}

func TestNotifySellerMissingStore(t *testing.T) {
	d, _ := newChat(t)

	assert.Nil(t, d.Dispatch(buyerConn, EventNotifySeller, raw(t, map[string]any{
		"message_data": map[string]any{"sender_id": 5},
	})))
}

func TestSendMessageToBuyer(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	connect(t, d, buyerConn, buyer, "buyer")
	startViewing(t, d, buyerConn, buyer, "9")

	effects := d.Dispatch(sellerConn, EventSendMessageToBuyer, raw(t, map[string]any{
		"recipientId":     buyer,
		"sender_id":       1,
		"id":              "m-5",
		"conversation_id": 9,
	}))

	forward := single(t, effects, EventReceiveMessage)
	assert.Equal(t, buyerConn, forward.ConnID)

	e, update := statusUpdate(t, effects)
	assert.Equal(t, sellerConn, e.ConnID)
	assert.Equal(t, domain.CheckMarkDoubleBlue, update.CheckMarkStatus)
}

func TestStartAndStopViewingNotifyRoomPeers(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")

	effects := startViewing(t, d, sellerConn, seller, "c1")

	single(t, effects, EventOnlineUsersUpdate)
	e := single(t, effects, EventViewingStatusChanged)
	assert.Equal(t, TargetRoom, e.Target)
	assert.Equal(t, "c1", e.Room)
	assert.Equal(t, sellerConn, e.Exclude)
	assert.Equal(t, viewingStatusChanged{UserID: seller, IsViewing: true, ConversationID: "c1"}, e.Payload)

	effects = d.Dispatch(sellerConn, EventStopViewingChat, raw(t, map[string]string{"userId": seller, "conversationId": "c1"}))

	e = single(t, effects, EventViewingStatusChanged)
	assert.Equal(t, viewingStatusChanged{UserID: seller, IsViewing: false, ConversationID: "c1"}, e.Payload)
	assert.Equal(t, domain.ViewingStateConnected, d.State().Registry.State(seller))
	assert.Empty(t, d.State().Registry.Members("c1"))
}

func TestStopViewingWithoutConversationUsesCurrent(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	startViewing(t, d, sellerConn, seller, "c1")

	effects := d.Dispatch(sellerConn, EventStopViewingChat, raw(t, map[string]string{"userId": seller}))

	e := single(t, effects, EventViewingStatusChanged)
	assert.Equal(t, "c1", e.Room)
	assert.Empty(t, d.State().Registry.Members("c1"))
}

func TestSwitchingConversationNotifiesPreviousRoom(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	startViewing(t, d, sellerConn, seller, "c1")

	effects := startViewing(t, d, sellerConn, seller, "c2")

	notices := byEvent(effects, EventViewingStatusChanged)
	require.Len(t, notices, 2)
	assert.Equal(t, "c1", notices[0].Room)
	assert.False(t, notices[0].Payload.(viewingStatusChanged).IsViewing)
	assert.Equal(t, "c2", notices[1].Room)
	assert.True(t, notices[1].Payload.(viewingStatusChanged).IsViewing)
}

func TestViewingUnregisteredIsNoop(t *testing.T) {
	d, _ := newChat(t)

	assert.Nil(t, startViewing(t, d, sellerConn, seller, "c1"))
	assert.Nil(t, d.Dispatch(sellerConn, EventStopViewingChat, raw(t, map[string]string{"userId": seller, "conversationId": "c1"})))
	assert.Empty(t, d.State().Registry.Members("c1"))
}

func TestRequestStatusUpdate(t *testing.T) {
	d, _ := newChat(t)

	assert.Nil(t, d.Dispatch(sellerConn, EventRequestStatusUpdate, nil), "unregistered requester")

	connect(t, d, sellerConn, seller, "seller")

	effects := d.Dispatch(sellerConn, EventRequestStatusUpdate, nil)

	e := single(t, effects, EventOnlineUsersUpdate)
	assert.Equal(t, TargetConn, e.Target)
	assert.Equal(t, sellerConn, e.ConnID)
}

func TestLogoutNotifiesRoomBeforeRemoval(t *testing.T) {
	d, sink := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	startViewing(t, d, sellerConn, seller, "c1")

	effects := d.Dispatch(sellerConn, EventUserLogout, raw(t, map[string]any{"userId": seller, "isPemilikToko": true}))

	require.Len(t, effects, 3)
	assert.Equal(t, EventViewingStatusChanged, effects[0].Event)
	assert.Equal(t, viewingStatusChanged{UserID: seller, IsViewing: false, ConversationID: "c1"}, effects[0].Payload)
	assert.Equal(t, EventUserDisconnected, effects[1].Event)
	assert.Equal(t, userDisconnected{UserID: seller}, effects[1].Payload)
	assert.Equal(t, EventOnlineUsersUpdate, effects[2].Event)
	assert.Empty(t, effects[2].Payload.(domain.OnlineUsersUpdate).Users)

	_, ok := d.State().Registry.Lookup(seller)
	assert.False(t, ok)

	last := sink.changes[len(sink.changes)-1]
	assert.False(t, last.Online)
	assert.Equal(t, seller, last.Identity)

	assert.Nil(t, d.Dispatch(sellerConn, EventUserLogout, raw(t, map[string]any{"userId": seller})), "second logout is a no-op")
	assert.Nil(t, d.Disconnect(sellerConn), "disconnect after logout is a no-op")
}

func TestDisconnectIsIdempotent(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, buyerConn, buyer, "buyer")
	d.Dispatch(buyerConn, EventJoinRoom, json.RawMessage(`"c1"`))

	effects := d.Disconnect(buyerConn)
	require.Len(t, effects, 2)
	single(t, effects, EventUserDisconnected)
	single(t, effects, EventOnlineUsersUpdate)

	assert.Nil(t, d.Disconnect(buyerConn))
	assert.Empty(t, d.State().Registry.Members("c1"))
	assert.Zero(t, d.State().Registry.Count())
}

func TestReRegistrationDetachesSupersededConnection(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	startViewing(t, d, sellerConn, seller, "c1")

	effects := connect(t, d, "c-seller-2", seller, "seller")

	notice := single(t, effects, EventViewingStatusChanged)
	assert.Equal(t, "c1", notice.Room)
	assert.False(t, notice.Payload.(viewingStatusChanged).IsViewing)

	connID, _ := d.State().Registry.Lookup(seller)
	assert.Equal(t, "c-seller-2", connID)
	assert.Empty(t, d.State().Registry.Members("c1"))

	assert.Nil(t, d.Disconnect(sellerConn), "late disconnect of the old connection is an unknown disconnect")

	connID, ok := d.State().Registry.Lookup(seller)
	require.True(t, ok)
	assert.Equal(t, "c-seller-2", connID)
}

func TestJoinAndLeaveRoom(t *testing.T) {
	d, _ := newChat(t)

	assert.Nil(t, d.Dispatch(sellerConn, EventJoinRoom, json.RawMessage(`{"conversationId":"c1"}`)))
	assert.Equal(t, []string{sellerConn}, d.State().Registry.Members("c1"))

	assert.Nil(t, d.Dispatch(sellerConn, EventLeaveRoom, json.RawMessage(`"c1"`)))
	assert.Empty(t, d.State().Registry.Members("c1"))

	assert.Nil(t, d.Dispatch(sellerConn, EventJoinRoom, json.RawMessage(`{}`)))
}

func TestCheckOnlineStatus(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")
	startViewing(t, d, sellerConn, seller, "c1")

	tests := []struct {
		name string
		data json.RawMessage
		want onlineStatusResponse
	}{
		{
			name: "viewing",
			data: json.RawMessage(`"toko_1"`),
			want: onlineStatusResponse{UserID: seller, IsOnline: true, IsViewingChat: true, Status: domain.ViewingStateViewing},
		},
		{
			name: "offline",
			data: json.RawMessage(`{"userId":"pembeli_5"}`),
			want: onlineStatusResponse{UserID: buyer, Status: domain.ViewingStateOffline},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := single(t, d.Dispatch(buyerConn, EventCheckOnlineStatus, tt.data), EventOnlineStatusResponse)
			assert.Equal(t, buyerConn, e.ConnID)
			assert.Equal(t, tt.want, e.Payload)
		})
	}
}

func TestTyping(t *testing.T) {
	d, _ := newChat(t)

	connect(t, d, sellerConn, seller, "seller")

	effects := d.Dispatch(buyerConn, EventTypingStart, raw(t, map[string]string{
		"userId":         buyer,
		"recipientId":    seller,
		"conversationId": "c1",
	}))
	e := single(t, effects, EventTypingStartFromServer)
	assert.Equal(t, TargetConn, e.Target)
	assert.Equal(t, sellerConn, e.ConnID)

	effects = d.Dispatch(buyerConn, EventTypingStop, raw(t, map[string]string{
		"userId":         buyer,
		"conversationId": "c1",
	}))
	e = single(t, effects, EventTypingStopFromServer)
	assert.Equal(t, TargetRoom, e.Target)
	assert.Equal(t, buyerConn, e.Exclude)

	effects = d.Dispatch(buyerConn, EventTypingStart, raw(t, map[string]string{
		"userId":      buyer,
		"recipientId": "toko_404",
	}))
	assert.Empty(t, effects, "offline recipient gets nothing")
}

func TestUpdateConversation(t *testing.T) {
	d, _ := newChat(t)

	effects := d.Dispatch(sellerConn, EventUpdateConversation, raw(t, map[string]any{
		"conversationId": 9,
		"userId":         1,
		"isPemilikToko":  true,
	}))

	e := single(t, effects, EventUpdateConversationList)
	assert.Equal(t, TargetAll, e.Target)
	assert.Equal(t, conversationListUpdate{ConversationID: json.Number("9"), UserID: seller}, e.Payload)
}

func TestPresenceSinkFullDoesNotBlock(t *testing.T) {
	d, sink := newChat(t)
	sink.full = true

	effects := connect(t, d, sellerConn, seller, "seller")

	single(t, effects, EventOnlineUsersUpdate)
	assert.Equal(t, 1, d.State().Registry.Count())
}

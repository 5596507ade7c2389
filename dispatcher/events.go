package dispatcher

// Inbound chat events.
const (
	EventUserConnect          = "user_connect"
	EventStartViewingChat     = "start_viewing_chat"
	EventStopViewingChat      = "stop_viewing_chat"
	EventRequestStatusUpdate  = "request_status_update"
	EventUserLogout           = "user_logout"
	EventJoinRoom             = "join_room"
	EventLeaveRoom            = "leave_room"
	EventSendMessage          = "send_message"
	EventNotifySeller         = "notify_seller"
	EventSendMessageToBuyer   = "send_message_to_buyer"
	EventMarkMessagesAsRead   = "mark_messages_as_read"
	EventRequestMessageStatus = "request_message_status"
	EventCheckOnlineStatus    = "check_online_status"
	EventTypingStart          = "typing_start"
	EventTypingStop           = "typing_stop"
	EventUpdateConversation   = "update_conversation"
)

// Outbound chat events.
const (
	EventOnlineUsersUpdate        = "online_users_update"
	EventViewingStatusChanged     = "user_viewing_status_changed"
	EventUserDisconnected         = "user_disconnected"
	EventSellerUpdateNotification = "seller_update_notification"
	EventReceiveMessage           = "receive_message"
	EventUpdateMessageStatus      = "update_message_status"
	EventMessagesWereRead         = "messages_were_read"
	EventMessageStatusResponse    = "message_status_response"
	EventOnlineStatusResponse     = "online_status_response"
	EventTypingStartFromServer    = "typing_start_from_server"
	EventTypingStopFromServer     = "typing_stop_from_server"
	EventUpdateConversationList   = "update_conversation_list"
)

// Notification namespaces.
const (
	EventRegisterUser = "register_user"

	EventRequestRefundFromBuyer      = "request_refund_from_buyer"
	EventNewRefundNotification       = "new_refund_notification"
	EventRefundStatusUpdate          = "refund_status_update"
	EventRefundStatusChanged         = "refund_status_changed"
	EventCheckRefundStatus           = "check_refund_status"
	EventRefundStatusCheckResponse   = "refund_status_check_response"
	EventBroadcastRefundAnnouncement = "broadcast_refund_announcement"
	EventRefundAnnouncement          = "refund_announcement"

	EventRequestCancellationFromBuyer      = "request_cancellation_from_buyer"
	EventNewCancellationNotification       = "new_cancellation_notification"
	EventRespondToCancellation             = "respond_to_cancellation"
	EventCancellationResponse              = "cancellation_response"
	EventCancellationStatusUpdate          = "cancellation_status_update"
	EventCancellationStatusChanged         = "cancellation_status_changed"
	EventCheckCancellationStatus           = "check_cancellation_status"
	EventCancellationStatusCheckResponse   = "cancellation_status_check_response"
	EventBroadcastCancellationAnnouncement = "broadcast_cancellation_announcement"
	EventCancellationAnnouncement          = "cancellation_announcement"
	EventCancelCancellationRequest         = "cancel_cancellation_request"
	EventCancellationRequestCancelled      = "cancellation_request_cancelled"

	EventNewOrderPlaced       = "new_order_placed"
	EventNewOrderNotification = "new_order_notification"
	EventOrderStatusUpdated   = "order_status_updated"
)

// Root namespace.
const (
	EventServerInfo      = "server_info"
	EventGetServerStatus = "get_server_status"
	EventServerStatus    = "server_status"
)

package domain

type CheckMark string

const (
	CheckMarkSingle     CheckMark = "single"
	CheckMarkDoubleGray CheckMark = "double_gray"
	CheckMarkDoubleBlue CheckMark = "double_blue"
)

// Rank orders check marks so that a later mark never lowers an earlier one.
func (c CheckMark) Rank() int {
	switch c {
	case CheckMarkDoubleGray:
		return 1
	case CheckMarkDoubleBlue:
		return 2
	default:
		return 0
	}
}

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
)

type MessageStatusUpdate struct {
	MessageIDs      []any         `json:"messageIds"`
	Status          MessageStatus `json:"status"`
	CheckMarkStatus CheckMark     `json:"checkMarkStatus"`
}

type MessagesWereRead struct {
	ConversationID  string    `json:"conversationId"`
	ReaderID        string    `json:"readerId"`
	CheckMarkStatus CheckMark `json:"checkMarkStatus"`
}

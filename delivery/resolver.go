package delivery

import "github.com/lam0glia/marketplace-relay/domain"

// Resolve derives the check mark of a message from the recipient's presence.
// The sender state does not change the verdict.
func Resolve(_ domain.ViewingState, recipient domain.ViewingState) domain.CheckMark {
	switch recipient {
	case domain.ViewingStateViewing:
		return domain.CheckMarkDoubleBlue
	case domain.ViewingStateConnected:
		return domain.CheckMarkDoubleGray
	default:
		return domain.CheckMarkSingle
	}
}

// Status is the sender-facing status that goes with a check mark.
func Status(mark domain.CheckMark) domain.MessageStatus {
	if mark == domain.CheckMarkSingle {
		return domain.MessageStatusSent
	}

	return domain.MessageStatusDelivered
}

package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lam0glia/marketplace-relay/domain"
)

func TestResolve(t *testing.T) {
	states := []domain.ViewingState{
		domain.ViewingStateOffline,
		domain.ViewingStateConnected,
		domain.ViewingStateViewing,
	}

	tests := []struct {
		recipient domain.ViewingState
		want      domain.CheckMark
	}{
		{domain.ViewingStateOffline, domain.CheckMarkSingle},
		{domain.ViewingStateConnected, domain.CheckMarkDoubleGray},
		{domain.ViewingStateViewing, domain.CheckMarkDoubleBlue},
		{domain.ViewingState(""), domain.CheckMarkSingle},
	}

	for _, tt := range tests {
		t.Run(string(tt.recipient), func(t *testing.T) {
			for _, sender := range states {
				assert.Equal(t, tt.want, Resolve(sender, tt.recipient), "sender %s", sender)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, domain.MessageStatusSent, Status(domain.CheckMarkSingle))
	assert.Equal(t, domain.MessageStatusDelivered, Status(domain.CheckMarkDoubleGray))
	assert.Equal(t, domain.MessageStatusDelivered, Status(domain.CheckMarkDoubleBlue))
}

package use_case

import (
	"context"
	"fmt"

	"github.com/lam0glia/marketplace-relay/domain"
)

type updatePresence struct {
	presenceWriter domain.PresenceWriter
}

func (uc *updatePresence) Execute(ctx context.Context, change domain.PresenceChange) error {
	if change.Online {
		if err := uc.presenceWriter.SetOnline(ctx, change.Namespace, change.Identity, change.Role); err != nil {
			return fmt.Errorf("failed to set %s online: %w", change.Identity, err)
		}

		return nil
	}

	if err := uc.presenceWriter.SetOffline(ctx, change.Namespace, change.Identity); err != nil {
		return fmt.Errorf("failed to set %s offline: %w", change.Identity, err)
	}

	return nil
}

func NewUpdatePresence(presenceWriter domain.PresenceWriter) *updatePresence {
	return &updatePresence{
		presenceWriter: presenceWriter,
	}
}

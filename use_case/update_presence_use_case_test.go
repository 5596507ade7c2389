package use_case

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lam0glia/marketplace-relay/domain"
)

type fakePresenceWriter struct {
	online  map[string]string
	err     error
	refresh int
}

func (f *fakePresenceWriter) SetOnline(_ context.Context, namespace, identity, role string) error {
	if f.err != nil {
		return f.err
	}

	f.online[namespace+"/"+identity] = role
	return nil
}

func (f *fakePresenceWriter) SetOffline(_ context.Context, namespace, identity string) error {
	if f.err != nil {
		return f.err
	}

	delete(f.online, namespace+"/"+identity)
	return nil
}

func (f *fakePresenceWriter) Refresh(context.Context, string, string) error {
	f.refresh++
	return f.err
}

func TestUpdatePresence(t *testing.T) {
	writer := &fakePresenceWriter{online: map[string]string{}}
	uc := NewUpdatePresence(writer)
	ctx := context.Background()

	require.NoError(t, uc.Execute(ctx, domain.PresenceChange{
		Namespace: domain.NamespaceChat,
		Identity:  "toko_1",
		Role:      "seller",
		Online:    true,
	}))
	assert.Equal(t, map[string]string{"chat/toko_1": "seller"}, writer.online)

	require.NoError(t, uc.Execute(ctx, domain.PresenceChange{
		Namespace: domain.NamespaceChat,
		Identity:  "toko_1",
	}))
	assert.Empty(t, writer.online)
}

func TestUpdatePresenceWrapsError(t *testing.T) {
	unavailable := errors.New("connection refused")
	uc := NewUpdatePresence(&fakePresenceWriter{err: unavailable})

	err := uc.Execute(context.Background(), domain.PresenceChange{Identity: "pembeli_5", Online: true})

	assert.ErrorIs(t, err, unavailable)
	assert.ErrorContains(t, err, "pembeli_5")
}

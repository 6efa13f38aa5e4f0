package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"librarydesk/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := NewSession(model.Principal{Kind: model.PrincipalStaff, ID: 1, Username: "admin", Role: model.RoleAdmin}, 0)
	require.NotEmpty(t, s.ID)
	require.WithinDuration(t, time.Now().UTC().Add(DefaultSessionTTL), s.ExpiresAt, time.Minute)

	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, int64(1), got.Principal.ID)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s := NewSession(model.Principal{Kind: model.PrincipalMember, ID: 2}, time.Millisecond)
	require.NoError(t, store.Put(ctx, s))

	time.Sleep(5 * time.Millisecond)
	_, err := store.Get(ctx, s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreUnknownID(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

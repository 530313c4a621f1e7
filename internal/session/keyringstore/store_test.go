package keyringstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rentalx-dev/rentalx/internal/session"
)

func TestStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	store := New("rentalx-test")

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, session.ErrNotFound)

	want := session.Session{UserID: "1", Name: "A", Email: "a@b.com", DriverLicense: "42", Token: "T1"}
	require.NoError(t, store.Put(ctx, want))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	require.NoError(t, store.Put(ctx, session.Session{UserID: "2", Token: "T2"}))
	got, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", got.UserID)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	store := New("")

	require.NoError(t, store.Put(ctx, session.Session{UserID: "1", Token: "T1"}))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_KeychainUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	t.Cleanup(keyring.MockInit)
	ctx := context.Background()
	store := New("rentalx-test")

	err := store.Put(ctx, session.Session{UserID: "1", Token: "T1"})
	assert.ErrorContains(t, err, "keychain locked")

	_, err = store.Get(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)
}

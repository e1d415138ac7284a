package academy

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client)
}

func TestStoreGetReturnsDefaultsWhenEmpty(t *testing.T) {
	store := newTestStore(t)

	info, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BJJ Mingo", info.Name)
	assert.NotEmpty(t, info.WhatToBring)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	info := DefaultInfo()
	info.Name = "BJJ Mingo Heredia"
	info.Contacts = NotificationContacts{
		PrimaryWhatsApp:   "+50688880001",
		SecondaryWhatsApp: "+50688880002",
		Email:             "staff@bjjmingo.cr",
	}
	require.NoError(t, store.Set(context.Background(), info))

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BJJ Mingo Heredia", got.Name)
	assert.Equal(t, "+50688880001", got.Contacts.PrimaryWhatsApp)
	assert.Equal(t, "staff@bjjmingo.cr", got.Contacts.Email)
}

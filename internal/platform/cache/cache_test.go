package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	val, ok := s.data[key]
	if !ok {
		return "", ErrMiss
	}
	return val, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

type snapshot struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "occupancy", snapshot{Total: 40, Occupied: 12}))

	var got snapshot
	require.NoError(t, c.Get(ctx, "occupancy", &got))
	assert.Equal(t, 40, got.Total)
	assert.Equal(t, 12, got.Occupied)
}

func TestCache_Miss(t *testing.T) {
	c := New(newMemStore(), time.Minute)

	var got snapshot
	err := c.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "revenue", snapshot{Total: 1}))
	require.NoError(t, c.Invalidate(ctx, "revenue"))

	var got snapshot
	assert.ErrorIs(t, c.Get(ctx, "revenue", &got), ErrMiss)
}

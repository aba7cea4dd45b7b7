package store

import (
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open("db", vfs.NewMem())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSetGetDelete(t *testing.T) {
	s := openMem(t)
	require.True(t, s.Ready())

	_, err := s.Get("users/1")
	require.True(t, IsNotFound(err))

	require.NoError(t, s.Set("users/1", []byte(`{"id":1}`)))
	v, err := s.Get("users/1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(v))

	require.NoError(t, s.Delete("users/1"))
	_, err = s.Get("users/1")
	assert.True(t, IsNotFound(err))
}

func TestStoreListPrefix(t *testing.T) {
	s := openMem(t)
	for _, k := range []string{"users/2", "users/1", "usersx", "avatars/1", "users/3"} {
		require.NoError(t, s.Set(k, []byte(k)))
	}
	got, err := s.List("users/", 0)
	require.NoError(t, err)
	keys := make([]string, 0, len(got))
	for _, kv := range got {
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"users/1", "users/2", "users/3"}, keys)

	got, err = s.List("users/", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStoreClosed(t *testing.T) {
	s := openMem(t)
	require.NoError(t, s.Close())
	assert.False(t, s.Ready())
	_, err := s.Get("x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("x", nil), ErrClosed)
	require.NoError(t, s.Close())
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixUpperBound([]byte("a")))
	assert.Equal(t, []byte("a0"), prefixUpperBound([]byte("a/")))
	assert.Nil(t, prefixUpperBound([]byte{0xff, 0xff}))
	assert.Nil(t, prefixUpperBound(nil))
}

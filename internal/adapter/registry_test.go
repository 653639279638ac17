package adapter

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinAdaptersRegistered(t *testing.T) {
	assert.True(t, IsRegistered("mysql"))
	assert.True(t, IsRegistered("postgres"))
	assert.False(t, IsRegistered("oracle"))

	names := ListAdapters()
	assert.Contains(t, names, "mysql")
	assert.Contains(t, names, "postgres")
}

func TestNewAdapter(t *testing.T) {
	ad, err := NewAdapter(Config{Type: "mysql"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql", ad.DialectName())

	ad, err = NewAdapter(Config{Type: "postgres"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, "postgres", ad.DialectName())
}

func TestNewAdapterUnknownType(t *testing.T) {
	_, err := NewAdapter(Config{Type: "sybase"}, nil)
	require.Error(t, err)

	var unknown *UnknownAdapterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "sybase", unknown.Type)
	assert.Contains(t, unknown.Available, "mysql")
}

func TestNewAdapterMissingType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	assert.Error(t, err)
}

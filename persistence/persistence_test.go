package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue/internal/config"
	"venue/internal/domain"
	"venue/internal/engine"
	"venue/internal/money"
)

func TestSaveLoad_RoundTrips(t *testing.T) {
	eng := engine.New(config.Default())

	price, err := money.ParsePrice("99")
	require.NoError(t, err)
	qty, err := money.ParseQuantity("10")
	require.NoError(t, err)
	_, err = eng.Submit(engine.SubmitRequest{
		Symbol:   "AAPL",
		Side:     domain.Buy,
		Type:     domain.Limit,
		Quantity: qty,
		Price:    &price,
		Owner:    "alice",
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := Build(eng)
	require.NoError(t, Save(snap, path))

	loaded, ok, err := Load(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, CurrentVersion, loaded.Version)
	require.Contains(t, loaded.Symbols, "AAPL")
	require.Len(t, loaded.Symbols["AAPL"].RestingOrders, 1)

	restored := engine.New(config.Default())
	require.NoError(t, Restore(restored, loaded))

	bbo, err := restored.BBO("AAPL")
	require.NoError(t, err)
	require.NotNil(t, bbo.Bid)
	assert.Equal(t, "99", bbo.Bid.String())
}

func TestLoad_MissingFileReturnsNotOkWithoutError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	_, ok, err := Load(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_RejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := Snapshot{Version: CurrentVersion + 1, Symbols: map[string]SymbolSnapshot{}}
	require.NoError(t, Save(snap, path))

	_, ok, err := Load(path)
	assert.Error(t, err)
	assert.False(t, ok)
}

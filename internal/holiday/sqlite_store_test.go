package holiday

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "holidays.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)

	first := domain.HolidayYear{Year: 2024, Dates: []string{"2024-01-26"}, FetchedAt: 1}
	require.NoError(t, store.Set(ctx, first))

	second := domain.HolidayYear{Year: 2024, Dates: []string{"2024-01-26", "2024-03-08"}, FetchedAt: 2}
	require.NoError(t, store.Set(ctx, second))

	got, ok, err := store.Get(ctx, 2024)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidity-lab/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestCompositeStore_ReplaceAllRoundTrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewCompositeStore(conn)

	rows := []domain.CompositeRow{
		{
			Date:          domain.MustDate("2025-01-01"),
			FiscalIndex:   ptr(0.4),
			MonetaryIndex: ptr(-0.2),
			PlumbingIndex: ptr(0.1),
			Composite:     ptr(0.13),
			Regime:        domain.RegimeNeutral,
		},
		{
			Date:      domain.MustDate("2025-01-02"),
			Composite: ptr(-1.4),
			Regime:    domain.RegimeVeryTight,
		},
		{
			// fully missing row: warm-up period before the z-score window
			Date: domain.MustDate("2025-01-03"),
		},
	}

	require.NoError(t, store.ReplaceAll(ctx, rows))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "2025-01-01", got[0].Date.String())
	require.NotNil(t, got[0].Composite)
	assert.InDelta(t, 0.13, *got[0].Composite, 1e-12)
	assert.Equal(t, domain.RegimeNeutral, got[0].Regime)
	assert.Nil(t, got[0].CompositeMA5)

	assert.Equal(t, domain.RegimeVeryTight, got[1].Regime)

	assert.Nil(t, got[2].Composite)
	assert.Equal(t, domain.Regime(""), got[2].Regime)
}

func TestCompositeStore_ReplaceAllSupersedes(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewCompositeStore(conn)

	first := []domain.CompositeRow{
		{Date: domain.MustDate("2025-01-01"), Composite: ptr(0.5), Regime: domain.RegimeNeutral},
		{Date: domain.MustDate("2025-01-02"), Composite: ptr(0.6), Regime: domain.RegimeLoose},
	}
	require.NoError(t, store.ReplaceAll(ctx, first))

	second := []domain.CompositeRow{
		{Date: domain.MustDate("2025-01-01"), Composite: ptr(0.7), Regime: domain.RegimeLoose},
	}
	require.NoError(t, store.ReplaceAll(ctx, second))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "replace supersedes the previous mirror completely")
	assert.InDelta(t, 0.7, *got[0].Composite, 1e-12)
}

func TestCompositeStore_EmptyMirror(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	store := NewCompositeStore(conn)

	require.NoError(t, store.ReplaceAll(ctx, nil))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

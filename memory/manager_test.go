package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_AllocWithinOneRegion(t *testing.T) {
	m := NewManager()
	defer m.Reset()

	c, err := m.Alloc(100, Freeable)
	require.NoError(t, err)
	require.Equal(t, 100, c.Size())
	require.Len(t, c.Bytes(), 100)

	stats := m.Stats()
	require.Equal(t, int64(100), stats.Allocated)
	require.Equal(t, int64(0), stats.Freed)
	require.Equal(t, int64(100), stats.Live)
}

func TestManager_AllocRejectsNonPositiveSize(t *testing.T) {
	m := NewManager()
	defer m.Reset()
	_, err := m.Alloc(0, Freeable)
	require.Error(t, err)
	_, err = m.Alloc(-1, Freeable)
	require.Error(t, err)
}

// TestManager_ConservationInvariant exercises spec.md §8's "Memory manager
// conservation" property across a mixed alloc/free sequence: Allocated -
// Freed must always equal Live.
func TestManager_ConservationInvariant(t *testing.T) {
	m := NewManager()
	defer m.Reset()

	var blocks []*Code
	for i := 0; i < 8; i++ {
		c, err := m.Alloc(4096, Freeable)
		require.NoError(t, err)
		blocks = append(blocks, c)
	}
	for i, c := range blocks {
		if i%2 == 0 {
			require.NoError(t, m.Free(c))
		}
	}
	stats := m.Stats()
	require.Equal(t, stats.Allocated-stats.Freed, stats.Live)
}

// TestManager_PermanentBlocksIgnoreFree verifies spec.md §4.5: Free is a
// no-op on a Permanent allocation, so Live never drops for it.
func TestManager_PermanentBlocksIgnoreFree(t *testing.T) {
	m := NewManager()
	defer m.Reset()

	c, err := m.Alloc(64, Permanent)
	require.NoError(t, err)
	require.NoError(t, m.Free(c))

	stats := m.Stats()
	require.Equal(t, int64(64), stats.Live)
	require.Equal(t, int64(0), stats.Freed)
}

// TestManager_GrowsWithSecondRegion forces an allocation larger than a
// single region's firstFit capacity so a second OS reservation kicks in.
func TestManager_GrowsWithSecondRegion(t *testing.T) {
	m := NewManager()
	defer m.Reset()

	c1, err := m.Alloc(defaultRegionSize, Freeable)
	require.NoError(t, err)
	c2, err := m.Alloc(defaultRegionSize, Freeable)
	require.NoError(t, err)

	require.NotEqual(t, c1.Addr(), c2.Addr())
	require.Len(t, m.regions, 2)
}

// TestManager_FreeingAllBlocksInARegionReclaimsIt verifies region coalescing:
// once every block in a region is freed and another non-empty region exists,
// the emptied region is returned to the OS.
func TestManager_FreeingAllBlocksInARegionReclaimsIt(t *testing.T) {
	m := NewManager()
	defer m.Reset()

	a, err := m.Alloc(defaultRegionSize, Freeable)
	require.NoError(t, err)
	b, err := m.Alloc(defaultRegionSize, Freeable)
	require.NoError(t, err)
	require.Len(t, m.regions, 2)

	require.NoError(t, m.Free(a))
	require.Len(t, m.regions, 1, "emptied region should be reclaimed once another region is alive")

	require.NoError(t, m.Free(b))
}

func TestManager_ResetIsIdempotent(t *testing.T) {
	m := NewManager()
	_, err := m.Alloc(128, Freeable)
	require.NoError(t, err)

	require.NoError(t, m.Reset())
	require.Equal(t, Stats{}, m.Stats())
	require.NoError(t, m.Reset()) // second Reset must not panic or error
	require.Equal(t, Stats{}, m.Stats())
}

func TestGlobal_ReturnsSameInstance(t *testing.T) {
	require.Same(t, Global(), Global())
}

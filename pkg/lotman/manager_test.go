package lotman_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

func TestAddLot(t *testing.T) {
	t.Run("DefaultsSelfParentAndCreationTime", func(t *testing.T) {
		m := newTestManager(t)
		l := rootLot("lot1", "/lot1/", false, 1, 0)
		l.Parents = nil
		mustAdd(t, m, l)

		got, err := m.GetLot(t.Context(), "lot1")
		require.NoError(t, err)
		assert.Equal(t, []string{"lot1"}, got.Parents)
		assert.Equal(t, "/lot1", got.Paths[0].Path)
		assert.Equal(t, testNow.UnixMilli(), got.MPA.CreationTime)
		assert.True(t, got.IsRoot())
	})

	t.Run("ResetsUsage", func(t *testing.T) {
		m := newTestManager(t)
		l := rootLot("lot1", "/lot1", false, 1, 0)
		l.Usage.SelfGB = 42
		mustAdd(t, m, l)
		assert.Zero(t, totalGB(t, m, "lot1"))
	})

	t.Run("MissingParent", func(t *testing.T) {
		m := newTestManager(t)
		err := m.AddLot(t.Context(), childLot("kid", "nobody", "/kid", false, 1, 0))
		assert.ErrorIs(t, err, lotman.ErrParentMissing)
	})

	t.Run("Duplicate", func(t *testing.T) {
		m := newTestManager(t)
		mustAdd(t, m, rootLot("lot1", "/lot1", false, 1, 0))
		err := m.AddLot(t.Context(), rootLot("lot1", "/other", false, 1, 0))
		assert.ErrorIs(t, err, lotman.ErrDuplicateLot)
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name string
			lot  *lotman.Lot
		}{
			{"EmptyName", rootLot("", "/x", false, 1, 0)},
			{"WhitespaceName", rootLot("a b", "/x", false, 1, 0)},
			{"RelativePath", rootLot("rel", "x/y", false, 1, 0)},
			{"NegativeDedicated", rootLot("neg", "/x", false, -1, 0)},
			{"NegativeOpportunistic", rootLot("neg", "/x", false, 1, -0.5)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				m := newTestManager(t)
				assert.ErrorIs(t, m.AddLot(t.Context(), tt.lot), lotman.ErrInvalidLot)
			})
		}
	})

	t.Run("DoesNotMutateArgument", func(t *testing.T) {
		m := newTestManager(t)
		l := rootLot("lot1", "/lot1/", false, 1, 0)
		mustAdd(t, m, l)
		assert.Equal(t, "/lot1/", l.Paths[0].Path)
		assert.Zero(t, l.MPA.CreationTime)
	})
}

func TestRemoveLot(t *testing.T) {
	m := newTestManager(t)
	mustAdd(t, m,
		rootLot("parent", "/p", true, 1, 0),
		childLot("child", "parent", "/p/c", true, 1, 0),
	)

	assert.ErrorIs(t, m.RemoveLot(t.Context(), "parent"), lotman.ErrLotInUse)
	assert.ErrorIs(t, m.RemoveLot(t.Context(), "missing"), lotman.ErrLotNotFound)

	require.NoError(t, m.RemoveLot(t.Context(), "child"))
	require.NoError(t, m.RemoveLot(t.Context(), "parent"))

	names, err := m.ListAllLots(t.Context())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestHierarchy(t *testing.T) {
	m := newTestManager(t)
	mustAdd(t, m,
		rootLot("a", "/a", true, 1, 0),
		childLot("b", "a", "/a/b", true, 1, 0),
		childLot("c", "a", "/a/c", false, 1, 0),
		childLot("d", "b", "/a/b/d", false, 1, 0),
		rootLot("z", "/z", false, 1, 0),
	)

	names, err := m.ListAllLots(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "z"}, names)

	root, err := m.IsRoot(t.Context(), "a")
	require.NoError(t, err)
	assert.True(t, root)
	root, err = m.IsRoot(t.Context(), "d")
	require.NoError(t, err)
	assert.False(t, root)

	_, err = m.IsRoot(t.Context(), "missing")
	assert.ErrorIs(t, err, lotman.ErrLotNotFound)

	kids, err := m.Children(t.Context(), "a", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, kids)

	all, err := m.Children(t.Context(), "a", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, all)

	_, err = m.Children(t.Context(), "missing", true)
	assert.ErrorIs(t, err, lotman.ErrLotNotFound)
}

func TestGetLotDirs(t *testing.T) {
	m := newTestManager(t)
	shared := rootLot("b", "/x", true, 1, 0)
	mustAdd(t, m,
		rootLot("a", "/a", true, 1, 0),
		childLot("a1", "a", "/a/one", false, 1, 0),
		shared,
	)
	dup := childLot("a2", "a", "/x", false, 1, 0)
	mustAdd(t, m, dup)

	dirs, err := m.GetLotDirs(t.Context(), "a", false)
	require.NoError(t, err)
	assert.Equal(t, []lotman.LotDir{{Lot: "a", Path: "/a", Recursive: true}}, dirs)

	dirs, err = m.GetLotDirs(t.Context(), "a", true)
	require.NoError(t, err)
	assert.Equal(t, []lotman.LotDir{
		{Lot: "a", Path: "/a", Recursive: true},
		{Lot: "a1", Path: "/a/one", Recursive: false},
		{Lot: "a2", Path: "/x", Recursive: false},
	}, dirs)

	_, err = m.GetLotDirs(t.Context(), "missing", false)
	assert.ErrorIs(t, err, lotman.ErrLotNotFound)
}

func TestContextValues(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetContextValue(t.Context(), lotman.ContextLotHome)
	assert.ErrorIs(t, err, lotman.ErrContextKeyNotFound)

	require.NoError(t, m.SetContextValue(t.Context(), lotman.ContextLotHome, "/var/lib/lots"))
	got, err := m.GetContextValue(t.Context(), lotman.ContextLotHome)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/lots", got)

	assert.Error(t, m.SetContextValue(t.Context(), "", "x"))
}

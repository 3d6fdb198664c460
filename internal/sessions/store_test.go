package sessions

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/navigator"
)

func stubNow(t *testing.T, start time.Time) *time.Time {
	t.Helper()
	current := start
	original := nowFunc
	nowFunc = func() time.Time { return current }
	t.Cleanup(func() { nowFunc = original })
	return &current
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	snapshot, err := dataset.Default()
	require.NoError(t, err)
	return NewStore(snapshot, opts)
}

func TestCreateStartsOnRoot(t *testing.T) {
	store := newTestStore(t, Options{})

	res := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	require.NotEmpty(t, res.ID)
	assert.True(t, res.Changed)
	assert.Equal(t, navigator.KindRoot, res.Frame.View)
	require.NotNil(t, res.Frame.Root)
	assert.NotEmpty(t, res.Frame.Root.Stages)
	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Exists(res.ID))
}

func TestDoAppliesTransitions(t *testing.T) {
	store := newTestStore(t, Options{})
	created := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	res, err := store.Do(created.ID, func(nav *navigator.Session) bool {
		return nav.ClickStage("receive_txn_30d")
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, navigator.KindStageBreakdown, res.Frame.View)

	res, err = store.Do(created.ID, func(nav *navigator.Session) bool {
		return nav.ClickEntry("no_txn_attempted_30d")
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, navigator.KindStageBreakdown, res.Frame.View)

	res, err = store.Frame(created.ID)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, navigator.KindStageBreakdown, res.Frame.View)
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	store := newTestStore(t, Options{})

	_, err := store.Frame("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Delete("missing"))
}

func TestDeleteRemovesSession(t *testing.T) {
	var counts []int
	store := newTestStore(t, Options{OnCount: func(n int) { counts = append(counts, n) }})
	created := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryUS})

	assert.True(t, store.Delete(created.ID))
	assert.False(t, store.Exists(created.ID))
	assert.Equal(t, []int{1, 0}, counts)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	now := stubNow(t, time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC))
	store := newTestStore(t, Options{Idle: 10 * time.Minute})

	stale := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})
	*now = now.Add(8 * time.Minute)
	fresh := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	*now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.False(t, store.Exists(stale.ID))
	assert.True(t, store.Exists(fresh.ID))

	_, err := store.Frame(fresh.ID)
	require.NoError(t, err)
	*now = now.Add(9 * time.Minute)
	assert.Equal(t, 0, store.Sweep())
}

func TestSetSnapshotOnlyAffectsNewSessions(t *testing.T) {
	store := newTestStore(t, Options{})
	old := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	store.SetSnapshot(&dataset.Snapshot{})
	assert.Empty(t, store.Snapshot().Months())

	res, err := store.Frame(old.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Frame.Root.Stages)

	fresh := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})
	assert.Empty(t, fresh.Frame.Root.Stages)
}

func TestHooksReachSessions(t *testing.T) {
	var mu sync.Mutex
	var transitions []navigator.Kind
	store := newTestStore(t, Options{Hooks: navigator.Hooks{
		OnTransition: func(_, to navigator.Kind) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	}})
	created := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	_, err := store.Do(created.ID, func(nav *navigator.Session) bool { return nav.ShowTrend("") })
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []navigator.Kind{navigator.KindTrend}, transitions)
}

func TestConcurrentOperations(t *testing.T) {
	store := newTestStore(t, Options{})
	created := store.Create(dataset.Key{Month: "2025-11", Country: dataset.CountryGlobal})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Do(created.ID, func(nav *navigator.Session) bool {
				nav.ClickStage("login_30d")
				nav.Back()
				return true
			})
			store.Create(dataset.Key{Month: "2025-10", Country: dataset.CountryUS})
		}()
	}
	wg.Wait()

	res, err := store.Frame(created.ID)
	require.NoError(t, err)
	assert.Equal(t, navigator.KindRoot, res.Frame.View)
	assert.Equal(t, 17, store.Len())
}

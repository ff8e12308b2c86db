package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/oficina/internal/persistence"
)

const debounce = 20 * time.Millisecond

type memSource struct {
	mu      sync.Mutex
	content string
}

func (s *memSource) set(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.content = v
}

func (s *memSource) Encode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.content, nil
}

func (s *memSource) Decode(content string) error {
	s.set(content)
	return nil
}

func (s *memSource) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.content == ""
}

func newCoordinator(storage persistence.Storage, source persistence.Source, grace time.Duration) *persistence.Coordinator {
	return persistence.NewCoordinator(storage, source, "/data/oficina.json", persistence.Options{
		Debounce: debounce,
		Grace:    grace,
		Timeout:  time.Second,
	})
}

func TestCoordinator_DebounceCoalesces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	var saves atomic.Int32

	storage.EXPECT().Load(gomock.Any(), "/data/oficina.json").Return(`{"v":0}`, nil)
	storage.EXPECT().
		SaveAtomic(gomock.Any(), "/data/oficina.json", `{"v":5}`).
		DoAndReturn(func(context.Context, string, string) error {
			saves.Add(1)
			return nil
		})

	c := newCoordinator(storage, source, 0)
	require.NoError(t, c.Load(context.Background()))

	for i := 1; i <= 5; i++ {
		source.set(fmt.Sprintf(`{"v":%d}`, i))
		c.Notify()
	}

	assert.Equal(t, persistence.PhasePending, c.Status().Phase)
	assert.Eventually(t, func() bool { return saves.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(3 * debounce)
	assert.Equal(t, int32(1), saves.Load())

	st := c.Status()
	assert.Equal(t, persistence.PhaseIdle, st.Phase)
	assert.False(t, st.Dirty)
	assert.False(t, st.LastSaved.IsZero())
}

func TestCoordinator_GraceHoldsNotifications(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	saved := make(chan time.Time, 1)

	storage.EXPECT().Load(gomock.Any(), gomock.Any()).Return(`{"v":1}`, nil)
	storage.EXPECT().
		SaveAtomic(gomock.Any(), gomock.Any(), `{"v":2}`).
		DoAndReturn(func(context.Context, string, string) error {
			saved <- time.Now()
			return nil
		})

	grace := 80 * time.Millisecond
	c := newCoordinator(storage, source, grace)

	loadedAt := time.Now()
	require.NoError(t, c.Load(context.Background()))

	source.set(`{"v":2}`)
	c.Notify()

	select {
	case at := <-saved:
		assert.GreaterOrEqual(t, at.Sub(loadedAt), grace)
	case <-time.After(time.Second):
		t.Fatal("mutation during grace period was never saved")
	}
}

func TestCoordinator_SkipsEmptyBeforeLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	c := newCoordinator(storage, source, 0)

	// Loading never happened: the coordinator is still initializing and
	// notifications are held.
	c.Notify()
	time.Sleep(3 * debounce)
	assert.Equal(t, persistence.PhaseLoading, c.Status().Phase)

	require.NoError(t, c.Flush(context.Background()))
	assert.False(t, c.Status().Dirty)
}

func TestCoordinator_NoOverlappingSaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	release := make(chan struct{})
	started := make(chan struct{}, 2)

	var inFlight, maxInFlight atomic.Int32

	var mu sync.Mutex

	var written []string

	storage.EXPECT().Load(gomock.Any(), gomock.Any()).Return("", nil)
	storage.EXPECT().
		SaveAtomic(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, content string) error {
			n := inFlight.Add(1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}

			started <- struct{}{}

			if content == "first" {
				<-release
			}

			mu.Lock()
			written = append(written, content)
			mu.Unlock()

			inFlight.Add(-1)

			return nil
		}).
		Times(2)

	c := newCoordinator(storage, source, 0)
	require.NoError(t, c.Load(context.Background()))

	source.set("first")
	c.Notify()
	<-started

	assert.Equal(t, persistence.PhaseSaving, c.Status().Phase)

	source.set("second")
	c.Notify()

	// The debounce elapses while the first save is still running.
	time.Sleep(3 * debounce)
	close(release)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("mutation during save was dropped")
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(written) == 2
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first", "second"}, written)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestCoordinator_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	storage.EXPECT().Load(gomock.Any(), gomock.Any()).Return("", nil)

	gomock.InOrder(
		storage.EXPECT().SaveAtomic(gomock.Any(), gomock.Any(), "data").Return(errors.New("disk full")),
		storage.EXPECT().SaveAtomic(gomock.Any(), gomock.Any(), "data").Return(nil),
	)

	c := newCoordinator(storage, source, 0)
	require.NoError(t, c.Load(context.Background()))

	source.set("data")
	c.Notify()

	assert.Eventually(t, func() bool {
		return c.Status().Message != "Dados carregados" && c.Status().Phase == persistence.PhaseIdle
	}, time.Second, 5*time.Millisecond)

	st := c.Status()
	assert.Contains(t, st.Message, "apenas em memória")
	assert.Contains(t, st.Message, "disk full")
	assert.True(t, st.Dirty)

	source.mu.Lock()
	assert.Equal(t, "data", source.content)
	source.mu.Unlock()

	require.NoError(t, c.Flush(context.Background()))
	assert.False(t, c.Status().Dirty)
	assert.Contains(t, c.Status().Message, "Salvo")
}

func TestCoordinator_LoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := persistence.NewMockSource(ctrl)

	storage.EXPECT().Load(gomock.Any(), gomock.Any()).Return("", errors.New("permission denied"))
	source.EXPECT().Empty().Return(true)

	c := newCoordinator(storage, source, 0)

	err := c.Load(context.Background())
	assert.Error(t, err)
	assert.Contains(t, c.Status().Message, "permission denied")

	// Nothing was loaded and nothing is in memory: no write may clobber
	// the existing document.
	c.Notify()
	time.Sleep(3 * debounce)
	assert.Equal(t, persistence.PhaseIdle, c.Status().Phase)
}

func TestCoordinator_FlushAndSetLocator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storage := persistence.NewMockStorage(ctrl)
	source := &memSource{}

	gomock.InOrder(
		storage.EXPECT().Load(gomock.Any(), "/data/oficina.json").Return("old", nil),
		storage.EXPECT().SaveAtomic(gomock.Any(), "/data/oficina.json", "edited").Return(nil),
		storage.EXPECT().Load(gomock.Any(), "/backup/oficina.json").Return("other", nil),
	)

	c := persistence.NewCoordinator(storage, source, "/data/oficina.json", persistence.Options{Debounce: time.Hour})
	require.NoError(t, c.Load(context.Background()))

	// Nothing changed yet.
	require.NoError(t, c.Flush(context.Background()))

	source.set("edited")
	c.Notify()

	require.NoError(t, c.SetLocator(context.Background(), "/backup/oficina.json"))

	content, _ := source.Encode()
	assert.Equal(t, "other", content)
	assert.Equal(t, "/backup/oficina.json", c.Status().Locator)

	require.NoError(t, c.Close(context.Background()))

	c.Notify()
	assert.Equal(t, persistence.PhaseIdle, c.Status().Phase)
}

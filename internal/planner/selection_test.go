package planner

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/serendib/internal/models"
)

func TestSelection_AddIsIdempotent(t *testing.T) {
	once := NewSelection()
	once.Add(kandy)

	twice := NewSelection()
	assert.True(t, twice.Add(kandy))
	assert.False(t, twice.Add(kandy))

	assert.Equal(t, once.Places(), twice.Places())
}

func TestSelection_AddAppendsLast(t *testing.T) {
	s := NewSelection()
	s.Add(kandy)
	s.Add(ella)
	s.Add(kandy)
	s.Add(galle)

	assert.Equal(t, []string{"kandy", "ella", "galle"}, ids(s.Places()))
}

func TestSelection_RemovePreservesOrder(t *testing.T) {
	s := NewSelection()
	s.Add(kandy)
	s.Add(ella)
	s.Add(galle)

	assert.True(t, s.Remove("ella"))
	assert.Equal(t, []string{"kandy", "galle"}, ids(s.Places()))

	assert.False(t, s.Remove("ella"), "removing an absent id is a no-op")
	assert.Equal(t, []string{"kandy", "galle"}, ids(s.Places()))
}

func TestSelection_Clear(t *testing.T) {
	s := NewSelection()
	s.Add(kandy)
	s.Add(ella)

	s.Clear()
	assert.Empty(t, s.Places())
	assert.Equal(t, 0, s.Len())

	s.Clear()
	assert.Empty(t, s.Places())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection()
	s.Toggle(kandy)
	assert.True(t, s.Contains("kandy"))
	s.Toggle(kandy)
	assert.False(t, s.Contains("kandy"))
}

func TestSelection_PlacesIsSnapshot(t *testing.T) {
	s := NewSelection()
	s.Add(kandy)

	snapshot := s.Places()
	snapshot[0].Name = "Changed"
	s.Add(ella)

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "Kandy", s.Places()[0].Name)
}

func TestSelection_NoDuplicatesUnderRandomOperations(t *testing.T) {
	pool := []models.Place{kandy, ella, galle,
		{ID: "sigiriya", Name: "Sigiriya"}, {ID: "yala", Name: "Yala"}}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := NewSelection()
		for op := 0; op < 200; op++ {
			p := pool[rng.Intn(len(pool))]
			switch rng.Intn(5) {
			case 0:
				s.Remove(p.ID)
			case 1:
				if rng.Intn(10) == 0 {
					s.Clear()
				}
			default:
				s.Add(p)
			}

			seen := make(map[string]bool)
			for _, id := range ids(s.Places()) {
				require.False(t, seen[id], "duplicate %s after op %d", id, op)
				seen[id] = true
			}
		}
	}
}

func TestSelection_ListenersRunInOrderOnChange(t *testing.T) {
	s := NewSelection()
	var calls []string
	var lastSeen []string

	s.Subscribe(func(places []models.Place) { calls = append(calls, "first") })
	s.Subscribe(func(places []models.Place) {
		calls = append(calls, "second")
		lastSeen = ids(places)
	})

	s.Add(kandy)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, []string{"kandy"}, lastSeen)

	calls = nil
	s.Add(kandy)
	s.Remove("missing")
	assert.Empty(t, calls, "unchanged selection must not notify")

	s.Remove("kandy")
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Empty(t, lastSeen)
}

func TestSelection_Unsubscribe(t *testing.T) {
	s := NewSelection()
	count := 0
	unsubscribe := s.Subscribe(func(places []models.Place) { count++ })

	s.Add(kandy)
	unsubscribe()
	unsubscribe()
	s.Add(ella)

	assert.Equal(t, 1, count)
}

func TestSelection_ListenerMayReadSelection(t *testing.T) {
	s := NewSelection()
	var length int
	s.Subscribe(func(places []models.Place) { length = s.Len() })

	s.Add(kandy)
	assert.Equal(t, 1, length)
}

func TestSelection_ConcurrentMutationsDeliverLatestState(t *testing.T) {
	s := NewSelection()
	var mu sync.Mutex
	var last []string
	s.Subscribe(func(places []models.Place) {
		mu.Lock()
		last = ids(places)
		mu.Unlock()
	})

	pool := []models.Place{kandy, ella, galle}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := pool[i%len(pool)]
			if i%2 == 0 {
				s.Add(p)
			} else {
				s.Remove(p.ID)
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if last == nil {
		last = []string{}
	}
	assert.Equal(t, ids(s.Places()), last)
}

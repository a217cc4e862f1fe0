package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHub_DeliversInEmissionOrder(t *testing.T) {
	h := NewHub[Change]()
	var got []Event
	sub := h.Subscribe(func(c Change) { got = append(got, c.Event) })
	defer sub.Unsubscribe()

	h.Publish(Change{Event: SignedIn})
	h.Publish(Change{Event: TokenRefreshed})
	h.Publish(Change{Event: SignedOut})

	require.Equal(t, []Event{SignedIn, TokenRefreshed, SignedOut}, got)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub[int]()
	calls := 0
	sub := h.Subscribe(func(int) { calls++ })
	h.Publish(1)
	sub.Unsubscribe()
	sub.Unsubscribe()
	h.Publish(2)

	require.Equal(t, 1, calls)
	require.Equal(t, 0, h.Len())
}

func TestHub_ListenersRunInSubscriptionOrder(t *testing.T) {
	h := NewHub[int]()
	var order []string
	a := h.Subscribe(func(int) { order = append(order, "a") })
	b := h.Subscribe(func(int) { order = append(order, "b") })
	defer a.Unsubscribe()
	defer b.Unsubscribe()

	h.Publish(1)
	require.Equal(t, []string{"a", "b"}, order)
}

func TestHub_ConcurrentPublishIsSerialized(t *testing.T) {
	h := NewHub[int]()
	var mu sync.Mutex
	inFlight, maxInFlight, total := 0, 0, 0
	sub := h.Subscribe(func(int) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		mu.Lock()
		inFlight--
		total++
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Publish(i)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, total)
	require.Equal(t, 1, maxInFlight)
}

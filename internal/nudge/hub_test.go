package nudge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

func stateOf(st models.SchedulerState) *models.NudgeStateResponse {
	return &models.NudgeStateResponse{State: st, Visible: st == models.StateDelivered}
}

func TestHubFanout(t *testing.T) {
	hub := NewHub()
	id1, ch1 := hub.Subscribe()
	id2, ch2 := hub.Subscribe()
	defer hub.Unsubscribe(id1)
	defer hub.Unsubscribe(id2)

	assert.Equal(t, 2, hub.SubscriberCount())

	transitions := []models.SchedulerState{models.StateEvaluating, models.StateDelivered, models.StateIdle}
	for _, st := range transitions {
		hub.Broadcast(stateOf(st))
	}

	for _, ch := range []<-chan *models.NudgeStateResponse{ch1, ch2} {
		for _, want := range transitions {
			got := <-ch
			assert.Equal(t, want, got.State)
		}
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	// Nobody drains: the buffer fills and later broadcasts are dropped
	// instead of blocking the broadcaster.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Broadcast(stateOf(models.StateEvaluating))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe()

	hub.Unsubscribe(id)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch
	require.False(t, open, "unsubscribed channel must be closed")

	// A second unsubscribe of the same id is a no-op.
	hub.Unsubscribe(id)

	// Broadcasting with no subscribers is fine.
	hub.Broadcast(stateOf(models.StateIdle))
}

package realtime

import (
	"testing"
	"time"

	"github.com/seed-sell/seedsell-api/models"
	"github.com/stretchr/testify/assert"
)

func TestHubDeliversToRecipient(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	sub := hub.Subscribe("auth0|farmer1")
	defer sub.Close()

	message := models.ChatMessage{
		ID:             "msg-1",
		RoomID:         "room-1",
		SenderID:       "auth0|buyer1",
		MessageContent: "Hello",
	}
	hub.PublishInsert("auth0|farmer1", message)

	select {
	case event := <-sub.C:
		assert.Equal(t, "insert", event.Type)
		assert.Equal(t, "msg-1", event.Message.ID)
		assert.Equal(t, "Hello", event.Message.MessageContent)
	case <-time.After(time.Second):
		t.Fatal("expected the subscriber to receive the insert event")
	}
}

func TestHubDoesNotDeliverToOtherUsers(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	recipient := hub.Subscribe("auth0|farmer1")
	defer recipient.Close()
	bystander := hub.Subscribe("auth0|buyer2")
	defer bystander.Close()

	hub.PublishInsert("auth0|farmer1", models.ChatMessage{ID: "msg-1"})

	select {
	case <-recipient.C:
	case <-time.After(time.Second):
		t.Fatal("expected the recipient to receive the event")
	}

	select {
	case event := <-bystander.C:
		t.Fatalf("unexpected event for bystander: %+v", event)
	default:
	}
}

func TestHubDeliversToAllSubscriptionsOfOneUser(t *testing.T) {
	// Same user on two tabs
	hub := NewHub(nil)
	defer hub.Close()

	first := hub.Subscribe("auth0|farmer1")
	defer first.Close()
	second := hub.Subscribe("auth0|farmer1")
	defer second.Close()

	hub.PublishInsert("auth0|farmer1", models.ChatMessage{ID: "msg-1"})

	for _, sub := range []*Subscription{first, second} {
		select {
		case event := <-sub.C:
			assert.Equal(t, "msg-1", event.Message.ID)
		case <-time.After(time.Second):
			t.Fatal("expected every subscription of the user to receive the event")
		}
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	sub := hub.Subscribe("auth0|farmer1")
	sub.Close()
	// Closing twice is safe
	sub.Close()

	// Delivery after close must not panic on the closed channel
	hub.PublishInsert("auth0|farmer1", models.ChatMessage{ID: "msg-1"})

	_, open := <-sub.C
	assert.False(t, open, "channel should be closed")
}

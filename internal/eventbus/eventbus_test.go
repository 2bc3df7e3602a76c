package eventbus

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	b.Publish(OnArm, map[string]any{"vehicle_id": "v1"})

	select {
	case evt := <-sub.Ch:
		if evt.Type != OnArm {
			t.Fatalf("expected OnArm, got %v", evt.Type)
		}
		if evt.Payload.(map[string]any)["vehicle_id"] != "v1" {
			t.Fatalf("unexpected payload: %v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMultipleSubscribersEachReceiveTheEvent(t *testing.T) {
	b := New()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(OnConnect, nil)

	for _, sub := range []*Subscriber{a, c} {
		select {
		case evt := <-sub.Ch:
			if evt.Type != OnConnect {
				t.Fatalf("expected OnConnect, got %v", evt.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub.ID)

	b.Publish(OnAbort, nil)

	_, open := <-sub.Ch
	if open {
		t.Fatal("expected channel to be closed after Unsubscribe")
	}
}

func TestPublishDropsForFullSubscriberBuffer(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(OnSafetyViolation, i)
	}

	if len(sub.Ch) != subscriberBuffer {
		t.Fatalf("expected buffer to cap at %d, got %d", subscriberBuffer, len(sub.Ch))
	}
}

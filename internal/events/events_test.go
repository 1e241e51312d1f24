package events

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	s1 := b.Subscribe(4)
	s2 := b.Subscribe(4)
	defer s1.Close()
	defer s2.Close()

	msg := Message{Kind: KindSensorChange, Name: "sump1", Tripped: true, Time: time.Now()}
	b.Publish(msg)

	for i, s := range []*Subscription{s1, s2} {
		select {
		case got := <-s.C:
			if got.Kind != KindSensorChange || got.Name != "sump1" || !got.Tripped {
				t.Errorf("subscriber %d: got %+v", i, got)
			}
		default:
			t.Errorf("subscriber %d: no message delivered", i)
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBroker()
	s := b.Subscribe(1)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Message{Kind: KindKeepAlive})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if b.Dropped() != 9 {
		t.Errorf("dropped = %d, want 9", b.Dropped())
	}
}

func TestCloseDetaches(t *testing.T) {
	b := NewBroker()
	s := b.Subscribe(1)
	s.Close()
	s.Close() // idempotent

	b.Publish(Message{Kind: KindKeepAlive})
	select {
	case <-s.C:
		t.Error("closed subscription should not receive")
	default:
	}
	if b.Dropped() != 0 {
		t.Errorf("closed subscription counted as lagging: dropped=%d", b.Dropped())
	}
}

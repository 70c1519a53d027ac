package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("vehicle-1")
	defer hub.Unregister(client)

	payload := []byte(`{"latitude":24.7,"longitude":46.6}`)
	hub.Broadcast("vehicle-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != string(payload) {
			t.Fatalf("unexpected message: %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestBroadcastOtherVehicleNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("vehicle-1")
	defer hub.Unregister(client)

	hub.Broadcast("vehicle-2", []byte("x"))

	select {
	case <-client.Send:
		t.Fatalf("message delivered to wrong vehicle")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "vehicles:abc:broadcast" {
		t.Fatalf("unexpected channel: %s", ch)
	}
	if vehicleIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected vehicle id")
	}
	if vehicleIDFromChannel("bad") != "" {
		t.Fatalf("expected empty vehicle id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("vehicle-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("vehicle-redis")
	defer hub.Unregister(ws)

	// give the pattern subscription a moment to establish
	time.Sleep(20 * time.Millisecond)
	hub.Broadcast("vehicle-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// a publish from another instance reaches local subscribers
	other := hub.Register("vehicle-other")
	defer hub.Unregister(other)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), redisChannel("vehicle-other"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-other.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

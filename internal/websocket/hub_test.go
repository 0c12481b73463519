package eventws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/saeid-a/CoachEscrow/internal/events"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	written chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{written: make(chan []byte, 8), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("connection closed")
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.written <- data
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func connect(t *testing.T, hub *Hub, identity string) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	client := NewClient(hub, conn, identity)
	hub.Register(client)
	go client.WritePump()
	return conn
}

func receive(t *testing.T, conn *fakeConn) events.Envelope {
	t.Helper()
	select {
	case payload := <-conn.written:
		var event events.Envelope
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event frame")
		return events.Envelope{}
	}
}

func TestHubDeliversToSessionParties(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(func() { _ = hub.Close() })

	client := connect(t, hub, "GCLIENT")
	coach := connect(t, hub, "GCOACH")
	stranger := connect(t, hub, "GOTHER")

	event := events.NewEnvelope(events.TopicSessionCreated)
	event.SessionID = 3
	event.Client = "GCLIENT"
	event.Coach = "GCOACH"
	require.NoError(t, hub.Publish(context.Background(), event))

	require.Equal(t, event.ID, receive(t, client).ID)
	got := receive(t, coach)
	require.Equal(t, uint64(3), got.SessionID)
	require.Equal(t, events.TopicSessionCreated, got.Topic)

	select {
	case <-stranger.written:
		t.Fatal("unrelated identity received an event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPublishAfterCloseFails(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	conn := connect(t, hub, "GCLIENT")
	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close())

	select {
	case <-conn.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected connection to close with the hub")
	}

	require.ErrorIs(t, hub.Publish(context.Background(), events.NewEnvelope(events.TopicClientAtRisk)), ErrHubClosed)
}

func TestReadPumpUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(func() { _ = hub.Close() })

	conn := newFakeConn()
	client := NewClient(hub, conn, "GCLIENT")
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		client.ReadPump()
		close(done)
	}()
	require.NoError(t, conn.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadPump did not return after disconnect")
	}

	_, open := <-client.send
	require.False(t, open)
}

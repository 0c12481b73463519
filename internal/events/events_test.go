package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Envelope
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event Envelope) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNoopPublisherImplementsPublisher(t *testing.T) {
	var _ Publisher = NoopPublisher{}
	require.NoError(t, NoopPublisher{}.Publish(context.Background(), NewEnvelope(TopicSessionCreated)))
}

func TestEnvelopeRecipients(t *testing.T) {
	event := NewEnvelope(TopicSessionCreated)
	event.Client = "client-a"
	event.Coach = "coach-a"
	require.Equal(t, []string{"client-a", "coach-a"}, event.Recipients())

	atRisk := NewEnvelope(TopicClientAtRisk)
	atRisk.Client = "client-a"
	require.Equal(t, []string{"client-a"}, atRisk.Recipients())
	require.NotEmpty(t, atRisk.ID)
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("down")}
	healthy := &recordingPublisher{}

	err := Fanout{failing, healthy}.Publish(context.Background(), NewEnvelope(TopicSessionCompleted))
	require.Error(t, err)
	require.Len(t, failing.events, 1)
	require.Len(t, healthy.events, 1)
}

func TestNATSPublisherPublishesUnderPrefix(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url, "coaching")
	require.NoError(t, err)
	defer pub.Close()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("coaching.session.>", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe() //nolint:errcheck
	require.NoError(t, nc.Flush())

	event := NewEnvelope(TopicSessionCreated)
	event.SessionID = 7
	event.Client = "client-a"
	require.NoError(t, pub.Publish(context.Background(), event))
	require.NoError(t, pub.conn.Flush())

	select {
	case msg := <-ch:
		require.Equal(t, "coaching.session.created", msg.Subject)
		var got Envelope
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		require.Equal(t, uint64(7), got.SessionID)
		require.Equal(t, event.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

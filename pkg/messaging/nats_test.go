package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn captures published payloads in place of a live NATS connection.
type fakeConn struct {
	published map[string][][]byte
	subjects  []string
	closed    bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.published == nil {
		f.published = make(map[string][][]byte)
	}
	f.published[subject] = append(f.published[subject], data)
	return nil
}

func (f *fakeConn) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.subjects = append(f.subjects, subject)
	return &nats.Subscription{}, nil
}

func (f *fakeConn) Close() { f.closed = true }

func newTestClient(fc *fakeConn) *Client {
	return &Client{
		conn:      fc,
		subs:      make(map[string]*nats.Subscription),
		connected: true,
	}
}

func TestPublish(t *testing.T) {
	t.Run("alert event goes out as JSON on its subject", func(t *testing.T) {
		fc := &fakeConn{}
		client := newTestClient(fc)

		event := AlertEvent{
			AlertID:    "a-1",
			CameraID:   "cam-2",
			Location:   "Warehouse",
			Confidence: 0.91,
			Status:     "active",
			Timestamp:  time.Unix(100, 0).UTC(),
		}
		require.NoError(t, client.Publish(context.Background(), SubjectAlertCreated, event))

		payloads := fc.published[SubjectAlertCreated]
		require.Len(t, payloads, 1)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(payloads[0], &decoded))
		assert.Equal(t, "a-1", decoded["alert_id"])
		assert.Equal(t, "cam-2", decoded["camera_id"])
		assert.Equal(t, "Warehouse", decoded["location"])
		assert.Equal(t, 0.91, decoded["confidence"])
		assert.Equal(t, "active", decoded["status"])
	})

	t.Run("unmarshalable payload is an error, nothing published", func(t *testing.T) {
		fc := &fakeConn{}
		client := newTestClient(fc)

		err := client.Publish(context.Background(), SubjectScanCompleted, make(chan int))
		require.Error(t, err)
		assert.Empty(t, fc.published)
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("second subscription on a subject is rejected", func(t *testing.T) {
		fc := &fakeConn{}
		client := newTestClient(fc)

		handler := func(msg *nats.Msg) {}
		require.NoError(t, client.Subscribe(SubjectAlertCreated, handler))
		require.Error(t, client.Subscribe(SubjectAlertCreated, handler))
		assert.Equal(t, []string{SubjectAlertCreated}, fc.subjects)
	})
}

func TestConnectionState(t *testing.T) {
	t.Run("follows disconnect and reconnect events", func(t *testing.T) {
		client := newTestClient(&fakeConn{})
		assert.True(t, client.IsConnected())

		client.setConnected(false)
		assert.False(t, client.IsConnected())

		client.setConnected(true)
		assert.True(t, client.IsConnected())
	})
}

func TestClose(t *testing.T) {
	t.Run("closes the connection and drops subscriptions", func(t *testing.T) {
		fc := &fakeConn{}
		client := newTestClient(fc)
		require.NoError(t, client.Subscribe(SubjectModeDegraded, func(msg *nats.Msg) {}))

		client.Close()
		assert.True(t, fc.closed)
		assert.Empty(t, client.subs)
	})
}

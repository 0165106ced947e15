package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testSnapshot(stage domain.Stage) domain.Snapshot {
	return domain.Snapshot{
		RunID:       "run-1",
		Stage:       stage,
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Alerts: []domain.Alert{
			{ID: "a-1", Type: "Feature", Zone: "https://api.weather.gov/zones/forecast/TXZ192",
				Properties: domain.AlertProperties{Event: "Flood Warning"}, RelevantColour: "#B6D8F2"},
			{ID: "a-1", Type: "Feature", Zone: "https://api.weather.gov/zones/county/TXC453",
				Properties: domain.AlertProperties{Event: "Flood Warning"}, RelevantColour: "#B6D8F2"},
		},
	}
}

func newTestWriter(fw *fakeWriter) *Writer {
	return &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot(domain.StageEnriched)

	msg, err := serializeToMessage(snap, snap.Alerts[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("a-1|https://api.weather.gov/zones/forecast/TXZ192"), msg.Key)
	assert.Contains(t, string(msg.Value), `"relevant_colour":"#B6D8F2"`)
	require.Len(t, msg.Headers, 4)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "event", msg.Headers[1].Key)
	assert.Equal(t, []byte("Flood Warning"), msg.Headers[1].Value)
	assert.Equal(t, "relevant_colour", msg.Headers[2].Key)
	assert.Equal(t, "generated_at", msg.Headers[3].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[3].Value)
}

func TestWriter_PublishEnriched(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	require.NoError(t, w.Publish(context.Background(), testSnapshot(domain.StageEnriched)))

	require.Len(t, fw.msgs, 2)
	assert.NotEqual(t, fw.msgs[0].Key, fw.msgs[1].Key)
}

func TestWriter_IgnoresRaw(t *testing.T) {
	fw := &fakeWriter{}
	w := newTestWriter(fw)

	require.NoError(t, w.Publish(context.Background(), testSnapshot(domain.StageRaw)))

	assert.Empty(t, fw.msgs)
}

func TestWriter_PublishError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker unavailable")}
	w := newTestWriter(fw)

	err := w.Publish(context.Background(), testSnapshot(domain.StageEnriched))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, newTestWriter(fw).Close())
	assert.True(t, fw.closed)
}

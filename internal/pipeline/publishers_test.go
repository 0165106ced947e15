package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
	"github.com/couchcryptid/nws-alert-map/internal/pipeline"
)

func TestPublishers_FanOut(t *testing.T) {
	a := newRecordingPublisher()
	b := newRecordingPublisher()

	err := pipeline.Publishers{a, b}.Publish(context.Background(), domain.Snapshot{RunID: "r-1", Stage: domain.StageRaw})
	require.NoError(t, err)

	assert.Len(t, a.Snapshots(), 1)
	assert.Len(t, b.Snapshots(), 1)
}

func TestPublishers_AttemptsAllAndJoinsErrors(t *testing.T) {
	sinkErr := errors.New("sink down")
	a := newRecordingPublisher()
	a.err = sinkErr
	b := newRecordingPublisher()

	err := pipeline.Publishers{a, b}.Publish(context.Background(), domain.Snapshot{Stage: domain.StageEnriched})

	require.ErrorIs(t, err, sinkErr)
	assert.Len(t, b.Snapshots(), 1)
}

func TestPublishers_Empty(t *testing.T) {
	assert.NoError(t, pipeline.Publishers(nil).Publish(context.Background(), domain.Snapshot{}))
}

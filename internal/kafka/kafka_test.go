package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type mockCreator struct {
	calls     int
	responses []*kafkago.CreateTopicsResponse
	errs      []error
}

func (m *mockCreator) CreateTopics(ctx context.Context, req *kafkago.CreateTopicsRequest) (*kafkago.CreateTopicsResponse, error) {
	i := m.calls
	m.calls++
	return m.responses[i], m.errs[i]
}

func TestCreateTopics_AlreadyExists(t *testing.T) {
	m := &mockCreator{
		responses: []*kafkago.CreateTopicsResponse{
			{Errors: map[string]error{"image-tasks": kafkago.TopicAlreadyExists}},
		},
		errs: []error{nil},
	}

	err := createTopics(context.Background(), m, time.Millisecond, "image-tasks")
	require.NoError(t, err)
	require.Equal(t, 1, m.calls)
}

func TestCreateTopics_RetriesUntilReady(t *testing.T) {
	m := &mockCreator{
		responses: []*kafkago.CreateTopicsResponse{
			nil,
			{Errors: map[string]error{"image-tasks": kafkago.InvalidReplicationFactor}},
			{Errors: map[string]error{"image-tasks": nil}},
		},
		errs: []error{errors.New("broker down"), nil, nil},
	}

	err := createTopics(context.Background(), m, time.Millisecond, "image-tasks")
	require.NoError(t, err)
	require.Equal(t, 3, m.calls)
}

func TestCreateTopics_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &mockCreator{
		responses: []*kafkago.CreateTopicsResponse{nil},
		errs:      []error{errors.New("broker down")},
	}

	err := createTopics(ctx, m, time.Hour, "image-tasks")
	require.ErrorIs(t, err, context.Canceled)
}

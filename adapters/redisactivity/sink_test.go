package redisactivity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/activitymap"
	"github.com/carthy/go-auth/adapters/redisactivity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, a)
	return redis.NewStringResult("1700000000000-0", f.err)
}

func TestSinkRecord(t *testing.T) {
	stream := &fakeStream{}
	sink := redisactivity.New(stream, "auth:activity").WithMaxLen(1000)
	at := time.Date(2024, time.March, 9, 14, 27, 41, 0, time.UTC)

	err := sink.Record(context.Background(), auth.ActivityEvent{
		EventType:  auth.ActivityEventLoginFailure,
		UserID:     "5f0c3a52-1c1f-4b7e-9a43-2f1f0f6f8a10",
		Username:   "jane@example.com",
		Metadata:   map[string]any{"reason": "bad_password"},
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, stream.calls, 1)

	args := stream.calls[0]
	assert.Equal(t, "auth:activity", args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values, ok := args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "auth.login.failure", values["verb"])
	assert.Equal(t, "5f0c3a52-1c1f-4b7e-9a43-2f1f0f6f8a10", values["actor_id"])
	assert.Equal(t, "auth", values["channel"])
	assert.Equal(t, "2024-03-09T14:27:41Z", values["occurred_at"])

	var metadata map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["metadata"].(string)), &metadata))
	assert.Equal(t, "bad_password", metadata["reason"])
	assert.Equal(t, "jane@example.com", metadata["username"])
}

func TestSinkRecordEmptyMetadata(t *testing.T) {
	stream := &fakeStream{}
	sink := redisactivity.New(stream, "auth:activity").WithRecordOptions(activitymap.WithChannel("profile"))

	require.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventTokenRejected}))

	values := stream.calls[0].Values.(map[string]any)
	assert.Equal(t, "{}", values["metadata"])
	assert.Equal(t, "profile", values["channel"])
	assert.Equal(t, "anonymous", values["actor_id"])
	assert.Zero(t, stream.calls[0].MaxLen)
}

func TestSinkRecordError(t *testing.T) {
	boom := errors.New("connection refused")
	sink := redisactivity.New(&fakeStream{err: boom}, "auth:activity")

	err := sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess})
	assert.ErrorIs(t, err, boom)
}

func TestSinkThroughRecordActivity(t *testing.T) {
	stream := &fakeStream{}
	sink := redisactivity.New(stream, "auth:activity")

	require.NoError(t, auth.RecordActivity(context.Background(), sink, auth.ActivityEvent{EventType: auth.ActivityEventUserRegistered}))

	values := stream.calls[0].Values.(map[string]any)
	assert.NotEqual(t, "0001-01-01T00:00:00Z", values["occurred_at"])
}

func TestNewClient(t *testing.T) {
	client, err := redisactivity.NewClient("redis://:secret@localhost:6380/2")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.Equal(t, "localhost:6380", client.Options().Addr)
	assert.Equal(t, 2, client.Options().DB)

	plain, err := redisactivity.NewClient("localhost:6379")
	require.NoError(t, err)
	t.Cleanup(func() { plain.Close() })
	assert.Equal(t, "localhost:6379", plain.Options().Addr)

	_, err = redisactivity.NewClient("  ")
	assert.Error(t, err)
}

// Package redisactivity publishes auth activity events to a redis stream so
// that other services (mailers, audit) can consume them.
package redisactivity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/activitymap"
	"github.com/redis/go-redis/v9"
)

// StreamAdder is the part of a redis client the sink uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Sink is an auth.ActivitySink writing one stream entry per event, with
// the fields of activitymap.Record.
type Sink struct {
	client StreamAdder
	stream string
	maxLen int64
	opts   []activitymap.Option
}

var _ auth.ActivitySink = (*Sink)(nil)

func New(client StreamAdder, stream string) *Sink {
	return &Sink{client: client, stream: stream}
}

// WithMaxLen caps the stream length (approximate trimming). Zero disables it.
func (s *Sink) WithMaxLen(n int64) *Sink {
	if n >= 0 {
		s.maxLen = n
	}
	return s
}

// WithRecordOptions customizes the normalized record, e.g. its channel.
func (s *Sink) WithRecordOptions(opts ...activitymap.Option) *Sink {
	s.opts = append(s.opts, opts...)
	return s
}

func (s *Sink) Record(ctx context.Context, event auth.ActivityEvent) error {
	if s.client == nil {
		return errors.New("redisactivity: client is required")
	}

	values, err := activitymap.Normalize(event, s.opts...).Fields()
	if err != nil {
		return fmt.Errorf("redisactivity: encode event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redisactivity: xadd %s: %w", s.stream, err)
	}
	return nil
}

// NewClient accepts a redis:// or rediss:// URL, or a bare host:port.
func NewClient(uri string) (*redis.Client, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("redisactivity: redis url is required")
	}
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: uri}), nil
}

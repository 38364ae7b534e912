// Package activitymap flattens auth activity events into the record shape
// published to downstream consumers.
package activitymap

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/carthy/go-auth"
)

// MetadataKeyUsername carries the username when the event has one.
const MetadataKeyUsername = "username"

const (
	defaultChannel    = "auth"
	defaultObjectType = "user"
	defaultActorID    = "anonymous"
)

// Record is the transport-agnostic shape of an activity event.
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
}

func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback names the actor of events without a user id, such as a
// login attempt for an unknown account.
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// Normalize converts event into a Record. The event metadata is copied.
func Normalize(event auth.ActivityEvent, opts ...Option) Record {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	actorID := userID
	if actorID == "" {
		actorID = o.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return Record{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		ObjectID:   userID,
		Channel:    o.channel,
		Metadata:   metadataOf(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// Fields renders the record as flat string fields, metadata as JSON.
func (r Record) Fields() (map[string]any, error) {
	metadata := []byte("{}")
	if len(r.Metadata) > 0 {
		raw, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = raw
	}
	return map[string]any{
		"actor_id":    r.ActorID,
		"verb":        r.Verb,
		"object_type": r.ObjectType,
		"object_id":   r.ObjectID,
		"channel":     r.Channel,
		"metadata":    string(metadata),
		"occurred_at": r.OccurredAt.Format(time.RFC3339Nano),
	}, nil
}

func metadataOf(event auth.ActivityEvent) map[string]any {
	var out map[string]any
	if len(event.Metadata) > 0 {
		out = make(map[string]any, len(event.Metadata)+1)
		for k, v := range event.Metadata {
			out[k] = v
		}
	}

	if username := strings.TrimSpace(event.Username); username != "" {
		if out == nil {
			out = map[string]any{}
		}
		if _, exists := out[MetadataKeyUsername]; !exists {
			out[MetadataKeyUsername] = username
		}
	}
	return out
}

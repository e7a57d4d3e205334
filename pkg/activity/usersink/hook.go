package usersink

import (
	"context"
	"time"

	"github.com/goliatone/go-ticketing/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events into go-users ActivitySink records.
type Hook struct {
	Sink types.ActivitySink
}

// Notify maps the activity event into a types.ActivityRecord and forwards it.
func (h Hook) Notify(ctx context.Context, evt activity.Event) {
	if h.Sink == nil {
		return
	}
	record := types.ActivityRecord{
		ID:         uuid.New(),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Data:       buildData(evt),
		OccurredAt: evt.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	_ = h.Sink.Log(ctx, record)
}

func buildData(evt activity.Event) map[string]any {
	data := activity.CloneMetadata(evt.Metadata)
	if data == nil {
		data = make(map[string]any)
	}
	if evt.ActorEmail != "" {
		data["actor_email"] = activity.MaskEmail(evt.ActorEmail)
	}
	if evt.EventID != "" {
		data["event_id"] = evt.EventID
	}
	return data
}

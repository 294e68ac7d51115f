package revision

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrConflict indicates a concurrent writer claimed the version this write
// computed. The caller should re-read current state and retry; it must never
// silently overwrite.
var ErrConflict = errors.New("revision version conflict")

// Revision is one immutable snapshot of a resource's full field set.
type Revision struct {
	ID         int64           `json:"id"`
	ResourceID int64           `json:"resource_id"`
	Version    int64           `json:"version"`
	ActorID    int64           `json:"actor_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

// DecodeSnapshot unmarshals the snapshot payload into a field map.
func (r *Revision) DecodeSnapshot() (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(r.Snapshot, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Store provides revision persistence and ordered retrieval.
type Store interface {
	// Record persists a new revision with version = current max + 1. The
	// write is atomic with respect to concurrent Records for the same
	// resource; losers receive ErrConflict.
	Record(ctx context.Context, resourceID, actorID int64, snapshot json.RawMessage) (*Revision, error)

	// LatestVersion returns the highest version recorded for the resource,
	// or 0 if the resource has no revisions.
	LatestVersion(ctx context.Context, resourceID int64) (int64, error)

	// Page returns up to limit revisions with version < beforeVersion,
	// descending. beforeVersion <= 0 means "from the latest".
	Page(ctx context.Context, resourceID int64, beforeVersion int64, limit int) ([]*Revision, error)
}

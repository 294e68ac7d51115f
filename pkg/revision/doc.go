// Package revision records immutable, versioned snapshots of resource state.
//
// Versions for a resource are contiguous integers starting at 1. Version
// assignment happens inside the same transaction as the live-row write, so
// two racing mutations can never claim the same version; the loser observes
// ErrConflict and retries against fresh state. Revisions are never updated or
// deleted, and they outlive the resources they describe.
package revision

// Package membership maps (workspace, actor) pairs to roles.
//
// The store is the single authority for the workspace owner invariant: any
// mutation that would leave a workspace without an owner fails with
// ErrLastOwner before any row changes. Callers never re-implement that check.
package membership

// Package workspaces provides the workspace service: creation with automatic
// owner membership, member management with the last-owner guard, and
// token-based invitations.
//
// All mutations of the workspace resource itself flow through the mutation
// coordinator so they are authorized and versioned like any other resource.
// Member management is authorized against the workspace chain; any operation
// touching an owner membership requires the acting member to be an owner.
package workspaces

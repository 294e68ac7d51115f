// Package mutation orchestrates every write in the system as one logical
// operation: resolve the ancestor chain, check access, validate the change,
// then apply the live-row write and the revision snapshot atomically. Feature
// services call through the Coordinator instead of touching stores directly,
// which is what keeps permission checks and history recording uniform.
package mutation

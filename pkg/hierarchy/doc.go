// Package hierarchy resolves the ancestor chain of any resource up to its
// workspace. Every authorization decision and every mutation starts from a
// resolved chain, so the resolver is deliberately small and side-effect free.
package hierarchy

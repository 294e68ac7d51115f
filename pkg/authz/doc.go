// Package authz is the access control kernel. Every permitted operation is
// declared once, as an Action with a minimum role and an optional ownership
// override, and one pure decision function compares the actor's role on the
// chain's workspace against that table. Feature services never embed their
// own role lists.
package authz

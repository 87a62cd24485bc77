// Package domain contains core concepts of the case-management chat.
// This file defines users, roles, and the role pairing invariant.
// No runtime, network, or UI logic should be added here.
package domain

// Role restricts what a user may do in the chat. Only CLIENT and LAWYER
// participate as chat parties; ADMIN exists in the directory but never chats.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleLawyer Role = "LAWYER"
	RoleAdmin  Role = "ADMIN"
)

// User is owned by the directory and referenced by id everywhere else.
type User struct {
	ID          string
	Role        Role
	DisplayName string
	Email       string
}

// CanChatWith enforces the role pairing invariant: messages flow only
// between a CLIENT and a LAWYER, in either direction.
func (r Role) CanChatWith(other Role) bool {
	switch r {
	case RoleClient:
		return other == RoleLawyer
	case RoleLawyer:
		return other == RoleClient
	default:
		return false
	}
}

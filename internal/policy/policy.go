// Package policy holds the authorization predicates evaluated after a
// request is authenticated. Keeping them in one place makes the rules, not
// their call sites, the thing a reviewer audits.
package policy

import "github.com/iliyamo/notes-keeper/internal/repository"

// Owns reports whether the requester is the owner of the note. It gates
// every object-scoped note action: retrieve, update, partial update and
// delete.
func Owns(requesterID uint64, n *repository.Note) bool {
	return n != nil && n.OwnerID == requesterID
}

// OwnProfile reports whether the requester is operating on their own user
// record.
func OwnProfile(requesterID, userID uint64) bool {
	return requesterID == userID
}

// Elevated reports whether a role grants access to administrative reads
// such as listing all users.
func Elevated(role string) bool {
	return role == repository.RoleElevated
}

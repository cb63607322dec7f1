package auth

import "github.com/taskhive/taskhive-be/internal/models"

// Principal is the verified identity attached to a request after the
// guard runs. It is derived from a token and a live user record on
// every request, never persisted.
type Principal struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

// CanAccess decides whether p may read or mutate a resource owned by
// ownerID: admins may act on anything, everyone else only on their own.
// Every endpoint that gates on ownership goes through this one function.
func CanAccess(p Principal, ownerID string) bool {
	return p.IsAdmin() || p.ID == ownerID
}

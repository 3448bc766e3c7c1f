package domain

import "time"

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCustomer    Role = "customer"
	RoleSupport     Role = "support"
	RoleFulfillment Role = "fulfillment"
)

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleSupport, RoleFulfillment:
		return true
	}
	return false
}

// User is a single record for every role; role-specific fields (such as
// ShippingAddress for customers) are plain optional fields, and authorization
// checks are pure functions over the Role tag.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FullName        string     `json:"fullName"`
	PasswordHash    string     `json:"-"`
	Active          bool       `json:"active"`
	Role            Role       `json:"role"`
	ShippingAddress string     `json:"shippingAddress,omitempty"`
	FailedAttempts  int        `json:"-"`
	LockedUntil     *time.Time `json:"-"`
}

// Locked reports whether the account lockout is still in effect at now.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

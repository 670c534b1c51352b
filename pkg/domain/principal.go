package domain

// Role is the coarse authorization role carried by an authenticated principal.
type Role string

const (
	RoleDogOwner    Role = "dog_owner"
	RoleClinicStaff Role = "clinic_staff"
	RoleAdmin       Role = "admin"
)

// ParseRole converts a raw string to a Role, returning false for unknown values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDogOwner, RoleClinicStaff, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated identity passed into every mutating engine
// call. Authentication happens upstream; the engine only authorizes.
type Principal struct {
	UserID UserID
	Role   Role
	// ClinicID is set for clinic staff and names the clinic they act for.
	ClinicID ClinicID
}

// IsZero reports whether no principal was attached to the call.
func (p Principal) IsZero() bool {
	return p.UserID.IsNil() && p.Role == ""
}

// IsAdmin reports whether the principal carries the platform admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ActsForClinic reports whether the principal may act on behalf of the given
// clinic. Admins may act for any clinic.
func (p Principal) ActsForClinic(clinic ClinicID) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleClinicStaff && p.ClinicID == clinic && !clinic.IsNil()
}

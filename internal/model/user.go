package model

import "time"

type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAgencyAdmin Role = "AGENCY_ADMIN"
	RoleAgent       Role = "AGENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAgencyAdmin, RoleAgent:
		return true
	}
	return false
}

// User is an internal account. AuthID is the identity provider subject.
// AgencyID is nil only for super admins.
type User struct {
	ID        string    `db:"id" json:"id"`
	AuthID    string    `db:"auth_id" json:"-"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Role      Role      `db:"role" json:"role"`
	AgencyID  *string   `db:"agency_id" json:"agencyId,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Agency groups agents and owns their listings.
type Agency struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

package domain

type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleProvider   Role = "PROVIDER"
	RoleFreelancer Role = "FREELANCER"
	RoleJobSeeker  Role = "JOB_SEEKER"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleFreelancer, RoleJobSeeker, RoleAdmin:
		return true
	}
	return false
}

// ActsAsProvider reports whether the role sells services: providers and
// freelancers bid on requests and own bookings on the provider side.
func (r Role) ActsAsProvider() bool {
	return r == RoleProvider || r == RoleFreelancer
}

type ProfileStatus string

const (
	ProfileStatusPending  ProfileStatus = "PENDING"
	ProfileStatusActive   ProfileStatus = "ACTIVE"
	ProfileStatusRejected ProfileStatus = "REJECTED"
	ProfileStatusBanned   ProfileStatus = "BANNED"
)

// Profile is the subset of a user profile the marketplace reads on every call.
type Profile struct {
	ID            string
	Role          Role
	DisplayName   string
	Email         string
	IsBanned      bool
	ProfileStatus ProfileStatus
}

func (p *Profile) Blocked() bool {
	return p.IsBanned || p.ProfileStatus == ProfileStatusBanned
}

// Principal is an authorized caller: who they are and the role they were
// granted for this call.
type Principal struct {
	SubjectID   string
	Role        Role
	DisplayName string
}

package model

// RoleKind — какой профиль закреплён за пользователем.
type RoleKind string

const (
	RoleNone     RoleKind = "none"
	RoleProvider RoleKind = "provider"
	RoleClient   RoleKind = "client"
)

// Role is the profile a user owns: none, a provider profile or a client
// profile. A user never holds both.
type Role struct {
	Kind     RoleKind
	Provider *Provider
	Client   *Client
}

// Role derives the role from the preloaded profile associations.
func (u *User) Role() Role {
	switch {
	case u.Provider != nil:
		return Role{Kind: RoleProvider, Provider: u.Provider}
	case u.Client != nil:
		return Role{Kind: RoleClient, Client: u.Client}
	default:
		return Role{Kind: RoleNone}
	}
}

// HasProfile reports whether the role flag is already locked in.
func (u *User) HasProfile() bool {
	return u.Role().Kind != RoleNone
}

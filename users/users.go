package users

import (
	"encoding/json"
	"strings"
)

// Role is the closed set of portal roles
type Role string

const (
	RoleAdmin      Role = "admin"      // School administrator
	RoleAccountant Role = "accountant" // Fee office staff, shares the admin dashboard
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

// Roles lists every recognised role
var Roles = []Role{RoleAdmin, RoleAccountant, RoleStudent, RoleParent}

// ParseRole maps a backend role string onto a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleAccountant:
		return RoleAccountant, true
	case RoleStudent:
		return RoleStudent, true
	case RoleParent:
		return RoleParent, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// UnmarshalJSON never fails on an unknown role; it leaves the zero Role instead.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*r = ""
		return nil
	}
	*r, _ = ParseRole(s)
	return nil
}

// User is the authenticated principal as returned by the backend, plus the token pair.
type User struct {
	ID           string `json:"id,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	Token        string `json:"token,omitempty"`        // Access token
	RefreshToken string `json:"refreshToken,omitempty"` // Refresh token
}

// DisplayName returns "First Last", falling back to the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// WithTokens returns a copy of the user carrying the given token pair
func (u User) WithTokens(access, refresh string) *User {
	u.Token = access
	u.RefreshToken = refresh
	return &u
}

// Clone returns a copy of u, or nil
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ProfileUpdate is a partial profile update; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil && p.Avatar == nil
}

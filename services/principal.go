package services

import (
	"fmt"

	"github.com/yeremiapane/cleanmate-app/models"
)

// Principal is the authenticated caller, resolved from a bearer token or a
// console session. Every service call that depends on identity takes one.
type Principal struct {
	UserID uint
	Role   models.Role
	Email  string
	Name   string
}

func PrincipalFromUser(u *models.User) Principal {
	return Principal{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.FullName}
}

func (p Principal) IsAdmin() bool    { return p.Role == models.RoleAdmin }
func (p Principal) IsCleaner() bool  { return p.Role == models.RoleCleaner }
func (p Principal) IsCustomer() bool { return p.Role == models.RoleCustomer }

func (p Principal) String() string {
	return fmt.Sprintf("%s#%d", p.Role, p.UserID)
}

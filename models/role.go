package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account kinds. Values outside the constants
// below are rejected by ParseRole and treated as unauthorized everywhere.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleCleaner  Role = "Cleaner"
	RoleAdmin    Role = "Admin"
)

// ParseRole accepts the role names case-insensitively ("cleaner", "Cleaner").
// An empty string defaults to Customer.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "customer":
		return RoleCustomer, nil
	case "cleaner":
		return RoleCleaner, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCleaner, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

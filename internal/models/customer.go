package models

import "time"

// Role is the access level attached to a customer account.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRetailer   Role = "retailer"
	RoleAdmin      Role = "admin"
	RoleAdvertiser Role = "advertiser"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleAdmin, RoleAdvertiser:
		return true
	}
	return false
}

// SelfService reports whether the role can be chosen at sign-up.
func (r Role) SelfService() bool {
	return r == RoleCustomer || r == RoleRetailer
}

// Customer represents an account of the store, whatever its role.
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Role      Role      `json:"role" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the person's coarse permission tier.
type UserRole string

const (
	// RoleUser is a regular account (manage its own listings and avatar)
	RoleUser UserRole = "user"
	// RoleAdmin is an administrator (account management endpoints)
	RoleAdmin UserRole = "admin"
)

// Person is the account model. Login uniqueness is enforced by the
// storage layer, not merely checked before insert.
type Person struct {
	bun.BaseModel `bun:"table:persons,alias:per"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Login         string     `bun:"login,notnull,unique" json:"login,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"role,notnull" json:"role,omitempty"`
	Avatar        string     `bun:"avatar,nullzero" json:"avatar,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Address is a property listing. The owner reference is set at creation
// and never reassigned.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:adr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Addr          string     `bun:"addr,notnull" json:"addr,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Cost          int64      `bun:"cost" json:"cost,omitempty"`
	Rooms         int        `bun:"rooms" json:"rooms,omitempty"`
	OwnerID       int64      `bun:"owner_id,notnull" json:"owner_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// GetOwnerID satisfies the Owned interface.
func (a *Address) GetOwnerID() int64 {
	return a.OwnerID
}

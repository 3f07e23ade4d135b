package domain

import (
	"net/mail"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

type Role string

const (
	RoleVisitor Role = "visitor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleVisitor || r == RoleAdmin
}

type UserAccount struct {
	ID           uuid.UUID `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Phone        string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         Role      `bson:"role" json:"role"`
	Active       bool      `bson:"active" json:"active"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

func NewUserAccount(name, email, passwordHash, phone string, role Role) (*UserAccount, error) {
	if name == "" || len(name) > 200 {
		return nil, errors.Wrap(ErrValidation, "name must be 1-200 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.Wrap(ErrValidation, "email is invalid")
	}
	if passwordHash == "" {
		return nil, errors.Wrap(ErrValidation, "password hash is required")
	}
	if !role.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown role %q", role)
	}
	now := time.Now().UTC()
	return &UserAccount{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

package domain

import "time"

const (
	RoleNameAdmin  = "admin"
	RoleNameWriter = "writer"
	RoleNameReader = "reader"
)

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RoleRepository interface {
	FindByID(id int64) (*Role, error)
	FindByName(name string) (*Role, error)
	FindAll() ([]*Role, error)
	Exists(id int64) (bool, error)
}

type RoleService interface {
	GetRoleByID(id int64) (*Role, error)
	GetRoleByName(name string) (*Role, error)
	ListRoles() ([]*Role, error)
	RoleExists(id int64) (bool, error)
}

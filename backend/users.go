package backend

import (
	"context"
	"fmt"
)

// UserAccount is one staff account.
type UserAccount struct {
	ID     int64  `json:"idusuario"`
	Name   string `json:"nombreCompleto"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	Active bool   `json:"activo"`
}

// CreateUserInput is the payload for a new staff account.
type CreateUserInput struct {
	Name     string `json:"nombreCompleto"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"rol"`
}

// Users lists all staff accounts.
func (c *Client) Users(ctx context.Context) ([]UserAccount, error) {
	var out []UserAccount
	if err := c.get(ctx, "/api/Usuarios", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser registers a new staff account.
func (c *Client) CreateUser(ctx context.Context, input CreateUserInput) (*UserAccount, error) {
	var out UserAccount
	if err := c.post(ctx, "/api/Usuarios", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser disables a staff account without deleting it.
func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	return c.put(ctx, fmt.Sprintf("/api/Usuarios/%d/desactivar", id), nil, nil)
}

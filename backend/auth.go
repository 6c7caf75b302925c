package backend

import "context"

// LoginResponse is the payload a successful credential exchange returns.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"idusuario"`
	FullName string `json:"nombreCompleto"`
	Email    string `json:"email"`
	Role     string `json:"rol"`
	RoleID   int64  `json:"idRol"`
}

// Login exchanges credentials for a bearer token and identity. Invalid
// credentials come back as an *APIError carrying the API's message.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out LoginResponse
	if err := c.post(ctx, "/api/Auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the backend whether the current token is still accepted
// and returns the identity it maps to.
func (c *Client) Validate(ctx context.Context) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.get(ctx, "/api/Auth/validate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword sets a new password for a staff account.
func (c *Client) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	body := struct {
		UserID      int64  `json:"usuarioId"`
		NewPassword string `json:"nuevaContrasena"`
	}{UserID: userID, NewPassword: newPassword}

	return c.post(ctx, "/api/Auth/change-password", body, nil)
}

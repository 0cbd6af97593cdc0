package platform

import (
	"context"
	"encoding/json"
	"net/http"
)

// LoginRequest is the body of the token endpoint.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	IsEmployee bool   `json:"isEmployee"`
}

// LoginResponse is the token endpoint's reply. Token may be empty when the
// service accepts the credentials but issues nothing.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token. The token is not stored.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{
		Email:      email,
		Password:   password,
		IsEmployee: true,
	}

	var resp LoginResponse
	if err := c.Do(ctx, http.MethodPost, c.cfg.LoginPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserInfo fetches the profile of the stored token's owner. The raw payload
// is returned so callers decide which fields are required.
func (c *Client) UserInfo(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, c.cfg.UserInfoPath, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

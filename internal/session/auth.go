package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/hypertrack/internal/models"
	"github.com/desertthunder/hypertrack/internal/transport"
)

// Authenticator talks to the backend's /auth endpoints.
type Authenticator interface {
	Signup(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error)
	Me(ctx context.Context, token string) (*models.User, error)
}

// AuthClient implements [Authenticator] over a [transport.Client].
//
// Auth requests carry no service key and use the auth deadline.
type AuthClient struct {
	transport *transport.Client
}

// NewAuthClient creates a new [AuthClient].
func NewAuthClient(t *transport.Client) *AuthClient {
	return &AuthClient{transport: t}
}

// Signup creates an account. The response does not grant a session.
func (c *AuthClient) Signup(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var user models.User
	req := transport.Request{Method: http.MethodPost, Path: "/auth/signup", Body: creds, Auth: true}
	if err := c.transport.Do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error) {
	var token models.AuthToken
	req := transport.Request{Method: http.MethodPost, Path: "/auth/login", Body: creds, Auth: true}
	if err := c.transport.Do(ctx, req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("login response did not include an access token")
	}
	return &token, nil
}

// Me resolves the user a token belongs to.
func (c *AuthClient) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	req := transport.Request{Method: http.MethodGet, Path: "/auth/me", Token: token, Auth: true}
	if err := c.transport.Do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"marketchat/pkg/errors"
)

// AuthClient resolves an inbound bearer token to a user ID. Authentication
// itself lives with the identity platform; this service only consumes the
// resolution.
type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{
		client: client,
	}
}

func (c *AuthClient) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := c.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return token.UID, nil
}

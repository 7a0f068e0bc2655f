package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"marketchat/internal/infrastructure/firebase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

type AuthMiddleware struct {
	authClient *firebase.AuthClient
}

func NewAuthMiddleware(authClient *firebase.AuthClient) *AuthMiddleware {
	return &AuthMiddleware{authClient: authClient}
}

// Authenticate verifies the Bearer token and stores the caller's uid in the
// request context.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return response.Error(c, errors.Unauthorized("Missing authorization header", nil))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return response.Error(c, errors.Unauthorized("Invalid authorization header format", nil))
			}

			uid, err := m.authClient.VerifyToken(c.Request().Context(), parts[1])
			if err != nil {
				return response.Error(c, err)
			}

			c.Set("uid", uid)
			return next(c)
		}
	}
}

// AuthenticateWebSocket accepts the token as a query parameter because
// browser WebSocket clients cannot set an Authorization header.
func (m *AuthMiddleware) AuthenticateWebSocket() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.QueryParam("token")
			if token == "" {
				return response.Error(c, errors.Unauthorized("Missing token query parameter", nil))
			}

			uid, err := m.authClient.VerifyToken(c.Request().Context(), token)
			if err != nil {
				return response.Error(c, err)
			}

			c.Set("uid", uid)
			return next(c)
		}
	}
}

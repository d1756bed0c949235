package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Roles the identity collaborator can assign to a verified user.
const (
	RoleCandidate = "CANDIDATE"
	RoleEmployer  = "EMPLOYER"
)

const userLocalsKey = "auth.user"

// ErrUnauthenticated is returned by an IdentityProvider when the request
// carries no verifiable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// User is the verified identity attached to a request.
type User struct {
	ID   string
	Role string
}

// IdentityProvider resolves a request to a verified user. Session and
// token handling live outside this service; the orchestrator only consumes
// the resulting (id, role) pair.
type IdentityProvider interface {
	CurrentUser(c *fiber.Ctx) (User, error)
}

// Authenticate resolves the identity once per request and stores it in the
// request locals for handlers to read via CurrentUser.
func Authenticate(provider IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := provider.CurrentUser(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// RequireRole gates a route on the authenticated user's role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(userLocalsKey).(User)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		if user.Role != role {
			return fiber.NewError(fiber.StatusForbidden, "Forbidden")
		}
		return c.Next()
	}
}

// CurrentUser reads the identity stored by Authenticate.
func CurrentUser(c *fiber.Ctx) (User, bool) {
	user, ok := c.Locals(userLocalsKey).(User)
	return user, ok
}

// HeaderIdentityProvider trusts identity headers injected by an upstream
// gateway that has already verified the session. It is the default wiring
// for deployments where authentication terminates at the edge.
type HeaderIdentityProvider struct{}

func (HeaderIdentityProvider) CurrentUser(c *fiber.Ctx) (User, error) {
	id := c.Get("X-User-Id")
	role := c.Get("X-User-Role")
	if id == "" || role == "" {
		return User{}, ErrUnauthenticated
	}
	return User{ID: id, Role: role}, nil
}

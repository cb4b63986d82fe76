package rest

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

const (
	localsRequestID = "request_id"
	localsUser      = "user"
)

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(common.RequestIDHeaderName))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(localsRequestID, id)
		c.Set(common.RequestIDHeaderName, id)
		return c.Next()
	}
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}

func (s *Server) accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		s.logger.Info(c.UserContext(), "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
			"request_id", requestIDOf(c),
		)
		return nil
	}
}

// requireAuth accepts "Authorization: Bearer <jwt>", re-reads the user so
// tokens of deleted accounts stop working, and stores the user in the
// request locals.
func (s *Server) requireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return common.ErrMissingToken
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return common.ErrInvalidToken
		}

		userID, err := auth.GetUserIDFromToken(strings.TrimSpace(token), s.jwtSecret)
		if err != nil {
			return err
		}

		u, err := s.users.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
				return common.ErrTokenUserGone
			}
			return err
		}

		c.Locals(localsUser, u)
		return c.Next()
	}
}

// requireAdmin runs after requireAuth and admits only the configured admin
// emails.
func (s *Server) requireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := userOf(c)
		if !ok {
			return common.ErrMissingToken
		}
		if _, admin := s.admins[u.Email]; !admin {
			s.logger.Warn(c.UserContext(), "admin access denied", "user_id", u.ID, "path", c.Path())
			return common.ErrNotAdmin
		}
		return c.Next()
	}
}

func userOf(c *fiber.Ctx) (models.User, bool) {
	u, ok := c.Locals(localsUser).(models.User)
	return u, ok
}

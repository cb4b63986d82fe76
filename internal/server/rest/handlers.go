package rest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/passwords"
)

var (
	errInvalidBody       = common.Validation("invalid_body", "request body must be a JSON object")
	errLoginFields       = common.Validation("missing_fields", "email and password are required")
	errBackupUnavailable = fiber.NewError(fiber.StatusServiceUnavailable, "backups are not configured")
)

type countResponse struct {
	Count int `json:"count"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// parseUserInput decodes the request body. An empty body yields nil so the
// validator reports missing_body.
func parseUserInput(c *fiber.Ctx) (*models.UserInput, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	var in models.UserInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, errInvalidBody
	}
	return &in, nil
}

// queryInt reads a positive integer query value. Missing or malformed values
// read as 0 and are then replaced by the paging defaults.
func queryInt(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) createUser(c *fiber.Ctx) error {
	in, err := parseUserInput(c)
	if err != nil {
		return err
	}
	u, err := s.users.CreateUser(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// listUsers returns the plain array, or a page object when page or limit is
// present in the query.
func (s *Server) listUsers(c *fiber.Ctx) error {
	if c.Query("page") != "" || c.Query("limit") != "" {
		p, err := s.users.FindPaginated(c.UserContext(), queryInt(c, "page"), queryInt(c, "limit"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}

	users, err := s.users.GetAllUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (s *Server) countUsers(c *fiber.Ctx) error {
	n, err := s.users.CountUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(countResponse{Count: n})
}

func (s *Server) getUser(c *fiber.Ctx) error {
	u, err := s.users.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	in, err := parseUserInput(c)
	if err != nil {
		return err
	}
	u, err := s.users.UpdateUser(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	u, err := s.users.DeleteUserByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errLoginFields
	}

	res, err := s.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(loginResponse{
		Token:     res.AccessToken,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

func (s *Server) me(c *fiber.Ctx) error {
	u, ok := userOf(c)
	if !ok {
		return common.ErrMissingToken
	}
	return c.JSON(u)
}

func (s *Server) passwordPolicy(c *fiber.Ctx) error {
	return c.JSON(passwords.Requirements())
}

func (s *Server) backup(c *fiber.Ctx) error {
	if s.backups == nil {
		return errBackupUnavailable
	}
	res, err := s.backups.Snapshot(c.UserContext())
	if err != nil {
		return err
	}
	u, _ := userOf(c)
	s.logger.Info(c.UserContext(), "backup requested", "by", u.ID, "key", res.Key)
	return c.Status(fiber.StatusCreated).JSON(res)
}

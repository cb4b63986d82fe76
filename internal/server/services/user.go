// Package services contains the business logic between the transports and
// the repositories. UserService validates and sanitizes input, hashes
// passwords, enforces email uniqueness and issues access tokens.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/emails"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/userkeeper/internal/server/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// LoginResult is returned by Login.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        models.User
}

// UserService implements the user operations. Records it returns never carry
// the password hash.
type UserService struct {
	repo                        users.Repository
	hasher                      *passwords.Hasher
	rules                       validation.Rules
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
}

// NewUserService constructs a UserService over repo using the server config.
func NewUserService(repo users.Repository, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repo:                        repo,
		hasher:                      passwords.NewHasher(cfg.BcryptCost),
		rules:                       validation.Rules{RequirePassword: cfg.RequirePassword},
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		log:                         log.With("module", "services.users"),
	}
}

// ClampPage applies the paging defaults: page below 1 becomes 1, limit
// outside 1..MaxLimit becomes DefaultLimit.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

// fail logs err at a level matching its kind and returns it unchanged.
func (s *UserService) fail(ctx context.Context, op string, err error) error {
	if common.CodeOf(err) == "internal" && !errors.Is(err, context.Canceled) {
		s.log.Error(ctx, op+" failed", "error", err)
	} else {
		s.log.Info(ctx, op+" rejected", "code", common.CodeOf(err))
	}
	return err
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list users", err)
	}
	s.log.Debug(ctx, "listed users", "count", len(all))
	return models.PublicUsers(all), nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (models.User, error) {
	if err := validation.ValidateID(id); err != nil {
		return models.User{}, s.fail(ctx, "find user", err)
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.User{}, s.fail(ctx, "find user", err)
	}
	return u.Public(), nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return models.User{}, s.fail(ctx, "find user by email", err)
	}
	u, err := s.repo.FindByEmail(ctx, emails.Normalize(email))
	if err != nil {
		return models.User{}, s.fail(ctx, "find user by email", err)
	}
	return u.Public(), nil
}

// EmailExists reports whether a user other than excludeID has email.
func (s *UserService) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return false, s.fail(ctx, "check email", err)
	}
	ok, err := s.repo.EmailExists(ctx, emails.Normalize(email), excludeID)
	if err != nil {
		return false, s.fail(ctx, "check email", err)
	}
	return ok, nil
}

// CreateUser validates in, hashes the password and stores the record. The
// repository re-checks email uniqueness atomically with the write.
func (s *UserService) CreateUser(ctx context.Context, in *models.UserInput) (models.User, error) {
	if err := s.rules.ValidateCreate(in); err != nil {
		return models.User{}, s.fail(ctx, "create user", err)
	}
	clean := validation.Sanitize(*in)

	taken, err := s.repo.EmailExists(ctx, *clean.Email, "")
	if err != nil {
		return models.User{}, s.fail(ctx, "create user", err)
	}
	if taken {
		return models.User{}, s.fail(ctx, "create user", common.ErrEmailTaken)
	}

	user := models.User{Name: *clean.Name, Email: *clean.Email}
	if clean.Password != nil && *clean.Password != "" {
		hash, err := s.hasher.HashContext(ctx, *clean.Password)
		if err != nil {
			return models.User{}, s.fail(ctx, "create user", err)
		}
		user.Password = hash
	}

	saved, err := s.repo.Create(ctx, user)
	if err != nil {
		return models.User{}, s.fail(ctx, "create user", err)
	}

	s.log.Info(ctx, "user created", "id", saved.ID)
	return saved.Public(), nil
}

// UpdateUser merges the supplied fields into the record with id.
func (s *UserService) UpdateUser(ctx context.Context, id string, in *models.UserInput) (models.User, error) {
	if err := validation.ValidateID(id); err != nil {
		return models.User{}, s.fail(ctx, "update user", err)
	}
	if err := s.rules.ValidateUpdate(in); err != nil {
		return models.User{}, s.fail(ctx, "update user", err)
	}
	clean := validation.Sanitize(*in)

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return models.User{}, s.fail(ctx, "update user", err)
	}

	if clean.Email != nil {
		taken, err := s.repo.EmailExists(ctx, *clean.Email, id)
		if err != nil {
			return models.User{}, s.fail(ctx, "update user", err)
		}
		if taken {
			return models.User{}, s.fail(ctx, "update user", common.ErrEmailTaken)
		}
	}

	if clean.Password != nil {
		hash, err := s.hasher.HashContext(ctx, *clean.Password)
		if err != nil {
			return models.User{}, s.fail(ctx, "update user", err)
		}
		clean.Password = &hash
	}

	updated, err := s.repo.Update(ctx, id, clean)
	if err != nil {
		return models.User{}, s.fail(ctx, "update user", err)
	}

	s.log.Info(ctx, "user updated", "id", id)
	return updated.Public(), nil
}

func (s *UserService) DeleteUserByID(ctx context.Context, id string) (models.User, error) {
	if err := validation.ValidateID(id); err != nil {
		return models.User{}, s.fail(ctx, "delete user", err)
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return models.User{}, s.fail(ctx, "delete user", err)
	}

	s.log.Info(ctx, "user deleted", "id", id)
	return deleted.Public(), nil
}

func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, s.fail(ctx, "count users", err)
	}
	return n, nil
}

// FindPaginated returns one page after applying ClampPage.
func (s *UserService) FindPaginated(ctx context.Context, page, limit int) (models.Page, error) {
	page, limit = ClampPage(page, limit)

	p, err := s.repo.FindPaginated(ctx, page, limit)
	if err != nil {
		return models.Page{}, s.fail(ctx, "list users page", err)
	}
	p.Users = models.PublicUsers(p.Users)

	s.log.Debug(ctx, "listed page", "page", page, "returned", len(p.Users), "total", p.Total)
	return p, nil
}

// AuthenticateUser checks email and password. Unknown email and wrong
// password both yield common.ErrInvalidCredentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return models.User{}, s.fail(ctx, "authenticate", err)
	}

	u, err := s.repo.FindByEmail(ctx, emails.Normalize(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.User{}, s.fail(ctx, "authenticate", common.ErrInvalidCredentials)
		}
		return models.User{}, s.fail(ctx, "authenticate", err)
	}

	if !u.HasPassword() {
		return models.User{}, s.fail(ctx, "authenticate", common.ErrPasswordNotSet)
	}

	ok, err := s.hasher.CompareContext(ctx, password, u.Password)
	if err != nil {
		return models.User{}, s.fail(ctx, "authenticate", err)
	}
	if !ok {
		return models.User{}, s.fail(ctx, "authenticate", common.ErrInvalidCredentials)
	}

	s.log.Info(ctx, "user authenticated", "id", u.ID)
	return u.Public(), nil
}

// Login authenticates and issues an access token for the user.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := auth.GenerateToken(u.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, s.fail(ctx, "issue token", err)
	}

	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: u}, nil
}

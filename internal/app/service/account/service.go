package account

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/config"
	"github.com/fatflowers/backoffice/pkg/logctx"
)

var (
	ErrRoleNotFound = fmt.Errorf("role %w", store.ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", store.ErrNotFound)
)

type RoleTable interface {
	List(ctx context.Context) ([]*models.Role, error)
	Find(ctx context.Context, id int64) (*models.Role, error)
	Create(ctx context.Context, row *models.Role) error
	Update(ctx context.Context, id int64, row *models.Role) error
	Delete(ctx context.Context, id int64) error
}

type UserTable interface {
	ListWithRoles(ctx context.Context) ([]*models.UserView, error)
	Find(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, row *models.User) error
	Update(ctx context.Context, id int64, row *models.User) error
	UpdateColumns(ctx context.Context, id int64, cols map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// Service manages roles, users and logins.
type Service struct {
	roles       RoleTable
	users       UserTable
	hasher      CredentialHasher
	tokens      *TokenIssuer
	adminRoleID int64
	log         *zap.SugaredLogger
}

func New(roles RoleTable, users UserTable, hasher CredentialHasher, tokens *TokenIssuer, adminRoleID int64, log *zap.SugaredLogger) *Service {
	return &Service{roles: roles, users: users, hasher: hasher, tokens: tokens, adminRoleID: adminRoleID, log: log}
}

func NewService(st *store.Store, hasher CredentialHasher, tokens *TokenIssuer, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return New(st.Roles, st.Users, hasher, tokens, cfg.Auth.AdminRoleID, log)
}

var Module = fx.Options(
	fx.Provide(NewHasher),
	fx.Provide(NewTokenIssuer),
	fx.Provide(NewService),
)

func notFound(err, sentinel error, id int64) error {
	if store.IsNotFound(err) {
		return fmt.Errorf("%w: id=%d", sentinel, id)
	}
	return err
}

// Roles

func (s *Service) ListRoles(ctx context.Context) ([]*models.Role, error) {
	return s.roles.List(ctx)
}

func (s *Service) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	r, err := s.roles.Find(ctx, id)
	return r, notFound(err, ErrRoleNotFound, id)
}

func (s *Service) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	r := &models.Role{Name: strings.TrimSpace(name)}
	if r.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := s.roles.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, name string) (*models.Role, error) {
	r := &models.Role{Name: strings.TrimSpace(name)}
	if r.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := s.roles.Update(ctx, id, r); err != nil {
		return nil, notFound(err, ErrRoleNotFound, id)
	}
	return s.GetRole(ctx, id)
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return notFound(s.roles.Delete(ctx, id), ErrRoleNotFound, id)
}

// Users

// UserInput is a create or update request. An empty Password on update keeps the current one.
type UserInput struct {
	Name     string
	Email    string
	Password string
	RoleID   int64
}

func (s *Service) validateUser(ctx context.Context, actor Actor, in UserInput, creating bool) (*models.User, error) {
	u := &models.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.ToLower(strings.TrimSpace(in.Email)),
		RoleID: in.RoleID,
	}
	switch {
	case u.Name == "":
		return nil, apperr.Invalid("name is required")
	case u.Email == "":
		return nil, apperr.Invalid("email is required")
	case u.RoleID < 1:
		return nil, apperr.Invalid("role_id is required")
	case creating && in.Password == "":
		return nil, apperr.Invalid("password is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, apperr.Invalid("email is invalid")
	}
	if u.RoleID == s.adminRoleID && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: users cannot create admin", apperr.ErrForbidden)
	}
	if _, err := s.roles.Find(ctx, u.RoleID); err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.Invalid("role %d does not exist", u.RoleID)
		}
		return nil, err
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*models.UserView, error) {
	return s.users.ListWithRoles(ctx)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.Find(ctx, id)
	return u, notFound(err, ErrUserNotFound, id)
}

// CreateUser creates an account. Only admins may create admins.
func (s *Service) CreateUser(ctx context.Context, actor Actor, in UserInput) (*models.User, error) {
	u, err := s.validateUser(ctx, actor, in, true)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("user created", "user_id", u.ID, "role_id", u.RoleID)
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, actor Actor, id int64, in UserInput) (*models.User, error) {
	u, err := s.validateUser(ctx, actor, in, false)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, id, u); err != nil {
		return nil, notFound(err, ErrUserNotFound, id)
	}
	return s.GetUser(ctx, id)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return notFound(s.users.Delete(ctx, id), ErrUserNotFound, id)
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	Actor     Actor        `json:"actor"`
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords fail identically. Legacy hashes are upgraded on success.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.Password, password) {
		return nil, apperr.ErrInvalidCredentials
	}

	log := logctx.FromCtx(ctx, s.log)
	if s.hasher.NeedsRehash(u.Password) {
		if hash, err := s.hasher.Hash(password); err != nil {
			log.Warnw("rehash failed", "user_id", u.ID, "err", err)
		} else if err := s.users.UpdateColumns(ctx, u.ID, map[string]any{"password": hash}); err != nil {
			log.Warnw("store rehash failed", "user_id", u.ID, "err", err)
		} else {
			u.Password = hash
			log.Infow("password rehashed", "user_id", u.ID)
		}
	}

	token, exp, err := s.tokens.Issue(u.ID, u.RoleID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u, Actor: NewActor(u.ID, u.RoleID, s.adminRoleID)}, nil
}

// Authenticate resolves a bearer token to an actor.
func (s *Service) Authenticate(token string) (Actor, error) {
	return s.tokens.Parse(token)
}

// Seed creates the admin role and a first admin user when absent. Used by the CLI.
func (s *Service) Seed(ctx context.Context, name, email, password string) (*models.User, error) {
	if _, err := s.roles.Find(ctx, s.adminRoleID); err != nil {
		if !store.IsNotFound(err) {
			return nil, err
		}
		role := &models.Role{Name: "admin"}
		if err := s.roles.Create(ctx, role); err != nil {
			return nil, err
		}
		if role.ID != s.adminRoleID {
			return nil, fmt.Errorf("admin role created with id %d, expected %d", role.ID, s.adminRoleID)
		}
	}
	if u, err := s.users.FindByEmail(ctx, strings.ToLower(email)); err == nil {
		return u, nil
	} else if !store.IsNotFound(err) {
		return nil, err
	}
	admin := Actor{IsAdmin: true, RoleID: s.adminRoleID}
	return s.CreateUser(ctx, admin, UserInput{Name: name, Email: email, Password: password, RoleID: s.adminRoleID})
}

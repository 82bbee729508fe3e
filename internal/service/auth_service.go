package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

// UserStore is the credential store.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
}

type AuthService struct {
	users      UserStore
	tokens     *TokenService
	audit      *AuditService
	bcryptCost int
}

func NewAuthService(users UserStore, tokens *TokenService, audit *AuditService, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, audit: audit, bcryptCost: bcryptCost}
}

// Register creates a USER account. Roles cannot be chosen at registration.
func (s *AuthService) Register(ctx context.Context, actor model.AuditActor, email string, password string) (model.AuthUser, error) {
	user, err := s.createUser(ctx, email, password, model.RoleUser)
	if err != nil {
		s.audit.Log(ctx, "auth.register", actor, model.AuditStatusFailure, normalizeEmail(email), nil, nil, err.Error())
		return model.AuthUser{}, err
	}

	actor.UserID, actor.Email, actor.Role = user.ID, user.Email, user.Role
	s.audit.Log(ctx, "auth.register", actor, model.AuditStatusSuccess, user.Email, nil, user.Public(), "")
	return user.Public(), nil
}

// Login verifies credentials and issues an access/refresh pair. A failed
// attempt leaves the stored refresh token untouched.
func (s *AuthService) Login(ctx context.Context, actor model.AuditActor, email string, password string) (model.TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		s.audit.Log(ctx, "auth.login", actor, model.AuditStatusFailure, email, nil, nil, "unknown email")
		return model.TokenPair{}, invalidCredentials()
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		actor.UserID = user.ID
		s.audit.Log(ctx, "auth.login", actor, model.AuditStatusFailure, email, nil, nil, "password mismatch")
		return model.TokenPair{}, invalidCredentials()
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	actor.UserID, actor.Email, actor.Role = user.ID, user.Email, user.Role
	s.audit.Log(ctx, "auth.login", actor, model.AuditStatusSuccess, email, nil, nil, "")

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, actor model.AuditActor, refreshToken string) (model.AccessTokenResponse, error) {
	accessToken, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindUnauthorized {
			s.audit.Log(ctx, "auth.refresh", actor, model.AuditStatusFailure, "", nil, nil, err.Error())
		}
		return model.AccessTokenResponse{}, err
	}

	return model.AccessTokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, actor model.AuditActor) error {
	if err := s.tokens.Logout(ctx, actor.UserID); err != nil {
		return err
	}
	s.audit.Log(ctx, "auth.logout", actor, model.AuditStatusSuccess, actor.Email, nil, nil, "")
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthUser{}, apierror.Wrap(apierror.KindNotFound, err, "user not found")
	}
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}

	exists, err := s.users.ExistsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists {
		return nil
	}

	user, err := s.createUser(ctx, email, password, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	slog.Info("seeded admin account", "user_id", user.ID, "email", user.Email)
	return nil
}

func (s *AuthService) createUser(ctx context.Context, email string, password string, role model.Role) (model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, apierror.Validation("email and password are required", "")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, userAlreadyExists(email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.User{}, apierror.Validation("password is too long", "password")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, userAlreadyExists(email)
		}
		return model.User{}, err
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return apierror.Wrap(apierror.KindUnauthorized, model.ErrInvalidCredentials, "invalid credentials")
}

func userAlreadyExists(email string) error {
	err := apierror.Wrap(apierror.KindConflict, model.ErrUserAlreadyExists, "user already exists")
	err.Details = email
	return err
}

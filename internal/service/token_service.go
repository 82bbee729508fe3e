package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-contacts-api/internal/config"
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

// RefreshTokenStore persists the one active refresh token per user.
type RefreshTokenStore interface {
	Store(ctx context.Context, userID int64, token string) error
	Current(ctx context.Context, userID int64) (string, error)
	Revoke(ctx context.Context, userID int64) error
}

type userFinder interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
}

type tokenClaims struct {
	UserID int64      `json:"userId"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	Type   string     `json:"type"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	revokePolicy string
	users        userFinder
	tokens       RefreshTokenStore
	now          func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration, refreshTTL time.Duration, revokePolicy string, users userFinder, tokens RefreshTokenStore) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if revokePolicy == "" {
		revokePolicy = config.RefreshRevokeVerified
	}

	return &TokenService{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		revokePolicy: revokePolicy,
		users:        users,
		tokens:       tokens,
		now:          time.Now,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccessToken signs a short-lived token carrying the user's identity and role.
func (s *TokenService) IssueAccessToken(user model.User) (string, error) {
	return s.sign(tokenClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Role:             user.Role,
		Type:             model.TokenTypeAccess,
		RegisteredClaims: s.registered(user.ID, s.accessTTL),
	})
}

// IssueRefreshToken signs a refresh token and stores it on the user record,
// replacing any previous one.
func (s *TokenService) IssueRefreshToken(ctx context.Context, user model.User) (string, error) {
	token, err := s.sign(tokenClaims{
		UserID:           user.ID,
		Type:             model.TokenTypeRefresh,
		RegisteredClaims: s.registered(user.ID, s.refreshTTL),
	})
	if err != nil {
		return "", err
	}

	if err := s.tokens.Store(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}

	return token, nil
}

func (s *TokenService) VerifyAccessToken(token string) (*model.AuthClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apierror.Wrap(apierror.KindUnauthorized, model.ErrTokenMissing, "no token provided")
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindUnauthorized, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err), "invalid or expired token")
	}
	if claims.Type != model.TokenTypeAccess {
		return nil, apierror.Wrap(apierror.KindUnauthorized, model.ErrTokenInvalid, "invalid token type, use an access token")
	}

	return toAuthClaims(claims), nil
}

// Refresh exchanges the user's current refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, presented string) (string, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return "", apierror.Wrap(apierror.KindUnauthorized, model.ErrTokenMissing, "refresh token is required")
	}

	claims, err := s.parse(presented)
	if err != nil {
		s.revokeAfterFailure(ctx, presented, err)
		return "", invalidRefreshToken()
	}

	if claims.Type != model.TokenTypeRefresh {
		return "", invalidRefreshToken()
	}

	stored, err := s.tokens.Current(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", invalidRefreshToken()
	}
	if err != nil {
		return "", err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return "", invalidRefreshToken()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", invalidRefreshToken()
	}
	if err != nil {
		return "", err
	}

	return s.IssueAccessToken(user)
}

// Logout clears the stored refresh token. Calling it again is a no-op.
func (s *TokenService) Logout(ctx context.Context, userID int64) error {
	return s.tokens.Revoke(ctx, userID)
}

// revokeAfterFailure forces re-authentication for the user a rejected refresh
// token claims to belong to. Which failures qualify depends on revokePolicy:
// "verified" acts only when the signature checked out and the claims did not
// (for example an expired token), "unverified" acts on any decodable token,
// "off" never acts.
func (s *TokenService) revokeAfterFailure(ctx context.Context, presented string, parseErr error) {
	var userID int64

	switch s.revokePolicy {
	case config.RefreshRevokeVerified:
		if !errors.Is(parseErr, jwt.ErrTokenInvalidClaims) {
			return
		}
		claims := &tokenClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(presented, claims); err != nil {
			return
		}
		userID = claims.UserID
	case config.RefreshRevokeUnverified:
		claims := &tokenClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(presented, claims); err != nil {
			return
		}
		userID = claims.UserID
	default:
		return
	}

	if userID <= 0 {
		return
	}

	if err := s.tokens.Revoke(ctx, userID); err != nil {
		slog.Warn("failed to revoke refresh token after rejected refresh", "user_id", userID, "error", err)
		return
	}
	slog.Info("refresh token revoked after rejected refresh", "user_id", userID, "policy", s.revokePolicy)
}

func (s *TokenService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) registered(userID int64, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now().UTC()
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *TokenService) sign(claims tokenClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

func toAuthClaims(c *tokenClaims) *model.AuthClaims {
	out := &model.AuthClaims{
		UserID:  c.UserID,
		Email:   c.Email,
		Role:    c.Role,
		Type:    c.Type,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

func invalidRefreshToken() error {
	return apierror.Wrap(apierror.KindUnauthorized, model.ErrInvalidRefreshToken, "invalid or expired refresh token")
}

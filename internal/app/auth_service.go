package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

const (
	minPasswordLen = 6
	// expiringSoonWindow flags access tokens that should be refreshed.
	expiringSoonWindow = 15 * time.Minute
)

// AuthService registers users and manages their token sessions.
type AuthService struct {
	users  UserStore
	issuer TokenIssuer
	tokens TokenStore
	hasher PasswordHasher
	now    func() time.Time
	newID  func() string
}

func NewAuthService(users UserStore, issuer TokenIssuer, tokens TokenStore, hasher PasswordHasher, opts ...Option) *AuthService {
	o := defaultOptions(opts)
	return &AuthService{
		users:  users,
		issuer: issuer,
		tokens: tokens,
		hasher: hasher,
		now:    o.now,
		newID:  o.newID,
	}
}

// Register creates an account and signs it in. The role defaults to teacher.
func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput) (domain.Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return domain.Session{}, domain.Validation("name is required")
	}
	if email == "" {
		return domain.Session{}, domain.Validation("please include a valid email")
	}
	if len(in.Password) < minPasswordLen {
		return domain.Session{}, domain.Validation("password must be at least 6 characters long")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleTeacher
	}
	if !role.Valid() {
		return domain.Session{}, domain.Validation("role must be one of teacher, student, admin")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.Session{}, domain.ErrEmailTaken
		}
		return domain.Session{}, fmt.Errorf("create user: %w", err)
	}

	logger.WithContext(ctx).WithField("user_id", user.ID).Info("user registered")
	return s.issueSession(ctx, user)
}

// Login checks credentials and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.Validation("please provide email and password")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, domain.ErrInvalidCredentials
		}
		return domain.Session{}, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}
	return s.issueSession(ctx, user)
}

// Refresh exchanges a stored refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	if refreshToken == "" {
		return domain.Session{}, domain.NewError(domain.ErrUnauthenticated, "no refresh token provided")
	}

	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidRefreshToken
	}
	ok, err := s.tokens.ValidateRefreshToken(ctx, claims.UserID, refreshToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("validate refresh token: %w", err)
	}
	if !ok {
		return domain.Session{}, domain.ErrInvalidRefreshToken
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidRefreshToken
	}

	access, accessExp, err := s.issuer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return domain.Session{}, fmt.Errorf("issue access token: %w", err)
	}
	return domain.Session{
		User:          user,
		AccessToken:   access,
		RefreshToken:  refreshToken,
		AccessExpiry:  accessExp,
		RefreshExpiry: claims.ExpiresAt,
	}, nil
}

// Logout revokes r's refresh token and the presented access token.
func (s *AuthService) Logout(ctx context.Context, r domain.Requester, accessToken string) error {
	if err := s.tokens.DeleteRefreshToken(ctx, r.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if accessToken == "" {
		return nil
	}
	claims, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		return nil
	}
	if ttl := claims.ExpiresAt.Sub(s.now()); ttl > 0 {
		if err := s.tokens.BlacklistToken(ctx, accessToken, ttl); err != nil {
			return fmt.Errorf("blacklist token: %w", err)
		}
	}
	return nil
}

// Authenticate resolves an access token to the identity it acts as.
// expiringSoon is set when the token has less than 15 minutes left.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (r domain.Requester, expiringSoon bool, err error) {
	if accessToken == "" {
		return domain.Requester{}, false, domain.ErrNotAuthorized
	}
	claims, err := s.issuer.VerifyAccessToken(accessToken)
	if err != nil {
		return domain.Requester{}, false, err
	}

	revoked, err := s.tokens.IsTokenBlacklisted(ctx, accessToken)
	if err != nil {
		return domain.Requester{}, false, fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return domain.Requester{}, false, domain.ErrNotAuthorized
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Requester{}, false, domain.NewError(domain.ErrUnauthenticated, "user not found")
		}
		return domain.Requester{}, false, fmt.Errorf("find user: %w", err)
	}
	return user.Requester(), claims.ExpiresAt.Sub(s.now()) < expiringSoonWindow, nil
}

// Me returns the account behind r.
func (s *AuthService) Me(ctx context.Context, r domain.Requester) (domain.User, error) {
	return s.users.GetUser(ctx, r.ID)
}

func (s *AuthService) issueSession(ctx context.Context, user domain.User) (domain.Session, error) {
	access, accessExp, err := s.issuer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return domain.Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, refresh, refreshExp.Sub(s.now())); err != nil {
		return domain.Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	return domain.Session{
		User:          user,
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

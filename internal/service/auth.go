package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Skotchmaster/basket_shop/internal/domain"
	"github.com/Skotchmaster/basket_shop/internal/models"
	"github.com/Skotchmaster/basket_shop/internal/repo"
	pkg_hash "github.com/Skotchmaster/basket_shop/pkg/hash"
	jwthelp "github.com/Skotchmaster/basket_shop/pkg/jwt"
	"github.com/Skotchmaster/basket_shop/pkg/logging"
	"github.com/Skotchmaster/basket_shop/pkg/mykafka"
	"github.com/Skotchmaster/basket_shop/pkg/tokens"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	minPasswordLen  = 8
)

type UserStore interface {
	UserExist(ctx context.Context, email, password string) (*models.User, error)
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateSession(ctx context.Context, s *models.Session) error
	GetActiveSession(ctx context.Context, jti string, now time.Time) (*models.Session, error)
	RevokeSession(ctx context.Context, jti string) error
}

type AuthService struct {
	Repo      UserStore
	JWTSecret []byte
	TokenTTL  time.Duration
	Events    EventPublisher
	Now       func() time.Time
}

type AuthResult struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
}

func (h *AuthService) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *AuthService) ttl() time.Duration {
	if h.TokenTTL > 0 {
		return h.TokenTTL
	}
	return DefaultTokenTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(name, email, password string) error {
	verr := &ValidationError{}
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		verr.Add("name", "name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		verr.Add("name", "name may not be greater than 255 characters")
	}
	switch {
	case email == "":
		verr.Add("email", "email is required")
	case len(email) > maxNameLen:
		verr.Add("email", "email may not be greater than 255 characters")
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			verr.Add("email", "email must be a valid email address")
		}
	}
	switch {
	case password == "":
		verr.Add("password", "password is required")
	case len(password) < minPasswordLen:
		verr.Add("password", "password must be at least 8 characters")
	}
	return verr.OrNil()
}

func (h *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: pwHash,
	}

	if err := h.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "reason", "email already registered")
			return nil, fmt.Errorf("email has already been taken: %w", ErrConflict)
		}
		l.Error("register_error", "reason", "cannot create user", "error", err)
		return nil, err
	}

	res, err := h.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	publish(ctx, h.Events, mykafka.TopicUserEvents, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})
	return res, nil
}

func (h *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	user, err := h.Repo.UserExist(ctx, email, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("login_failed", "reason", "invalid email or password")
			return nil, fmt.Errorf("the provided credentials are incorrect: %w", ErrUnauthorized)
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}

	res, err := h.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	publish(ctx, h.Events, mykafka.TopicUserEvents, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})
	return res, nil
}

func (h *AuthService) issueSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	jti := jwthelp.NewJTI()
	exp := h.now().Add(h.ttl())

	token, err := tokens.SignAccessToken(h.JWTSecret, strconv.FormatUint(uint64(user.ID), 10), jti, exp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	if err := h.Repo.CreateSession(ctx, &models.Session{UserID: user.ID, JTI: jti, ExpiresAt: exp}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &AuthResult{User: user, AccessToken: token, ExpiresAt: exp}, nil
}

// LogOut revokes the session the request was authenticated with.
func (h *AuthService) LogOut(ctx context.Context, r domain.Requester) error {
	if r.SessionID == "" {
		return nil
	}
	return h.Repo.RevokeSession(ctx, r.SessionID)
}

func (h *AuthService) Profile(ctx context.Context, r domain.Requester) (*models.User, error) {
	user, err := h.Repo.GetUserByID(ctx, r.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// ResolveSession turns verified token claims into a Requester. The admin
// bit is read from the store on every call, never from the token.
func (h *AuthService) ResolveSession(ctx context.Context, claims *tokens.AccessClaims) (domain.Requester, error) {
	if claims == nil || claims.ID == "" {
		return domain.Requester{}, fmt.Errorf("token has no session id: %w", ErrUnauthorized)
	}

	session, err := h.Repo.GetActiveSession(ctx, claims.ID, h.now())
	if err != nil {
		if errors.Is(err, repo.ErrSessionNotFound) {
			return domain.Requester{}, fmt.Errorf("session revoked or expired: %w", ErrUnauthorized)
		}
		return domain.Requester{}, err
	}
	if strconv.FormatUint(uint64(session.UserID), 10) != claims.Subject {
		return domain.Requester{}, fmt.Errorf("session subject mismatch: %w", ErrUnauthorized)
	}

	user, err := h.Profile(ctx, domain.Requester{UserID: session.UserID})
	if err != nil {
		return domain.Requester{}, err
	}

	return domain.Requester{UserID: user.ID, IsAdmin: user.IsAdmin, SessionID: session.JTI}, nil
}

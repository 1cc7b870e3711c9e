package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

const minPasswordLength = 8

type SignupInput struct {
	Email            string
	Password         string
	Name             string
	Phone            *string
	BirthDate        *time.Time
	Gender           *string
	EmergencyContact *string
	EmergencyPhone   *string
}

type UserService struct {
	Deps
	Tokens   TokenService
	SetupKey string
}

func NewUserService(d Deps, tokens TokenService, setupKey string) *UserService {
	return &UserService{Deps: d.withDefaults(), Tokens: tokens, SetupKey: setupKey}
}

func (s *UserService) newUser(in SignupInput, role models.Role) (models.User, error) {
	email := models.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || strings.TrimSpace(in.Password) == "" {
		return models.User{}, apperr.Validation("Email and password are required")
	}
	if name == "" {
		return models.User{}, apperr.Validation("Name is required")
	}
	if len(in.Password) < minPasswordLength {
		return models.User{}, apperr.Validation("Password must be at least 8 characters")
	}
	hash, err := s.Tokens.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal("hash password", err)
	}
	now := s.Now()
	return models.User{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             name,
		PasswordHash:     hash,
		Role:             role,
		Phone:            trimmedPtr(in.Phone),
		BirthDate:        in.BirthDate,
		Gender:           trimmedPtr(in.Gender),
		EmergencyContact: trimmedPtr(in.EmergencyContact),
		EmergencyPhone:   trimmedPtr(in.EmergencyPhone),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func insertUser(ctx context.Context, q *store.Queries, user models.User) error {
	if _, err := q.FindUserByEmail(ctx, user.Email); err == nil {
		return apperr.ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := q.InsertUser(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.ErrDuplicateUser
		}
		return err
	}
	return nil
}

// Signup creates a member account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	user, err := s.newUser(in, models.RoleMember)
	if err != nil {
		return models.User{}, err
	}
	if err := insertUser(ctx, s.Store.Queries, user); err != nil {
		return models.User{}, store.Translate(err, "signup")
	}
	s.Log.Info().Str("user_id", user.ID).Msg("member signed up")
	return user, nil
}

// SetupAdmin creates the first admin. It needs the configured setup key and
// fails once any admin exists.
func (s *UserService) SetupAdmin(ctx context.Context, key string, in SignupInput) (models.User, error) {
	if s.SetupKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.SetupKey)) != 1 {
		return models.User{}, apperr.Forbidden("Invalid setup key")
	}
	user, err := s.newUser(in, models.RoleAdmin)
	if err != nil {
		return models.User{}, err
	}
	err = s.Store.InTx(ctx, func(q *store.Queries) error {
		admins, err := q.CountUsersByRole(ctx, models.RoleAdmin)
		if err != nil {
			return err
		}
		if admins > 0 {
			return apperr.New(apperr.KindConflict, apperr.CodeConflict, "Admin already exists")
		}
		return insertUser(ctx, q, user)
	})
	if err != nil {
		return models.User{}, store.Translate(err, "setup admin")
	}
	s.Log.Info().Str("user_id", user.ID).Msg("admin account created")
	return user, nil
}

// Authenticate checks credentials and issues a token pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, TokenPair, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, TokenPair{}, apperr.ErrUnauthorized
	}
	user, err := s.Store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, TokenPair{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return models.User{}, TokenPair{}, store.Translate(err, "authenticate")
	}
	if !s.Tokens.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, TokenPair{}, apperr.ErrUnauthorized
	}
	pair, err := s.Tokens.IssuePair(user)
	if err != nil {
		return models.User{}, TokenPair{}, apperr.Internal("issue tokens", err)
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The role is read again
// from the store.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (models.User, TokenPair, error) {
	userID, err := s.Tokens.SubjectFromRefreshToken(refreshToken)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	user, err := s.Store.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, TokenPair{}, apperr.ErrUnauthorized
	}
	if err != nil {
		return models.User{}, TokenPair{}, store.Translate(err, "refresh")
	}
	pair, err := s.Tokens.IssuePair(user)
	if err != nil {
		return models.User{}, TokenPair{}, apperr.Internal("issue tokens", err)
	}
	return user, pair, nil
}

func (s *UserService) Get(ctx context.Context, caller policy.Caller, id string) (models.User, error) {
	if err := s.Policy.Authorize(caller, policy.ViewProfile); err != nil {
		return models.User{}, err
	}
	if err := s.Policy.ActOnSubject(caller, id); err != nil {
		return models.User{}, err
	}
	user, err := s.Store.FindUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, store.Translate(err, "find user")
	}
	return user, nil
}

const maxUserPageSize = 100

type UserQuery struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

type UserPage struct {
	Items    []models.User
	Total    int
	Page     int
	PageSize int
}

// List pages through the member directory for admins.
func (s *UserService) List(ctx context.Context, caller policy.Caller, query UserQuery) (UserPage, error) {
	if err := s.Policy.Authorize(caller, policy.ListUsers); err != nil {
		return UserPage{}, err
	}
	page := max(query.Page, 1)
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	size = min(size, maxUserPageSize)
	filter := store.UserFilter{Search: query.Search, Limit: size, Offset: (page - 1) * size}
	if raw := strings.TrimSpace(query.Role); raw != "" {
		role := models.Role(raw)
		if role != models.RoleAdmin && role != models.RoleMember {
			return UserPage{}, apperr.Validation("Unknown role: " + raw)
		}
		filter.Role = &role
	}
	items, total, err := s.Store.ListUsers(ctx, filter)
	if err != nil {
		return UserPage{}, store.Translate(err, "list users")
	}
	return UserPage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

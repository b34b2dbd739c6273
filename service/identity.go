package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/apperror"
	"github.com/exceptionzofficial/testing-backend-akshaya/auth"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/models"
	"github.com/exceptionzofficial/testing-backend-akshaya/store"
	"github.com/exceptionzofficial/testing-backend-akshaya/throttle"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type RegisterUserInput struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterRiderInput struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required,len=10,numeric"`
	Email         string `json:"email" validate:"omitempty,email"`
	Password      string `json:"password" validate:"required,min=6"`
	VehicleType   string `json:"vehicleType" validate:"required"`
	VehicleNumber string `json:"vehicleNumber" validate:"required"`
}

type LoginInput struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserPatch lists the account fields an administrator may edit.
type UserPatch struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	IsActive   *bool   `json:"isActive"`
	IsVerified *bool   `json:"isVerified"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string        `json:"token"`
	User  *models.User  `json:"user"`
	Rider *models.Rider `json:"rider,omitempty"`
}

// Registry owns credentials and issues identity tokens.
type Registry struct {
	store     *store.Store
	issuer    *auth.Issuer
	guard     throttle.LoginGuard
	publisher events.Publisher
	log       *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewRegistry(st *store.Store, issuer *auth.Issuer, guard throttle.LoginGuard, publisher events.Publisher, log *zap.Logger) *Registry {
	return &Registry{
		store:     st,
		issuer:    issuer,
		guard:     guard,
		publisher: publisher,
		log:       log.Named("identity"),
		validate:  newValidator(),
		now:       time.Now,
	}
}

func (r *Registry) newUser(name, phone, email, hash string, role models.UserRole, now time.Time) *models.User {
	u := &models.User{
		Phone:        phone,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email != "" {
		u.Email = strPtr(email)
	}
	return u
}

// phoneTaken is the uniqueness pre-check; the conditional insert still
// decides races.
func (r *Registry) phoneTaken(ctx context.Context, phone string) error {
	_, err := r.store.GetUser(ctx, phone)
	switch {
	case err == nil:
		return apperror.Conflict("phone number already registered")
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return storeErr(err, "user")
	}
}

func (r *Registry) RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error) {
	if err := validateInput(r.validate, in); err != nil {
		return nil, err
	}
	if err := r.phoneTaken(ctx, in.Phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := r.newUser(in.Name, in.Phone, in.Email, hash, models.RoleUser, r.now())
	if err := r.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, apperror.Conflict("phone number already registered")
		}
		return nil, storeErr(err, "user")
	}

	token, err := r.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	r.log.Info("user registered", zap.String("phone", user.Phone))
	return &AuthResult{Token: token, User: user}, nil
}

// RegisterRider creates the credential record and the rider profile in one
// transaction, sharing one rider id. A failure in either write leaves
// neither behind.
func (r *Registry) RegisterRider(ctx context.Context, in RegisterRiderInput) (*AuthResult, error) {
	if err := validateInput(r.validate, in); err != nil {
		return nil, err
	}
	if err := r.phoneTaken(ctx, in.Phone); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := r.now()
	riderID := models.NewRiderID()
	user := r.newUser(in.Name, in.Phone, in.Email, hash, models.RoleRider, now)
	user.RiderID = strPtr(riderID)
	rider := newRider(riderID, in.Name, in.Phone, in.VehicleType, in.VehicleNumber, now)

	err = r.store.Transact(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				return apperror.Conflict("phone number already registered")
			}
			return err
		}
		if err := tx.CreateRider(ctx, rider); err != nil {
			if errors.Is(err, store.ErrConditionFailed) {
				return apperror.Conflict("rider %s already exists", riderID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "rider registration")
	}

	token, err := r.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	r.log.Info("rider registered", zap.String("phone", user.Phone), zap.String("rider_id", riderID))
	r.publisher.Publish(ctx, events.Event{
		Type:       events.RiderRegistered,
		RiderID:    riderID,
		Status:     string(rider.Status),
		OccurredAt: now,
	})
	return &AuthResult{Token: token, User: user, Rider: rider}, nil
}

// Login checks credentials and returns a fresh token. Failed attempts count
// against the phone's throttle; the throttle failing open never blocks a
// login on its own.
func (r *Registry) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateInput(r.validate, in); err != nil {
		return nil, err
	}

	if err := r.guard.Check(ctx, in.Phone); err != nil {
		if errors.Is(err, throttle.ErrLocked) {
			r.log.Warn("login locked out", zap.String("phone", in.Phone))
			return nil, apperror.TooManyRequests("too many failed login attempts, try again later")
		}
		r.log.Warn("login throttle unavailable", zap.Error(err))
	}

	user, err := r.store.GetUser(ctx, in.Phone)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "user")
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, in.Password) {
		if ferr := r.guard.RecordFailure(ctx, in.Phone); ferr != nil {
			r.log.Warn("failed to record login failure", zap.Error(ferr))
		}
		return nil, apperror.Unauthorized("invalid phone number or password")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is deactivated")
	}

	if err := r.guard.Reset(ctx, in.Phone); err != nil {
		r.log.Warn("failed to reset login failures", zap.Error(err))
	}

	now := r.now()
	if err := r.store.UpdateUser(ctx, user.Phone, map[string]any{"last_login": now}); err != nil {
		return nil, storeErr(err, "user")
	}
	user.LastLogin = &now

	token, err := r.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	result := &AuthResult{Token: token, User: user}
	if user.RiderID != nil {
		rider, err := r.store.GetRider(ctx, *user.RiderID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "rider")
		}
		result.Rider = rider
	}
	r.log.Info("user logged in", zap.String("phone", user.Phone), zap.String("role", string(user.Role)))
	return result, nil
}

func (r *Registry) Profile(ctx context.Context, phone string) (*models.User, error) {
	user, err := r.store.GetUser(ctx, phone)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

func (r *Registry) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	filter := store.UserFilter{}
	switch models.UserRole(role) {
	case "":
	case models.RoleUser, models.RoleRider:
		filter.Role = models.UserRole(role)
	default:
		return nil, apperror.Validation("invalid role %q, must be one of: user, rider", role)
	}
	users, err := r.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "users")
	}
	return users, nil
}

func (r *Registry) UpdateUser(ctx context.Context, phone string, patch UserPatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		updates["name"] = *patch.Name
	}
	if patch.Email != nil {
		if *patch.Email != "" {
			if err := r.validate.Var(*patch.Email, "email"); err != nil {
				return nil, apperror.Validation("email must be a valid email address")
			}
		}
		updates["email"] = *patch.Email
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.IsVerified != nil {
		updates["is_verified"] = *patch.IsVerified
	}
	if len(updates) == 0 {
		return nil, apperror.Validation("no updatable fields supplied")
	}
	updates["updated_at"] = r.now()

	if err := r.store.UpdateUser(ctx, phone, updates); err != nil {
		return nil, storeErr(err, "user")
	}
	return r.Profile(ctx, phone)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noticeboard/backend/internal/models"
	"github.com/noticeboard/backend/pkg/utils"
	"gorm.io/gorm"
)

// ErrEmailTaken is returned when registering an email that already has an
// organization behind it.
var ErrEmailTaken = errors.New("email already registered")

const minPasswordLength = 8

type Credentials struct {
	Email    string
	Password string
}

// IdentityProvider turns credentials into the acting organization. Any
// failure to do so is ErrAuth.
type IdentityProvider interface {
	Authenticate(ctx context.Context, creds Credentials) (*models.Organization, error)
}

// PasswordIdentity is the bundled provider: one email and bcrypt password per
// organization.
type PasswordIdentity struct {
	DB      *gorm.DB
	Timeout time.Duration
}

var _ IdentityProvider = (*PasswordIdentity)(nil)

func NewPasswordIdentity(db *gorm.DB, timeout time.Duration) *PasswordIdentity {
	return &PasswordIdentity{DB: db, Timeout: timeout}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", invalid("email", "is not a valid address")
	}
	return email, nil
}

func (p *PasswordIdentity) Register(ctx context.Context, name string, creds Credentials) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if len(name) > maxGroupNameLength {
		return nil, invalid("name", "is too long")
	}
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, err
	}
	if len(creds.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := utils.HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	org := models.Organization{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := p.DB.WithContext(ctx).Create(&org).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, storeError(ctx, "org_register", err)
	}
	return &org, nil
}

func (p *PasswordIdentity) Authenticate(ctx context.Context, creds Credentials) (*models.Organization, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return nil, ErrAuth
	}

	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	var org models.Organization
	if err := p.DB.WithContext(ctx).Where("email = ?", email).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuth
		}
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("authenticate: %w", ErrTimeout)
		}
		return nil, storeError(ctx, "org_authenticate", err)
	}

	if !utils.CheckPassword(creds.Password, org.PasswordHash) {
		return nil, ErrAuth
	}
	return &org, nil
}

// Organization loads the principal a session token names.
func (p *PasswordIdentity) Organization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	var org models.Organization
	if err := p.DB.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuth
		}
		return nil, storeError(ctx, "org_lookup", err)
	}
	return &org, nil
}

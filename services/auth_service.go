package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FullName    string  `json:"fullName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	PhoneNumber *string `json:"phoneNumber"`
}

type UserSummary struct {
	ID          uint        `json:"id"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	PhoneNumber *string     `json:"phoneNumber,omitempty"`
}

func NewUserSummary(u *models.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Role:        u.Role,
		PhoneNumber: u.PhoneNumber,
	}
}

type AuthResult struct {
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type AuthService struct {
	db       *gorm.DB
	tokens   *utils.TokenIssuer
	verifier IdentityVerifier
}

// verifier may be nil, in which case external login reports an upstream error.
func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, verifier IdentityVerifier) *AuthService {
	return &AuthService{db: db, tokens: tokens, verifier: verifier}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserSummary, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, validationError("email and password are required")
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}
	if role == models.RoleAdmin {
		return nil, forbiddenError("admin accounts cannot be self-registered")
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = email
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newError(ErrConflict, "email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		PhoneNumber:  trimmedOrNil(in.PhoneNumber),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if role == models.RoleCleaner {
			profile := models.NewDefaultCleanerProfile(user.ID)
			return tx.Create(&profile).Error
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, newError(ErrConflict, "email already registered")
	}
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	summary := NewUserSummary(&user)
	return &summary, nil
}

// Authenticate verifies a password login. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CheckPassword(password, "")
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	if user.Role == models.RoleCleaner {
		if err := ensureCleanerProfile(ctx, s.db, user.ID); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// LoginWithExternalIdentity signs in with a provider id token, creating a
// Customer account without a local password on first use.
func (s *AuthService) LoginWithExternalIdentity(ctx context.Context, idToken string) (*AuthResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, validationError("idToken is required")
	}
	if s.verifier == nil {
		return nil, newError(ErrUpstream, "external login is not configured")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, wrapError(ErrInvalidToken, err, "invalid identity token")
	}

	email := normalizeEmail(identity.Email)
	if email == "" {
		return nil, newError(ErrInvalidToken, "identity token has no email")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			FullName: identity.displayName(),
			Email:    email,
			Role:     models.RoleCustomer,
		}
		err = db.Create(&user).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent first login
			err = db.Where("email = ?", email).First(&user).Error
		}
		if err != nil {
			return nil, err
		}
		utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID}).Info("provisioned external account")
	case err != nil:
		return nil, err
	}

	if user.Role == models.RoleCleaner {
		if err := ensureCleanerProfile(ctx, s.db, user.ID); err != nil {
			return nil, err
		}
	}
	return s.issue(&user)
}

// ResolvePrincipal trusts nothing but the verified token claims.
func (s *AuthService) ResolvePrincipal(token string) (Principal, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return Principal{}, newError(ErrUnauthenticated, "invalid or expired token")
	}
	id, err := claims.UserID()
	if err != nil {
		return Principal{}, newError(ErrUnauthenticated, "invalid or expired token")
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return Principal{}, newError(ErrUnauthenticated, "invalid or expired token")
	}
	return Principal{UserID: id, Role: role, Email: claims.Email, Name: claims.Name}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, p Principal) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, p.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Role.String(), user.Email, user.FullName)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      NewUserSummary(user),
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.TTL()),
	}, nil
}

// ensureCleanerProfile backfills the default profile for cleaners that
// predate automatic provisioning.
func ensureCleanerProfile(ctx context.Context, db *gorm.DB, userID uint) error {
	defaults := models.NewDefaultCleanerProfile(userID)
	var profile models.CleanerProfile
	err := db.WithContext(ctx).
		Where(models.CleanerProfile{UserID: userID}).
		Attrs(defaults).
		FirstOrCreate(&profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

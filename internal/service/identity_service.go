package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hunter/internal/domain"
	"hunter/internal/email"
	"hunter/internal/repository"
)

// IdentityService owns the account lifecycle: sign-up with emailed
// confirmation codes, credential checks, username updates and the
// forgot/reset password flow.
type IdentityService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	emailSender email.Sender
	limiter     AuthRateLimiter
}

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserNotConfirmed      = errors.New("user not confirmed")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPasswordResetRequired = errors.New("password reset required")
	ErrAccountExists         = errors.New("account already exists")
	ErrInvalidPassword       = errors.New("invalid password format")
	ErrCodeDeliveryFailure   = errors.New("code delivery failed")
	ErrAlreadyConfirmed      = errors.New("already confirmed")
	ErrCodeExpired           = errors.New("code expired")
	ErrCodeMismatch          = errors.New("code mismatch")
	ErrCodeNotRequested      = errors.New("code not requested")
	ErrRateLimited           = errors.New("rate limited")
	ErrInvalidEmail          = errors.New("invalid email")
)

const codeTTL = 15 * time.Minute

func NewIdentityService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, limiter AuthRateLimiter) *IdentityService {
	if limiter == nil {
		limiter = NewAuthRateLimiter(codeTTL, 5)
	}
	return &IdentityService{
		logger:      logger,
		users:       users,
		emailSender: emailSender,
		limiter:     limiter,
	}
}

type SignUpInput struct {
	Email    string
	Password string
	Username string
}

// SignUp creates an unconfirmed account and emails a confirmation code.
// No session is established; the caller signs in after confirming.
func (s *IdentityService) SignUp(ctx context.Context, input SignUpInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidPassword(input.Password) {
		return domain.User{}, ErrInvalidPassword
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrAccountExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	code, codeHash, expiresAt, err := generateCode()
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:            uuid.NewString(),
		Email:         emailAddr,
		Username:      strings.TrimSpace(input.Username),
		PasswordHash:  string(hashBytes),
		Confirmed:     false,
		ConfirmHash:   codeHash,
		ConfirmExpiry: &expiresAt,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	if s.emailSender == nil {
		return domain.User{}, ErrCodeDeliveryFailure
	}
	if err := s.emailSender.SendConfirmationCode(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send confirmation code failed", zap.Error(err), zap.String("email", emailAddr))
		return domain.User{}, ErrCodeDeliveryFailure
	}

	return user, nil
}

// ConfirmSignUp verifies the emailed code and marks the account confirmed.
func (s *IdentityService) ConfirmSignUp(ctx context.Context, emailAddr, code string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !isValidCode(code) {
		return ErrCodeMismatch
	}

	user, err := s.getByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return nil
	}
	if user.ConfirmHash == "" || user.ConfirmExpiry == nil {
		return ErrCodeNotRequested
	}
	if time.Now().UTC().After(*user.ConfirmExpiry) {
		return ErrCodeExpired
	}
	if !verifyCode(code, user.ConfirmHash) {
		return ErrCodeMismatch
	}

	return s.users.Confirm(ctx, user.ID)
}

// ResendConfirmation issues a fresh confirmation code for an unconfirmed
// account. This is the recovery path when the sign-up email never arrived:
// the account row already exists, so signing up again would only report
// ErrAccountExists.
func (s *IdentityService) ResendConfirmation(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	if s.limiter != nil && !s.limiter.Allow("resend:"+emailAddr) {
		return ErrRateLimited
	}

	user, err := s.getByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}

	code, codeHash, expiresAt, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.users.UpdateConfirmCode(ctx, user.ID, codeHash, expiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrCodeDeliveryFailure
	}
	if err := s.emailSender.SendConfirmationCode(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send confirmation code failed", zap.Error(err), zap.String("email", emailAddr))
		return ErrCodeDeliveryFailure
	}
	return nil
}

// Authenticate resolves email+password into a user, or one of the typed
// failures a sign-in handler maps to its response contract.
func (s *IdentityService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if s.limiter != nil && !s.limiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.getByEmail(ctx, emailAddr)
	if err != nil {
		return domain.User{}, err
	}
	if !user.Confirmed {
		return domain.User{}, ErrUserNotConfirmed
	}
	if user.ResetHash != "" && user.ResetExpiry != nil && time.Now().UTC().Before(*user.ResetExpiry) {
		return domain.User{}, ErrPasswordResetRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateUsername sets the preferred username attribute.
func (s *IdentityService) UpdateUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.Confirmed {
		return ErrUserNotConfirmed
	}
	return s.users.UpdateUsername(ctx, userID, username)
}

// ForgotPassword generates a reset code and emails it.
func (s *IdentityService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	if s.limiter != nil && !s.limiter.Allow("reset:"+emailAddr) {
		return ErrRateLimited
	}

	user, err := s.getByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	code, codeHash, expiresAt, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.users.UpdateResetCode(ctx, user.ID, codeHash, expiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrCodeDeliveryFailure
	}
	if err := s.emailSender.SendPasswordResetCode(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send reset code failed", zap.Error(err), zap.String("email", emailAddr))
		return ErrCodeDeliveryFailure
	}
	return nil
}

// ResetPassword verifies the reset code and installs the new password.
func (s *IdentityService) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !isValidCode(code) {
		return ErrCodeMismatch
	}
	if !isValidPassword(newPassword) {
		return ErrInvalidPassword
	}

	user, err := s.getByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user.ResetHash == "" || user.ResetExpiry == nil {
		return ErrCodeNotRequested
	}
	if time.Now().UTC().After(*user.ResetExpiry) {
		return ErrCodeExpired
	}
	if !verifyCode(code, user.ResetHash) {
		return ErrCodeMismatch
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hashBytes))
}

func (s *IdentityService) getByEmail(ctx context.Context, emailAddr string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// generateCode produces a 6-digit code plus its salted hash and expiry.
func generateCode() (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(codeTTL)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyCode(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	saltStr := parts[0]
	expectedHash := parts[1]
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isValidPassword enforces the provider-equivalent policy: at least 8
// characters with upper, lower, digit and symbol.
func isValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

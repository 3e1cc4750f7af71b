package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hunter/internal/domain"
)

type stubUserRepo struct {
	byID    map[string]domain.User
	byEmail map[string]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.byID[id], nil
}

func (r *stubUserRepo) Confirm(_ context.Context, id string) error {
	user := r.byID[id]
	user.Confirmed = true
	user.ConfirmHash = ""
	user.ConfirmExpiry = nil
	r.byID[id] = user
	return nil
}

func (r *stubUserRepo) UpdateUsername(_ context.Context, id, username string) error {
	user := r.byID[id]
	user.Username = username
	r.byID[id] = user
	return nil
}

func (r *stubUserRepo) UpdateConfirmCode(_ context.Context, id, hash string, expiry time.Time) error {
	user := r.byID[id]
	user.ConfirmHash = hash
	user.ConfirmExpiry = &expiry
	r.byID[id] = user
	return nil
}

func (r *stubUserRepo) UpdateResetCode(_ context.Context, id, hash string, expiry time.Time) error {
	user := r.byID[id]
	user.ResetHash = hash
	user.ResetExpiry = &expiry
	r.byID[id] = user
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user := r.byID[id]
	user.PasswordHash = passwordHash
	user.ResetHash = ""
	user.ResetExpiry = nil
	r.byID[id] = user
	return nil
}

type stubEmailSender struct {
	confirmCode string
	resetCode   string
	confirmErr  error
}

func (s *stubEmailSender) SendConfirmationCode(_ context.Context, _ string, code string, _ time.Time) error {
	s.confirmCode = code
	return s.confirmErr
}

func (s *stubEmailSender) SendPasswordResetCode(_ context.Context, _ string, code string, _ time.Time) error {
	s.resetCode = code
	return nil
}

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func newIdentityService(repo *stubUserRepo, sender *stubEmailSender, limiter AuthRateLimiter) *IdentityService {
	if limiter == nil {
		limiter = allowAllLimiter{}
	}
	return NewIdentityService(zap.NewNop(), repo, sender, limiter)
}

func signUpConfirmed(t *testing.T, svc *IdentityService, sender *stubEmailSender, emailAddr, password string) domain.User {
	t.Helper()
	ctx := context.Background()
	user, err := svc.SignUp(ctx, SignUpInput{Email: emailAddr, Password: password})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.ConfirmSignUp(ctx, emailAddr, sender.confirmCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return user
}

func TestIdentitySignUp_CreatesUnconfirmedUser(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)

	user, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "User@Example.com ",
		Password: "Str0ng!pass",
		Username: "hunter1",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.Confirmed {
		t.Fatal("new accounts start unconfirmed")
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if len(sender.confirmCode) != 6 {
		t.Fatalf("expected 6-digit code, got %q", sender.confirmCode)
	}
	if user.PasswordHash == "Str0ng!pass" || user.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
}

func TestIdentitySignUp_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestIdentitySignUp_PasswordPolicy(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubEmailSender{}, nil)

	for _, password := range []string{"short1!", "alllowercase1!", "ALLUPPERCASE1!", "NoDigits!!", "NoSymbols11A"} {
		if _, err := svc.SignUp(context.Background(), SignUpInput{Email: "user@example.com", Password: password}); !errors.Is(err, ErrInvalidPassword) {
			t.Fatalf("password %q: expected ErrInvalidPassword, got %v", password, err)
		}
	}
}

func TestIdentitySignUp_DeliveryFailure(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{confirmErr: errors.New("smtp down")}
	svc := newIdentityService(repo, sender, nil)

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"})
	if !errors.Is(err, ErrCodeDeliveryFailure) {
		t.Fatalf("expected ErrCodeDeliveryFailure, got %v", err)
	}
}

func TestIdentityResendConfirmation_RecoversFromDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	sender := &stubEmailSender{confirmErr: errors.New("smtp down")}
	svc := newIdentityService(repo, sender, nil)

	// The first email bounces; the unconfirmed row still exists.
	_, err := svc.SignUp(ctx, SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"})
	if !errors.Is(err, ErrCodeDeliveryFailure) {
		t.Fatalf("expected ErrCodeDeliveryFailure, got %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"}); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists on retry, got %v", err)
	}

	sender.confirmErr = nil
	if err := svc.ResendConfirmation(ctx, "user@example.com"); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if sender.confirmCode == "" {
		t.Fatal("expected a fresh confirmation code")
	}
	if err := svc.ConfirmSignUp(ctx, "user@example.com", sender.confirmCode); err != nil {
		t.Fatalf("confirm with resent code: %v", err)
	}
}

func TestIdentityResendConfirmation_AlreadyConfirmed(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	if err := svc.ResendConfirmation(context.Background(), "user@example.com"); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestIdentityResendConfirmation_UnknownEmail(t *testing.T) {
	svc := newIdentityService(newStubUserRepo(), &stubEmailSender{}, nil)

	if err := svc.ResendConfirmation(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityConfirm_WrongCode(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	if _, err := svc.SignUp(context.Background(), SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	wrong := "000000"
	if wrong == sender.confirmCode {
		wrong = "000001"
	}
	if err := svc.ConfirmSignUp(context.Background(), "user@example.com", wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
}

func TestIdentityConfirm_ExpiredCode(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	user, err := svc.SignUp(context.Background(), SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	past := time.Now().UTC().Add(-time.Minute)
	stored := repo.byID[user.ID]
	if err := repo.UpdateConfirmCode(context.Background(), stored.ID, stored.ConfirmHash, past); err != nil {
		t.Fatalf("age code: %v", err)
	}

	if err := svc.ConfirmSignUp(context.Background(), "user@example.com", sender.confirmCode); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestIdentityAuthenticate_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)

	if _, err := svc.Authenticate(ctx, "missing@example.com", "Str0ng!pass"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.SignUp(ctx, SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "user@example.com", "Str0ng!pass"); !errors.Is(err, ErrUserNotConfirmed) {
		t.Fatalf("expected ErrUserNotConfirmed, got %v", err)
	}

	if err := svc.ConfirmSignUp(ctx, "user@example.com", sender.confirmCode); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	user, err := svc.Authenticate(ctx, "user@example.com", "Str0ng!pass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.Authenticate(ctx, "user@example.com", "Wr0ng!pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestIdentityAuthenticate_RateLimited(t *testing.T) {
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubEmailSender{}, denyAllLimiter{})

	if _, err := svc.Authenticate(context.Background(), "user@example.com", "Str0ng!pass"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestIdentityAuthenticate_PendingResetBlocks(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	if err := svc.ForgotPassword(ctx, "user@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "user@example.com", "Str0ng!pass"); !errors.Is(err, ErrPasswordResetRequired) {
		t.Fatalf("expected ErrPasswordResetRequired, got %v", err)
	}

	if err := svc.ResetPassword(ctx, "user@example.com", sender.resetCode, "N3w!passwd"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "user@example.com", "N3w!passwd"); err != nil {
		t.Fatalf("authenticate after reset: %v", err)
	}
}

func TestIdentityUpdateUsername(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	user := signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	if err := svc.UpdateUsername(ctx, user.ID, "newname"); err != nil {
		t.Fatalf("update username: %v", err)
	}
	if repo.byID[user.ID].Username != "newname" {
		t.Fatalf("username = %q", repo.byID[user.ID].Username)
	}

	if err := svc.UpdateUsername(ctx, "no-such-user", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityUpdateUsername_Unconfirmed(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	svc := newIdentityService(repo, &stubEmailSender{}, nil)

	user, err := svc.SignUp(ctx, SignUpInput{Email: "user@example.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := svc.UpdateUsername(ctx, user.ID, "newname"); !errors.Is(err, ErrUserNotConfirmed) {
		t.Fatalf("expected ErrUserNotConfirmed, got %v", err)
	}
}

func TestIdentityResetPassword_WrongCode(t *testing.T) {
	ctx := context.Background()
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	if err := svc.ForgotPassword(ctx, "user@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	wrong := "000000"
	if wrong == sender.resetCode {
		wrong = "000001"
	}
	if err := svc.ResetPassword(ctx, "user@example.com", wrong, "N3w!passwd"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got %v", err)
	}
}

func TestIdentityResetPassword_NotRequested(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newIdentityService(repo, sender, nil)
	signUpConfirmed(t, svc, sender, "user@example.com", "Str0ng!pass")

	if err := svc.ResetPassword(context.Background(), "user@example.com", "123456", "N3w!passwd"); !errors.Is(err, ErrCodeNotRequested) {
		t.Fatalf("expected ErrCodeNotRequested, got %v", err)
	}
}

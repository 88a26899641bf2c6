package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"accounts-be/internal/apierror"
	"accounts-be/internal/mailer"
	"accounts-be/internal/repository"
)

// otpBytes random bytes give a 6 hex character code.
const otpBytes = 3

// RecoveryService handles the password reset flow:
// ForgotPassword issues a code, VerifyOTP consumes it, ResetPassword sets a
// new password. ResetPassword does not require a prior VerifyOTP.
type RecoveryService interface {
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, password string) error
}

type recoveryService struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	otpTTL   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewRecoveryService(userRepo repository.UserRepository, m mailer.Mailer, otpTTL time.Duration, logger *slog.Logger) RecoveryService {
	return &recoveryService{
		userRepo: userRepo,
		mailer:   m,
		otpTTL:   otpTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// ForgotPassword stores a fresh code and emails it. When delivery fails the
// code stays stored; the caller may simply request another.
func (s *recoveryService) ForgotPassword(ctx context.Context, email string) error {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return apierror.BadRequest("Email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound("User not found")
	}
	if err != nil {
		return apierror.Internal("", err)
	}

	code, err := generateOTP()
	if err != nil {
		return apierror.Internal("", err)
	}
	user.SetOTP(code, s.now().Add(s.otpTTL))

	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return apierror.Internal("", err)
	}

	body := fmt.Sprintf("Your OTP for password reset is %s. It is valid for %d minutes.", code, int(s.otpTTL.Minutes()))
	if err := s.mailer.Send(ctx, user.Email, "Password Reset OTP", body); err != nil {
		return apierror.Internal("Failed to send OTP email", err)
	}

	s.logger.InfoContext(ctx, "password reset code issued", "user_id", user.ID)
	return nil
}

// VerifyOTP checks the code and clears it on success, so each code works once.
func (s *recoveryService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = repository.NormalizeEmail(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return apierror.BadRequest("Email and OTP are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.BadRequest("Invalid OTP")
	}
	if err != nil {
		return apierror.Internal("", err)
	}

	if user.OTP == nil || user.OTPExpiresAt == nil {
		return apierror.BadRequest("Invalid OTP")
	}
	// An expired code is reported as expired whether or not it matches.
	if s.now().After(*user.OTPExpiresAt) {
		return apierror.BadRequest("OTP has expired")
	}
	if subtle.ConstantTimeCompare([]byte(*user.OTP), []byte(otp)) != 1 {
		return apierror.BadRequest("Invalid OTP")
	}

	user.ClearOTP()
	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return apierror.Internal("", err)
	}

	s.logger.InfoContext(ctx, "password reset code verified", "user_id", user.ID)
	return nil
}

// ResetPassword applies the password policy, then overwrites the password and
// drops any pending code.
func (s *recoveryService) ResetPassword(ctx context.Context, email, password string) error {
	if violations := ValidatePassword(password); len(violations) > 0 {
		return apierror.BadRequest("Password does not meet requirements", violations...)
	}

	email = repository.NormalizeEmail(email)
	if email == "" {
		return apierror.BadRequest("Email is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apierror.NotFound("User not found")
	}
	if err != nil {
		return apierror.Internal("", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.ClearOTP()

	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return apierror.Internal("", err)
	}

	s.logger.InfoContext(ctx, "password reset", "user_id", user.ID)
	return nil
}

func generateOTP() (string, error) {
	b := make([]byte, otpBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return hex.EncodeToString(b), nil
}

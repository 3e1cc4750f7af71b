package email

import (
	"context"
	"errors"
	"time"
)

// Sender delivers the one-time codes the identity service emails out.
type Sender interface {
	SendConfirmationCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
	SendPasswordResetCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendConfirmationCode(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) SendPasswordResetCode(_ context.Context, _ string, _ string, _ time.Time) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

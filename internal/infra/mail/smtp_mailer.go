// Package mail delivers transactional email over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatty/config"
	deliverycontext "chatty/internal/delivery/context"
	"chatty/internal/domain/service"
	"chatty/internal/errors"
	"chatty/internal/util"

	"go.uber.org/fx"
	"gopkg.in/gomail.v2"
)

const (
	passwordResetSubject = "OTP for Password Reset"
	defaultFromName      = "Chatty"
	defaultOTPTTL        = 10 * time.Minute
)

// dialFunc opens an SMTP session; replaced in tests.
type dialFunc func() (gomail.SendCloser, error)

type smtpMailer struct {
	from     string
	fromName string
	otpTTL   string
	dial     dialFunc
	logger   *slog.Logger
}

// Params holds dependencies for the mailer, injected by Fx.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewMailer returns an SMTP mailer, or a logging mailer when no SMTP host is configured.
func NewMailer(params Params) (service.Mailer, error) {
	cfg := params.Config.Mail
	logger := params.Logger

	if cfg == nil || cfg.Host == "" {
		logger.Warn("SMTP not configured, password reset codes are only logged")

		return &logMailer{logger: logger}, nil
	}
	if cfg.From == "" {
		return nil, errors.New("mail.from is required when mail.host is set")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	fromName := cfg.FromName
	if fromName == "" {
		fromName = defaultFromName
	}

	return &smtpMailer{
		from:     cfg.From,
		fromName: fromName,
		otpTTL:   otpValidity(params.Config.Auth),
		dial:     dialer.Dial,
		logger:   logger,
	}, nil
}

// SendPasswordResetOTP mails the reset code. Each call opens its own SMTP session.
func (m *smtpMailer) SendPasswordResetOTP(ctx context.Context, to, code string) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger)

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "password reset mail cancelled")
	}

	msg := m.passwordResetMessage(to, code)

	sender, err := m.dial()
	if err != nil {
		logger.Error("Failed to connect to SMTP server", slog.Any("error", err))

		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer sender.Close()

	if err := gomail.Send(sender, msg); err != nil {
		logger.Error("Failed to send password reset mail", slog.Any("error", err))

		return errors.Wrap(err, "failed to send password reset mail")
	}

	logger.Info("Password reset mail sent")

	return nil
}

func (m *smtpMailer) passwordResetMessage(to, code string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", passwordResetSubject)
	msg.SetBody("text/plain", passwordResetBody(code, m.otpTTL))

	return msg
}

func passwordResetBody(code, ttl string) string {
	return fmt.Sprintf("Your OTP is %s. It is valid for %s.", code, ttl)
}

func otpValidity(cfg *config.AuthConfig) string {
	ttl := defaultOTPTTL
	if cfg != nil && cfg.OTPTTL > 0 {
		ttl = cfg.OTPTTL
	}

	return util.FormatMinutes(ttl)
}

// logMailer stands in for SMTP in local development.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendPasswordResetOTP(ctx context.Context, to, code string) error {
	deliverycontext.GetLoggerOrDefault(ctx, m.logger).Info("[NoopMailer] Password reset code",
		slog.String("to", to),
		slog.String("code", code),
	)

	return nil
}

// Module provides the mail FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewMailer),
)

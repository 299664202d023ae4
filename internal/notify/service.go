// Package notify formats Product batches into delivery-ready messages and
// sends them to the configured channels with bounded retries.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"dealwatch/internal/common/config"
	"dealwatch/internal/common/logger"
	"dealwatch/internal/common/metrics"
	"dealwatch/internal/common/retry"
	"dealwatch/internal/domain"
	"dealwatch/internal/telegram"
)

// MessageSender is the Telegram surface the service depends on.
type MessageSender interface {
	SendMessage(ctx context.Context, msg telegram.SendMessageRequest) error
	GetMe(ctx context.Context) (*telegram.BotInfo, error)
}

// EmailSender and SMSSender are the secondary channel surfaces.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Service delivers deal alerts. Secondary channels (email digest, SMS) are
// best-effort: their failures are logged and never change the Telegram
// outcome.
type Service struct {
	telegram MessageSender
	email    EmailSender
	sms      SMSSender

	retrier   *retry.Retrier
	retryOpts retry.Options

	maxDeals int
	notifCfg config.NotificationConfig
	logger   logger.Logger
	now      func() time.Time
}

type ServiceOptions struct {
	Telegram MessageSender
	Email    EmailSender
	SMS      SMSSender
	Retrier  *retry.Retrier
	// RetryOpts nil means defaults; a non-nil value is taken as-is, so an
	// operator can configure zero retries.
	RetryOpts *retry.Options
	MaxDeals  int
	Config    config.NotificationConfig
	Logger    logger.Logger
	Now       func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	if opts.MaxDeals <= 0 {
		opts.MaxDeals = 5
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Retrier == nil {
		opts.Retrier = retry.New(opts.Logger)
	}
	retryOpts := retry.DefaultOptions()
	if opts.RetryOpts != nil {
		retryOpts = *opts.RetryOpts
	}
	return &Service{
		telegram:  opts.Telegram,
		email:     opts.Email,
		sms:       opts.SMS,
		retrier:   opts.Retrier,
		retryOpts: retryOpts,
		maxDeals:  opts.MaxDeals,
		notifCfg:  opts.Config,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// SendMessage delivers one message through the retry loop.
func (s *Service) SendMessage(ctx context.Context, msg telegram.SendMessageRequest) error {
	err := s.retrier.Do(ctx, "telegram send", s.retryOpts, func(ctx context.Context) error {
		return s.telegram.SendMessage(ctx, msg)
	})
	if err != nil {
		metrics.NotificationsSentTotal.WithLabelValues("telegram", "failure").Inc()
		return err
	}
	metrics.NotificationsSentTotal.WithLabelValues("telegram", "success").Inc()
	return nil
}

// SendDealAlerts sorts products by descending discount, takes the top N and
// delivers them as a single message, respecting provider rate limits.
func (s *Service) SendDealAlerts(ctx context.Context, products []domain.Product, chatID string) error {
	if len(products) == 0 {
		return nil
	}

	top := topByDiscount(products, s.maxDeals)
	message := FormatDealAlert(top, s.now())

	s.logger.Info("sending deal alert", map[string]interface{}{
		"chatId":     chatID,
		"deals":      len(top),
		"candidates": len(products),
	})

	if err := s.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:                chatID,
		Text:                  message,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}); err != nil {
		return err
	}

	s.sendSecondaryChannels(ctx, top)
	return nil
}

// sendSecondaryChannels fans the digest out to email and SMS when enabled.
func (s *Service) sendSecondaryChannels(ctx context.Context, deals []domain.Product) {
	if s.notifCfg.Email.Enabled && s.email != nil {
		if err := s.sendEmailDigest(ctx, deals); err != nil {
			metrics.NotificationsSentTotal.WithLabelValues("email", "failure").Inc()
			s.logger.Error("email digest failed", map[string]interface{}{"error": err.Error()})
		} else {
			metrics.NotificationsSentTotal.WithLabelValues("email", "success").Inc()
		}
	}

	if s.notifCfg.SMS.Enabled && s.sms != nil {
		if err := s.sendSMSAlert(ctx, deals); err != nil {
			metrics.NotificationsSentTotal.WithLabelValues("sms", "failure").Inc()
			s.logger.Error("SMS alert failed", map[string]interface{}{"error": err.Error()})
		} else {
			metrics.NotificationsSentTotal.WithLabelValues("sms", "success").Inc()
		}
	}
}

func (s *Service) sendEmailDigest(ctx context.Context, deals []domain.Product) error {
	subject := fmt.Sprintf("%d supplement deals found", len(deals))
	body := FormatDealAlert(deals, s.now())

	_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.notifCfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{s.notifCfg.Email.ToEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Html: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

// sendSMSAlert texts only the single best deal at or above the SMS discount
// floor; SMS is too noisy for the full digest.
func (s *Service) sendSMSAlert(ctx context.Context, deals []domain.Product) error {
	best := deals[0]
	if best.DiscountPercentage < s.notifCfg.SMS.MinDiscount {
		return nil
	}

	text := fmt.Sprintf("Deal: %s at ₹%.0f (%.0f%% off) %s",
		best.Name, best.CurrentPrice, best.DiscountPercentage, best.URL)

	_, err := s.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(s.notifCfg.SMS.PhoneNumber),
		Message:     aws.String(text),
	})
	return err
}

// ConnectionStatus reports the outcome of a connectivity self-test.
type ConnectionStatus struct {
	BotUsername     string `json:"botUsername,omitempty"`
	IdentityOK      bool   `json:"identityOk"`
	CanaryDelivered bool   `json:"canaryDelivered"`
	Error           string `json:"error,omitempty"`
}

// TestConnection calls the identity endpoint and sends a canary message.
// It reports success or failure without returning an error to the caller.
func (s *Service) TestConnection(ctx context.Context, chatID string) ConnectionStatus {
	status := ConnectionStatus{}

	info, err := s.telegram.GetMe(ctx)
	if err != nil {
		status.Error = err.Error()
		s.logger.Warn("telegram identity check failed", map[string]interface{}{"error": err.Error()})
		return status
	}
	status.IdentityOK = true
	status.BotUsername = info.Username

	err = s.telegram.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID: chatID,
		Text:   "dealwatch connectivity check",
	})
	if err != nil {
		status.Error = err.Error()
		s.logger.Warn("telegram canary message failed", map[string]interface{}{"error": err.Error()})
		return status
	}
	status.CanaryDelivered = true

	return status
}

// topByDiscount returns up to n products sorted by descending discount.
// Ties break on product id so output is stable for identical input.
func topByDiscount(products []domain.Product, n int) []domain.Product {
	sorted := make([]domain.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DiscountPercentage != sorted[j].DiscountPercentage {
			return sorted[i].DiscountPercentage > sorted[j].DiscountPercentage
		}
		return strings.Compare(sorted[i].ID, sorted[j].ID) < 0
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// internal/common/aws/ses.go

// Package aws wraps the AWS SDK v2 clients behind the two operations the
// notification service actually uses: SES for the deal digest email and SNS
// for the single-best-deal SMS. Construction resolves credentials from the
// default chain with a bounded timeout so a misconfigured host fails at
// startup instead of stalling the first alert run.
package aws

import (
	"context"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// credentialLoadTimeout bounds default-chain resolution; IMDS lookups can
// hang for minutes on non-EC2 hosts.
const credentialLoadTimeout = 10 * time.Second

// loadRegionConfig resolves the default credential chain pinned to the
// configured region.
func loadRegionConfig(ctx context.Context, region string) (awssdk.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, credentialLoadTimeout)
	defer cancel()
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

// SESClient sends the deal digest email. It exposes only SendEmail so the
// notify package can swap in a test double.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := loadRegionConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendEmail delivers one digest message. Retry and error classification
// belong to the notify service, not this wrapper.
func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input)
}

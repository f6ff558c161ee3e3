package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/pkg/logger"
)

// SESSender delivers email notifications via AWS SES using the SDK v2.
type SESSender struct {
	region    string
	fromName  string
	fromEmail string
	client    *sesv2.Client
}

// NewSESSender creates an SES sender. fromName and fromEmail are the default
// identity for one-off notices that carry no sender of their own.
func NewSESSender(accessKey, secretKey, region, fromName, fromEmail string) *SESSender {
	if region == "" {
		region = "af-south-1"
	}

	sender := &SESSender{
		region:    region,
		fromName:  fromName,
		fromEmail: fromEmail,
	}

	if accessKey != "" && secretKey != "" {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		)
		if err != nil {
			log.Printf("[SES] Warning: failed to initialize AWS config: %v", err)
		} else {
			sender.client = sesv2.NewFromConfig(cfg)
		}
	}

	return sender
}

// Ping verifies the SES account is reachable with the configured credentials.
func (s *SESSender) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("SES client not initialized - check credentials")
	}
	_, err := s.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	return err
}

// Send delivers a single notification through AWS SES.
func (s *SESSender) Send(ctx context.Context, d *Delivery) (*SendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("SES client not initialized - check credentials")
	}

	fromName := d.SenderName
	fromEmail := d.SenderEmail
	if fromEmail == "" {
		fromName = s.fromName
		fromEmail = s.fromEmail
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", fromName, fromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{d.Recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(d.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(d.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if d.MessageID != "" {
		input.EmailTags = append(input.EmailTags,
			types.MessageTag{Name: aws.String("message_id"), Value: aws.String(d.MessageID)})
	}
	if d.RecipientID != "" {
		input.EmailTags = append(input.EmailTags,
			types.MessageTag{Name: aws.String("recipient_id"), Value: aws.String(d.RecipientID)})
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		log.Printf("[SES] Failed to send to %s: %v", logger.RedactEmail(d.Recipient), err)
		return &SendResult{Success: false, Error: err}, nil
	}

	providerID := ""
	if result.MessageId != nil {
		providerID = *result.MessageId
	}

	log.Printf("[SES] Sent to %s (id: %s)", logger.RedactEmail(d.Recipient), providerID)

	return &SendResult{
		Success:    true,
		ProviderID: providerID,
		SentAt:     time.Now(),
	}, nil
}

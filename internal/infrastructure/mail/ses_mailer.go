package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

var _ invitation.Mailer = (*SESMailer)(nil)

// SESClient subconjunto de *sesv2.Client que usa el mailer.
type SESClient interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer envía los enlaces con AWS SES (API v2).
type SESMailer struct {
	client  SESClient
	from    string
	replyTo string
	log     zerolog.Logger
}

// NewSESMailer construye el mailer a partir de la configuración AWS.
func NewSESMailer(cfg aws.Config, from, replyTo string, log zerolog.Logger) *SESMailer {
	return NewSESMailerWithClient(sesv2.NewFromConfig(cfg), from, replyTo, log)
}

// NewSESMailerWithClient permite inyectar el cliente (tests).
func NewSESMailerWithClient(client SESClient, from, replyTo string, log zerolog.Logger) *SESMailer {
	return &SESMailer{client: client, from: from, replyTo: replyTo, log: log}
}

// SendActionLink envía el enlace de invitación o recuperación.
func (m *SESMailer) SendActionLink(ctx context.Context, link *entity.ActionLink, recipientName string) error {
	subject, body, err := render(link, recipientName)
	if err != nil {
		return err
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &sestypes.Destination{ToAddresses: []string{link.Email}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body:    &sestypes.Body{Html: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")}},
			},
		},
	}
	if m.replyTo != "" {
		input.ReplyToAddresses = []string{m.replyTo}
	}
	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses: enviar email: %w", err)
	}
	m.log.Info().
		Str("kind", string(link.Kind)).
		Str("identity_id", link.IdentityID).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("email enviado")
	return nil
}

package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

var _ invitation.Mailer = (*LogMailer)(nil)

// LogMailer escribe el enlace en el log en lugar de enviarlo (MAIL_DRIVER=log, desarrollo).
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer construye el mailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendActionLink registra destinatario y URL del enlace.
func (m *LogMailer) SendActionLink(_ context.Context, link *entity.ActionLink, recipientName string) error {
	subject, _, err := render(link, recipientName)
	if err != nil {
		return err
	}
	m.log.Info().
		Str("to", link.Email).
		Str("name", recipientName).
		Str("subject", subject).
		Str("url", link.URL).
		Time("expires_at", link.ExpiresAt).
		Msg("email (driver log)")
	return nil
}

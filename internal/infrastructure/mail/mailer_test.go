package mail_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/infrastructure/mail"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func link(kind entity.TokenKind) *entity.ActionLink {
	return &entity.ActionLink{
		Kind:       kind,
		IdentityID: "id-1",
		Email:      "owner@bluelagoon.test",
		URL:        "https://api.poolbud.test/auth/verify?token=abc&type=invite&redirect_to=x",
		ExpiresAt:  time.Date(2026, 6, 17, 12, 0, 0, 0, time.UTC),
	}
}

func TestSESMailer_Invitacion(t *testing.T) {
	ses := &fakeSES{}
	m := mail.NewSESMailerWithClient(ses, "no-reply@thepoolbud.com", "soporte@thepoolbud.com", zerolog.Nop())

	require.NoError(t, m.SendActionLink(context.Background(), link(entity.TokenInvite), "Olivia <Owner>"))
	in := ses.input
	require.NotNil(t, in)
	assert.Equal(t, "no-reply@thepoolbud.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"owner@bluelagoon.test"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"soporte@thepoolbud.com"}, in.ReplyToAddresses)
	assert.Equal(t, "Te invitaron a The Pool Bud", aws.ToString(in.Content.Simple.Subject.Data))

	body := aws.ToString(in.Content.Simple.Body.Html.Data)
	assert.Contains(t, body, "token=abc&amp;type=invite", "la URL va escapada en el atributo href")
	assert.Contains(t, body, "Olivia &lt;Owner&gt;", "el nombre se escapa")
	assert.Contains(t, body, "17/06/2026")
}

func TestSESMailer_RecuperacionSinReplyTo(t *testing.T) {
	ses := &fakeSES{}
	m := mail.NewSESMailerWithClient(ses, "no-reply@thepoolbud.com", "", zerolog.Nop())
	require.NoError(t, m.SendActionLink(context.Background(), link(entity.TokenRecovery), ""))
	assert.Empty(t, ses.input.ReplyToAddresses)
	assert.Equal(t, "Accede a tu cuenta de The Pool Bud", aws.ToString(ses.input.Content.Simple.Subject.Data))
}

func TestSESMailer_Error(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	m := mail.NewSESMailerWithClient(ses, "no-reply@thepoolbud.com", "", zerolog.Nop())
	err := m.SendActionLink(context.Background(), link(entity.TokenInvite), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSESMailer_TipoDesconocido(t *testing.T) {
	ses := &fakeSES{}
	m := mail.NewSESMailerWithClient(ses, "no-reply@thepoolbud.com", "", zerolog.Nop())
	assert.Error(t, m.SendActionLink(context.Background(), link("magic"), ""))
	assert.Nil(t, ses.input, "no se llama a SES")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := mail.NewLogMailer(zerolog.New(&buf))
	require.NoError(t, m.SendActionLink(context.Background(), link(entity.TokenInvite), "Olivia"))
	out := buf.String()
	assert.Contains(t, out, `"to":"owner@bluelagoon.test"`)
	assert.Contains(t, out, "token=abc")
}

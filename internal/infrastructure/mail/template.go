// Package mail entrega los enlaces de invitación y recuperación por email.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
)

var actionTmpl = template.Must(template.New("action").Parse(`<!DOCTYPE html>
<html lang="es">
<body style="font-family: sans-serif; color: #333; max-width: 560px; margin: 0 auto;">
  <h2 style="color: #006994;">The Pool Bud</h2>
  <p>Hola{{if .Name}} {{.Name}}{{end}},</p>
  <p>{{.Intro}}</p>
  <p><a href="{{.URL}}" style="background: #006994; color: #fff; padding: 10px 18px; border-radius: 4px; text-decoration: none;">{{.Button}}</a></p>
  <p style="font-size: 12px; color: #888;">El enlace vence el {{.Expires}}. Si no esperabas este correo, ignóralo.</p>
</body>
</html>`))

type actionView struct {
	Name    string
	Intro   string
	Button  string
	URL     string
	Expires string
}

// render arma asunto y cuerpo HTML del enlace.
func render(link *entity.ActionLink, name string) (subject, body string, err error) {
	v := actionView{Name: name, URL: link.URL, Expires: link.ExpiresAt.UTC().Format("02/01/2006 15:04 UTC")}
	switch link.Kind {
	case entity.TokenInvite:
		subject = "Te invitaron a The Pool Bud"
		v.Intro = "Tienes una invitación para unirte a The Pool Bud. Crea tu contraseña para empezar."
		v.Button = "Aceptar invitación"
	case entity.TokenRecovery:
		subject = "Accede a tu cuenta de The Pool Bud"
		v.Intro = "Usa este enlace para entrar y elegir una nueva contraseña."
		v.Button = "Continuar"
	default:
		return "", "", fmt.Errorf("mail: tipo de enlace desconocido %q", link.Kind)
	}
	var buf bytes.Buffer
	if err := actionTmpl.Execute(&buf, v); err != nil {
		return "", "", fmt.Errorf("mail: render: %w", err)
	}
	return subject, buf.String(), nil
}

package invitation

import (
	"context"

	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una única transacción con los repos atados a ella.
// Si fn devuelve error no queda ningún cambio persistido.
type TxRunner interface {
	RunInvitation(ctx context.Context, fn func(s repository.TxStores) error) error
}

// Authorizer tabla de permisos de invitación.
type Authorizer interface {
	CanInvite(inviter, target entity.Role) (bool, error)
}

// Mailer envía el enlace de invitación o recuperación.
type Mailer interface {
	SendActionLink(ctx context.Context, link *entity.ActionLink, recipientName string) error
}

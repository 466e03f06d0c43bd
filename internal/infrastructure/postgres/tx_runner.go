package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thepoolbud/poolbud-api/internal/application/invitation"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// Ensure TxRunner implements invitation.TxRunner.
var _ invitation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInvitation inicia una transacción, ejecuta fn con los repos de alta atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunInvitation(ctx context.Context, fn func(s repository.TxStores) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Stores(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Stores repos de alta sobre db (pool o transacción).
func Stores(db Querier) repository.TxStores {
	return repository.TxStores{
		Companies:  NewCompanyRepository(db),
		Identities: NewIdentityRepository(db),
		Tokens:     NewAuthTokenRepository(db),
		Profiles:   NewProfileRepository(db),
		Customers:  NewCustomerRepository(db),
	}
}

package service

import (
	"context"

	"taskdeck.app/botlink/core/db"
	"taskdeck.app/botlink/internal/store"
)

// TxRunner executes a function against stores bound to a single database
// transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(stores IntegrationStoreProvider) error) error
}

type txRunner struct {
	db *db.DB
}

func NewTxRunner(database *db.DB) TxRunner {
	return &txRunner{db: database}
}

func (r *txRunner) InTx(ctx context.Context, fn func(stores IntegrationStoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Querier) error {
		return fn(store.NewStores(q))
	})
}

package dbx

import "context"

// NoopTxBeginner hands out transactions whose Commit and Rollback do
// nothing. It pairs with the in-memory repositories, which apply their
// changes immediately.
type NoopTxBeginner struct{}

type noopTx struct{}

func (noopTx) Commit(ctx context.Context) error   { return nil }
func (noopTx) Rollback(ctx context.Context) error { return nil }

// Begin returns a no-op transaction.
func (NoopTxBeginner) Begin(ctx context.Context) (Tx, error) {
	return noopTx{}, nil
}

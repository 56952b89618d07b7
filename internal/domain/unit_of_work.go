package domain

import "context"

// UnitOfWork runs fn inside one database transaction. Run reports save the
// run row and its per-team rows atomically through this.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

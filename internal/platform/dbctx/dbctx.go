package dbctx

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/neurogarden-backend/internal/platform/ctxutil"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Of wraps ctx without a transaction.
func Of(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// WithTx runs repo calls inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) Context {
	return Context{Ctx: ctx, Tx: tx}
}

// DB picks the transaction when one is set, else fallback, bound to the request context.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	db := fallback
	if c.Tx != nil {
		db = c.Tx
	}
	return db.WithContext(ctxutil.Default(c.Ctx))
}

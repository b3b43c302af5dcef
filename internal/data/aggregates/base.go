package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/platform/dbctx"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// TxRunner opens the transaction a store write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "store.tx", "transaction runner has no database", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// BaseDeps is shared by every store write. Zero values get gorm-backed defaults.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = HooksFunc(func(string, error, time.Duration) {})
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

// executeWrite runs fn in one transaction, maps whatever comes back to a
// domain code and reports the outcome to the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "store.write"
	}
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	deps.Hooks.AfterWrite(op, err, time.Since(start))
	return err
}

// writeOutcome labels a finished write: "success" or its error code.
func writeOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(MapError("store.outcome", err)); code != "" {
		return string(code)
	}
	return "failure"
}

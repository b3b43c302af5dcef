package aggregates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/dbctx"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// inlineRunner runs fn without a transaction.
type inlineRunner struct{}

func (inlineRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

type spyOperation struct {
	Name   string
	Status string
}

// spyHooks records outcomes the way the metrics hooks label them.
type spyHooks struct {
	mu         sync.Mutex
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

func (h *spyHooks) AfterWrite(op string, err error, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, spyOperation{Name: op, Status: writeOutcome(err)})
	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		h.Conflicts = append(h.Conflicts, op)
	case domainagg.CodeRetryable:
		h.Retries = append(h.Retries, op)
	}
}

func TestExecuteWriteOutcomes(t *testing.T) {
	cases := []struct {
		name      string
		fnErr     error
		wantCode  domainagg.ErrorCode
		wantLabel string
		conflicts int
		retries   int
	}{
		{name: "success", wantLabel: "success"},
		{
			name:      "precondition",
			fnErr:     PreconditionError("report must be mailed before completion"),
			wantCode:  domainagg.CodePreconditionFailed,
			wantLabel: string(domainagg.CodePreconditionFailed),
		},
		{
			name:      "conflict",
			fnErr:     ConflictError("stale version"),
			wantCode:  domainagg.CodeConflict,
			wantLabel: string(domainagg.CodeConflict),
			conflicts: 1,
		},
		{
			name:      "retryable",
			fnErr:     context.DeadlineExceeded,
			wantCode:  domainagg.CodeRetryable,
			wantLabel: string(domainagg.CodeRetryable),
			retries:   1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: inlineRunner{}, Hooks: hooks},
				"test_request.complete", func(dbctx.Context) error { return tc.fnErr })
			if tc.wantCode == "" {
				require.NoError(t, err)
			} else {
				assert.True(t, domainagg.IsCode(err, tc.wantCode), "got %v", err)
			}
			require.Len(t, hooks.Operations, 1)
			assert.Equal(t, "test_request.complete", hooks.Operations[0].Name)
			assert.Equal(t, tc.wantLabel, hooks.Operations[0].Status)
			assert.Len(t, hooks.Conflicts, tc.conflicts)
			assert.Len(t, hooks.Retries, tc.retries)
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	hooks := &spyHooks{}
	require.NoError(t, executeWrite(context.Background(), BaseDeps{Runner: inlineRunner{}, Hooks: hooks}, "  ",
		func(dbctx.Context) error { return nil }))
	assert.Equal(t, "store.write", hooks.Operations[0].Name)
}

func TestGormTxRunnerWithoutDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	assert.True(t, domainagg.IsCode(err, domainagg.CodeInternal), "got %v", err)
}

func TestWriteOutcomeUnknownError(t *testing.T) {
	assert.Equal(t, "success", writeOutcome(nil))
	assert.Equal(t, string(domainagg.CodeConflict), writeOutcome(ConflictError("x")))
	assert.NotEmpty(t, writeOutcome(errors.New("disk on fire")))
}

func TestObservabilityHooksAcceptNilMetrics(t *testing.T) {
	hooks := NewObservabilityHooks(nil, logger.Nop())
	hooks.AfterWrite("test_request.update", MapError("test_request.update", ConflictError("stale")), time.Millisecond)
	hooks.AfterWrite("test_request.update", nil, time.Millisecond)

	m := observability.NewMetrics()
	NewObservabilityHooks(m, nil).AfterWrite("test_request.update", MapError("test_request.update", ConflictError("stale")), time.Millisecond)
}

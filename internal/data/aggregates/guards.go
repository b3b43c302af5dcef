package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/labflow-backend/internal/platform/dbctx"
)

// CASGuard writes rows only while their version column is unchanged.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// Swap applies cols to row id of table when its version still equals
// expected, bumping version to expected+1. Losing the race is a conflict.
func (g CASGuard) Swap(dbc dbctx.Context, table string, id uuid.UUID, expected int, cols map[string]any) error {
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return ValidationError("table and id are required for a versioned write")
	}
	if expected < 1 {
		return ValidationError(fmt.Sprintf("invalid expected version %d", expected))
	}
	db := dbc.DB(g.db)
	if db == nil {
		return ValidationError("missing database for versioned write")
	}
	next := make(map[string]any, len(cols)+1)
	for k, v := range cols {
		next[k] = v
	}
	next["version"] = expected + 1

	res := db.Table(table).Where("id = ? AND version = ?", id, expected).Updates(next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s changed after version %d; reload and retry", table, id, expected))
	}
	return nil
}

package aggregates

import (
	"fmt"
	"strings"

	"github.com/yungbote/mealcoach-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// CASGuard runs version-checked updates. Rows it touches carry a version column.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, errMissingDB
}

// UpdateByVersion applies updates only when id+version match and bumps the version.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uint, expectedVersion int, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == 0 {
		return false, MapError("update_by_version", fmt.Errorf("table and id are required"))
	}
	if expectedVersion < 0 {
		return false, MapError("update_by_version", fmt.Errorf("negative expected version %d", expectedVersion))
	}
	next := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		next[k] = v
	}
	next["version"] = gorm.Expr("version + 1")
	res := db.Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(next)
	if res.Error != nil {
		return false, MapError("update_by_version", res.Error)
	}
	return res.RowsAffected > 0, nil
}

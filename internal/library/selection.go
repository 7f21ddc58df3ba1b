package library

import (
	"context"
	"fmt"
	"strconv"

	"github.com/handiism/ultrastar-library/internal/model"
)

// Selection names the rows an update or a playlist applies to. It is
// either a QuerySelection or a RowSelection.
type Selection interface {
	isSelection()
}

// QuerySelection selects the rows returned by an operator query. The
// statement runs verbatim, see Engine.Query.
type QuerySelection string

// RowSelection selects rows already fetched, usually the result of an
// earlier query. Each row must carry an "id".
type RowSelection []model.Row

func (QuerySelection) isSelection() {}
func (RowSelection) isSelection()   {}

func (e *Engine) resolve(ctx context.Context, sel Selection) ([]model.Row, error) {
	switch s := sel.(type) {
	case QuerySelection:
		return e.store.Query(ctx, string(s))
	case RowSelection:
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported selection %T", sel)
	}
}

// rowID extracts the song id of a row, whatever numeric type the driver or
// the caller used.
func rowID(row model.Row) (uint64, bool) {
	switch v := row["id"].(type) {
	case int64:
		return uint64(v), v > 0
	case int:
		return uint64(v), v > 0
	case uint64:
		return v, v > 0
	case float64:
		return uint64(v), v > 0
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}

package sqlite

import (
	"database/sql/driver"
	"fmt"

	sqlitedriver "modernc.org/sqlite"

	"github.com/prn-tf/folio/internal/domain"
)

// foldFunc is the SQL name of the Unicode-aware case fold used by search.
// SQLite's built-in lower() only folds ASCII.
const foldFunc = "folio_fold"

func init() {
	if err := sqlitedriver.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(fmt.Sprintf("sqlite: register %s: %v", foldFunc, err))
	}
}

func fold(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return domain.FoldCase(v), nil
	case []byte:
		return domain.FoldCase(string(v)), nil
	default:
		return v, nil
	}
}

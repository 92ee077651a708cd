package inputdep

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const statsSchema = `CREATE TABLE IF NOT EXISTS function_stats (
	name TEXT PRIMARY KEY,
	instructions INTEGER NOT NULL,
	input_dep INTEGER NOT NULL,
	input_indep INTEGER NOT NULL,
	unresolved INTEGER NOT NULL,
	unreachable_instrs INTEGER NOT NULL,
	blocks INTEGER NOT NULL,
	input_dep_blocks INTEGER NOT NULL,
	unreachable_blocks INTEGER NOT NULL,
	input_dep_function INTEGER NOT NULL
)`

// WriteStatsDB stores the statistics in a sqlite database at path, replacing
// previous rows for the same functions.
func WriteStatsDB(path string, stats *Statistics) (err error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return fmt.Errorf("open stats db: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = sqlitex.ExecuteTransient(conn, statsSchema, nil); err != nil {
		return fmt.Errorf("create stats schema: %w", err)
	}

	end, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return err
	}
	defer end(&err)

	stmt, err := conn.Prepare(
		`INSERT OR REPLACE INTO function_stats VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	for _, fs := range stats.Functions {
		stmt.BindText(1, fs.Name)
		stmt.BindInt64(2, int64(fs.Instructions))
		stmt.BindInt64(3, int64(fs.InputDep))
		stmt.BindInt64(4, int64(fs.InputIndep))
		stmt.BindInt64(5, int64(fs.Unresolved))
		stmt.BindInt64(6, int64(fs.UnreachableInstrs))
		stmt.BindInt64(7, int64(fs.Blocks))
		stmt.BindInt64(8, int64(fs.InputDepBlocks))
		stmt.BindInt64(9, int64(fs.UnreachableBlocks))
		stmt.BindBool(10, fs.InputDepFunction)
		if _, err = stmt.Step(); err != nil {
			return fmt.Errorf("insert stats for %s: %w", fs.Name, err)
		}
		if err = stmt.Reset(); err != nil {
			return err
		}
	}
	return nil
}

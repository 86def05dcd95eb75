// Package ygggo_mysqlx is a convenience layer over database/sql prepared
// statements for MySQL.
//
// # Overview
//
// ygggo_mysqlx wraps a connection and its prepared statements with:
//   - :name placeholders, translated to positional ? markers before the
//     driver sees the query
//   - automatic parameter type inference ("i" integer, "d" double, "s" other)
//   - per-statement execution timing and counters
//   - a debug preview with every bound value inlined and escaped
//   - shorthand fetches: all rows, first row, first column, first value
//   - recovery from MySQL's "Commands out of sync" error by re-issuing the
//     statement once as a plain query built from its preview
//
// # Quick Start
//
//	import ggx "github.com/yggai/ygggo_mysqlx"
//
//	db, err := ggx.Open(ctx, ggx.Config{
//		Host:     "localhost",
//		Port:     3306,
//		Username: "user",
//		Password: "password",
//		Database: "mydb",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.WithConn(ctx, func(c *ggx.Conn) error {
//		stmt, err := c.Prepare(ctx, "SELECT * FROM users WHERE id = :id")
//		if err != nil {
//			return err
//		}
//		defer stmt.Close()
//
//		user, err := stmt.FetchRow(ctx, map[string]any{"id": 7})
//		if err != nil {
//			return err
//		}
//		log.Printf("user=%v took=%v preview=%s", user, stmt.Duration(), stmt)
//		return nil
//	})
//
// # Binding values
//
// Values may be passed as several positional arguments, a single slice, a
// single map[string]any or a struct with `db` tags. A map whose keys are the
// indexes "0".."n-1" is positional. Every bind replaces the previous one.
// A named placeholder without a value fails the bind with a
// *BindCountMismatchError unless Config.LenientNamed is set.
//
// Placeholders builds the marker list of an IN clause:
//
//	ids := []int{4, 8, 15}
//	rows, err := c.FetchAll(ctx, "SELECT * FROM t WHERE id IN ("+ggx.Placeholders(ids)+")", ids)
//
// # Errors
//
// Prepare failures are *ConnectionError. Execution failures are
// *StatementError, or *BindCountMismatchError when values and placeholders
// disagree; both carry the statement so its Preview can be logged. Classify
// maps any error to an ErrorClass using the MySQL error number first and the
// message text second.
//
// # Concurrency
//
// Conn and Stmt are not safe for concurrent use. Acquire one Conn per
// goroutine from a DB.
package ygggo_mysqlx

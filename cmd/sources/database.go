package sources

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// QuerySource executes a SQL query and yields one row per result record,
// every column rendered to text.
type QuerySource struct {
	DSN   string
	Query string
}

// Label returns the DSN with any password masked.
func (s *QuerySource) Label() string {
	return maskDSN(s.DSN)
}

// Rows opens the database, runs the query once, and converts the result set.
func (s *QuerySource) Rows(ctx context.Context) ([][]string, error) {
	driver, dsn := driverFor(s.DSN)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", maskDSN(s.DSN), err)
	}
	defer db.Close()

	table, err := queryTable(ctx, db, s.Query)
	if err != nil {
		return nil, fmt.Errorf("query against %s failed: %w", maskDSN(s.DSN), err)
	}
	return table, nil
}

// driverFor picks the database/sql driver from the DSN shape. URLs select
// PostgreSQL or MySQL; anything else is treated as a SQLite database path.
func driverFor(dsn string) (string, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", mysqlConnString(strings.TrimPrefix(dsn, "mysql://"))
	default:
		return "sqlite", dsn
	}
}

// mysqlConnString rewrites user:pass@host:port/dbname into the tcp() form
// the mysql driver expects.
func mysqlConnString(dsn string) string {
	if strings.Contains(dsn, "tcp(") || !strings.Contains(dsn, "@") {
		return dsn
	}
	parts := strings.SplitN(dsn, "@", 2)
	hostPortDB := strings.SplitN(parts[1], "/", 2)
	if len(hostPortDB) != 2 {
		return dsn
	}
	return fmt.Sprintf("%s@tcp(%s)/%s", parts[0], hostPortDB[0], hostPortDB[1])
}

// maskDSN hides the password component of URL-style DSNs. The masked label
// is rebuilt by hand: re-serializing through url.URL would percent-encode
// the placeholder.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return dsn
	}
	rest := strings.TrimPrefix(dsn, u.Scheme+"://")
	if at := strings.Index(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return u.Scheme + "://" + u.User.Username() + ":***@" + rest
}

// queryTable runs one query and renders every result row to text fields.
func queryTable(ctx context.Context, db *sql.DB, query string) ([][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var table [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		record := make([]string, len(columns))
		for i, value := range values {
			record[i] = renderValue(value)
		}
		table = append(table, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return table, nil
}

// renderValue converts a scanned database value to its text representation.
// NULL renders as the literal "NULL" so it stays distinguishable from the
// empty string; comparison is literal text equality with no normalization.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}

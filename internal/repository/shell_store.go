package repository

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oktoeat/api/internal/importer"
)

// ShellStore implements the importer's write contract by shelling each batch
// out to psql as a bulk-load step instead of holding an in-process
// connection. The bulkimport CLI uses it so that very large passes do not pin
// pool connections for the whole run, mirroring how the original operator
// tooling loaded data.
//
// Statements are rendered to literal SQL (placeholders substituted with
// quoted values) because psql consumes plain script files.
type ShellStore struct {
	dsn     string
	psql    string
	tempDir string
}

// NewShellStore creates a ShellStore targeting the database described by dsn.
// It expects a psql binary on PATH.
func NewShellStore(dsn string) *ShellStore {
	return &ShellStore{
		dsn:     dsn,
		psql:    "psql",
		tempDir: os.TempDir(),
	}
}

// Exec renders and runs a single statement.
func (s *ShellStore) Exec(ctx context.Context, sql string, args ...any) error {
	return s.Batch(ctx, []importer.Statement{{SQL: sql, Args: args}})
}

// Batch renders the statements into one script wrapped in a transaction and
// feeds it to psql with ON_ERROR_STOP, so the whole batch applies atomically
// or not at all.
func (s *ShellStore) Batch(ctx context.Context, stmts []importer.Statement) error {
	var script strings.Builder
	script.WriteString("BEGIN;\n")
	for _, stmt := range stmts {
		rendered, err := renderStatement(stmt.SQL, stmt.Args)
		if err != nil {
			return err
		}
		script.WriteString(rendered)
		script.WriteString(";\n")
	}
	script.WriteString("COMMIT;\n")

	file, err := os.CreateTemp(s.tempDir, "import_batch_*.sql")
	if err != nil {
		return fmt.Errorf("failed to create batch file: %w", err)
	}
	defer os.Remove(file.Name())

	if _, err := file.WriteString(script.String()); err != nil {
		file.Close()
		return fmt.Errorf("failed to write batch file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close batch file: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.psql, s.dsn,
		"--quiet",
		"--set", "ON_ERROR_STOP=1",
		"--file", file.Name(),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("psql batch failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// renderStatement substitutes $1..$n placeholders with quoted literals in one
// scan over the statement text. A single pass means substituted values are
// never re-examined, so placeholder-like text inside a bound value ("Deals
// from $1 Diner") passes through as data.
func renderStatement(sql string, args []any) (string, error) {
	var renderErr error
	rendered := placeholderPattern.ReplaceAllStringFunc(sql, func(ph string) string {
		idx, err := strconv.Atoi(ph[1:])
		if err != nil || idx < 1 || idx > len(args) {
			if renderErr == nil {
				renderErr = fmt.Errorf("statement references unbound placeholder %s", ph)
			}
			return ph
		}
		literal, err := quoteLiteral(args[idx-1])
		if err != nil {
			if renderErr == nil {
				renderErr = fmt.Errorf("failed to render argument %s: %w", ph, err)
			}
			return ph
		}
		return literal
	})
	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}

// quoteLiteral converts one bound value to a SQL literal. Nil values and nil
// typed pointers render as NULL.
func quoteLiteral(arg any) (string, error) {
	switch v := arg.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quoteString(v), nil
	case *string:
		if v == nil {
			return "NULL", nil
		}
		return quoteString(*v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case *int:
		if v == nil {
			return "NULL", nil
		}
		return strconv.Itoa(*v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case *float64:
		if v == nil {
			return "NULL", nil
		}
		return strconv.FormatFloat(*v, 'g', -1, 64), nil
	case time.Time:
		return quoteString(v.UTC().Format(time.RFC3339Nano)) + "::timestamptz", nil
	default:
		return "", fmt.Errorf("unsupported literal type %T", arg)
	}
}

// quoteString escapes embedded single quotes by doubling them.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

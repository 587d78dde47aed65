package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/project-ranking/internal/model"
)

// numericTypes lists database type names (as reported by the drivers'
// ColumnType.DatabaseTypeName) whose values should be emitted as JSON numbers.
var numericTypes = map[string]bool{
	"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true,
	"MEDIUMINT": true, "BIGINT": true, "DECIMAL": true, "NUMERIC": true,
	"FLOAT": true, "DOUBLE": true, "REAL": true,
	"INT2": true, "INT4": true, "INT8": true, "FLOAT4": true, "FLOAT8": true,
}

func isNumericType(name string) bool {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "UNSIGNED ")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return numericTypes[name]
}

func isJSONType(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "JSON", "JSONB":
		return true
	}
	return false
}

// normalize converts a raw driver value into something encoding/json renders
// the way the column reads.  MySQL's text protocol hands back every column as
// []byte, and PostgreSQL NUMERIC arrives as a string.  JSON has no NaN or
// Infinity, so non-finite floats become null.
func normalize(v any, dbType string) any {
	switch t := v.(type) {
	case []byte:
		return textValue(string(t), dbType)
	case string:
		return textValue(t, dbType)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil
		}
	}
	return v
}

func textValue(s, dbType string) any {
	switch {
	case isJSONType(dbType):
		if json.Valid([]byte(s)) {
			return json.RawMessage(s)
		}
	case isNumericType(dbType):
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return s
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		// ParseFloat also takes "+5" and "0x1p3"; json.Number must not.
		if json.Valid([]byte(s)) {
			return json.Number(s)
		}
	}
	return s
}

// scanProjects reads every remaining row into a column-keyed Project.  The
// returned slice is never nil so an empty table encodes as [].
func scanProjects(rows *sql.Rows) ([]model.Project, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := make([]model.Project, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		p := make(model.Project, len(cols))
		for i, col := range cols {
			p[col.Name()] = normalize(vals[i], col.DatabaseTypeName())
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// timestamp scans DATETIME/TIMESTAMP columns from any of the supported
// drivers.  SQLite may hand them back as text.
type timestamp struct{ time.Time }

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func (ts *timestamp) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		ts.Time = time.Time{}
		return nil
	case time.Time:
		ts.Time = t.UTC()
		return nil
	case []byte:
		return ts.parse(string(t))
	case string:
		return ts.parse(t)
	}
	return fmt.Errorf("timestamp: unsupported type %T", src)
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}

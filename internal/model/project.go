package model

// Project is one row of the `projects` table keyed by column name.  The
// schema belongs to the database, so the API mirrors whatever columns the
// table has instead of fixing a struct layout.  Only `id` and `score` are
// relied upon by the rest of the code.
type Project map[string]any

// ID returns the primary key of the row when it is an integer column.
func (p Project) ID() (int64, bool) {
	return asInt64(p["id"])
}

// Score returns the row's score when it can be read as an integer.
func (p Project) Score() (int64, bool) {
	return asInt64(p["score"])
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case interface{ Int64() (int64, error) }: // json.Number
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

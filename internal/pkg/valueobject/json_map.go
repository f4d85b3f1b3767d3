// Package valueobject holds small value types shared by entities and wire models.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"maps"
)

// ErrScanValueNotBytes indicates the database value is not a byte slice.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap stores arbitrary JSON object data, e.g. a notification payload.
type JSONMap map[string]any

// Value implements driver.Valuer. A nil map is stored as {}.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case map[string]any:
		*j = JSONMap(v)
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = v
	default:
		return ErrScanValueNotBytes
	}

	var result JSONMap
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	if result == nil {
		result = JSONMap{}
	}

	*j = result
	return nil
}

// Clone returns a shallow copy; nil stays nil.
func (j JSONMap) Clone() JSONMap {
	return maps.Clone(j)
}

// Merge copies every key of src into a copy of j and returns it. Keys missing from src
// keep their current value.
func (j JSONMap) Merge(src JSONMap) JSONMap {
	out := make(JSONMap, len(j)+len(src))
	maps.Copy(out, j)
	maps.Copy(out, src)
	return out
}

func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns "" if missing or wrong type.
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}

// GetInt64 accepts the float64 produced by encoding/json as well as native ints.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func (j JSONMap) GetBool(key string) bool {
	v, _ := j[key].(bool)
	return v
}

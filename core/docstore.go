package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

var ErrDocumentNotFound = errors.New("document not found")

// Filter operators
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

type (
	// Fields holds the data of a document.
	Fields map[string]interface{}

	Document struct {
		ID     string
		Path   string
		Fields Fields
	}

	Filter struct {
		Field string
		Op    string
		Value interface{}
	}

	// DocumentStore is a hierarchical document database: collections hold documents,
	// documents may hold sub-collections. Paths are slash separated, e.g.: "students/42".
	DocumentStore interface {
		// GetDocuments returns the documents of a collection matching all filters, in store order.
		GetDocuments(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
		// GetDocument returns ErrDocumentNotFound when no document exists at path.
		GetDocument(ctx context.Context, path string) (Document, error)
		// SetDocument creates or fully replaces the document at path.
		SetDocument(ctx context.Context, path string, fields Fields) error
		DeleteDocument(ctx context.Context, path string) error
		// AddDocument stores fields under a generated ID and returns that ID.
		AddDocument(ctx context.Context, collection string, fields Fields) (string, error)
	}
)

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func ArrayContains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Match reports whether fields satisfy the filter.
func (f Filter) Match(fields Fields) bool {
	val, ok := fields[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEqual:
		return valuesEqual(val, f.Value)
	case OpArrayContains:
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if valuesEqual(rv.Index(i).Interface(), f.Value) {
				return true
			}
		}
	}
	return false
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

// JoinPath joins path segments with slashes.
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitPath splits a document path into its collection path and document ID.
func SplitPath(path string) (collection, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// IsPathSegment reports whether s can be used as a single path segment.
func IsPathSegment(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, "/")
}

func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Text returns the value at key in its textual form; numbers are formatted without a trailing fraction.
// A missing or null value is returned as an invalid null.String.
func (f Fields) Text(key string) null.String {
	switch v := f[key].(type) {
	case nil:
		return null.String{}
	case string:
		return null.StringFrom(v)
	case int:
		return null.StringFrom(strconv.Itoa(v))
	case int32:
		return null.StringFrom(strconv.FormatInt(int64(v), 10))
	case int64:
		return null.StringFrom(strconv.FormatInt(v, 10))
	case float32:
		return null.StringFrom(strconv.FormatFloat(float64(v), 'f', -1, 32))
	case float64:
		return null.StringFrom(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		return null.StringFrom(v.String())
	default:
		return null.StringFrom(fmt.Sprint(v))
	}
}

func (f Fields) Time(key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v.UTC()
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Copy returns a deep copy of f.
func (f Fields) Copy() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Fields:
		return val.Copy()
	case map[string]interface{}:
		return Fields(val).Copy()
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []byte:
		return append([]byte(nil), val...)
	default:
		return v
	}
}

func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

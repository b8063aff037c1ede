package reconcile

import (
	"fmt"
	"sort"

	"github.com/vango-dev/attrsync/internal/errors"
)

// Attrs is a desired attribute map. A nil entry means the attribute should
// be absent; a string entry is its value. Any other value type is rejected
// by Update.
type Attrs map[string]any

// value is an attribute value that may be absent.
type value struct {
	s       string
	present bool
}

var absent = value{}

func present(s string) value {
	return value{s: s, present: true}
}

func (v value) equal(o value) bool {
	if v.present != o.present {
		return false
	}
	return !v.present || v.s == o.s
}

// Validate reports the first invalid entry in a, in name order.
func (a Attrs) Validate() error {
	_, err := a.normalize()
	return err
}

// normalize validates a and converts it to typed values.
func (a Attrs) normalize() (map[string]value, error) {
	out := make(map[string]value, len(a))
	for _, name := range sortedKeys(a) {
		if name == "" {
			return nil, errors.New("E111")
		}
		switch v := a[name].(type) {
		case nil:
			out[name] = absent
		case string:
			out[name] = present(v)
		default:
			return nil, errors.New("E110").
				WithAttribute(name).
				WithDetail(fmt.Sprintf("got %T", v))
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

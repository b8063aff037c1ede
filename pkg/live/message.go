package live

import (
	"encoding/json"

	"github.com/vango-dev/attrsync/internal/errors"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Desired is a desired-state message for one client element.
type Desired struct {
	HID    string          `json:"hid"`
	Tag    string          `json:"tag"`
	Attrs  reconcile.Attrs `json:"attrs"`
	Remove bool            `json:"remove,omitempty"`
}

// ParseDesired decodes and checks a desired-state message. JSON null
// attribute values decode as absent; numbers, booleans and objects are left
// for the reconciler to reject.
func ParseDesired(data []byte) (*Desired, error) {
	var msg Desired
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.New("E121").WithDetail(err.Error()).Wrap(err)
	}
	if msg.HID == "" {
		return nil, errors.New("E121").WithDetail("missing hid")
	}
	if msg.Tag == "" && !msg.Remove {
		return nil, errors.New("E121").WithDetail("missing tag")
	}
	return &msg, nil
}

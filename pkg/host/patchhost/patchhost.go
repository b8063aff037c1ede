// Package patchhost is a reconcile host for elements that live on a remote
// client. Mutations are recorded as protocol patches; the host keeps a
// mirror of the client state the reconciler needs to read (focus and the
// live class list), updated from client reports.
//
// A Host is not safe for concurrent use. The live server serialises access
// per session.
package patchhost

import (
	"fmt"

	"github.com/vango-dev/attrsync/internal/errors"
	"github.com/vango-dev/attrsync/pkg/protocol"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Element is a handle to a remote element.
type Element struct {
	hid     string
	tag     string
	focused bool
	tokens  string
}

// TagName implements reconcile.Node.
func (e *Element) TagName() string { return e.tag }

// HID returns the element's hydration ID.
func (e *Element) HID() string { return e.hid }

// Host records reconciler mutations as patches.
type Host struct {
	elements map[string]*Element
	pending  []protocol.Patch
	seq      uint64
}

var (
	_ reconcile.AttributeWriter           = (*Host)(nil)
	_ reconcile.NamespacedAttributeWriter = (*Host)(nil)
	_ reconcile.PropertyWriter            = (*Host)(nil)
	_ reconcile.FocusReporter             = (*Host)(nil)
	_ reconcile.TokenSetAccessor          = (*Host)(nil)
)

// New creates an empty host.
func New() *Host {
	return &Host{elements: make(map[string]*Element)}
}

// Element returns the element for hid, creating it on first use. If the
// client replaced the element with one of a different tag, a fresh element
// is returned and created is true; callers must drop any reconciler bound
// to the old one.
func (h *Host) Element(hid, tag string) (el *Element, created bool) {
	if el, ok := h.elements[hid]; ok && el.tag == tag {
		return el, false
	}
	el = &Element{hid: hid, tag: tag}
	h.elements[hid] = el
	return el, true
}

// Lookup returns a known element.
func (h *Host) Lookup(hid string) (*Element, bool) {
	el, ok := h.elements[hid]
	return el, ok
}

// Forget drops an element the client removed.
func (h *Host) Forget(hid string) {
	delete(h.elements, hid)
}

// Len returns the number of known elements.
func (h *Host) Len() int {
	return len(h.elements)
}

// Apply updates the client mirror from a report.
func (h *Host) Apply(r protocol.Report) error {
	el, ok := h.elements[r.HID]
	if !ok {
		return errors.New("E122").WithDetailf("hid %q", r.HID)
	}
	switch r.Type {
	case protocol.ReportFocus:
		el.focused = true
	case protocol.ReportBlur:
		el.focused = false
	case protocol.ReportTokenSet:
		el.tokens = r.Value
	default:
		return errors.New("E120").WithDetailf("report type %s", r.Type)
	}
	return nil
}

// Pending returns the patches recorded since the last Flush.
func (h *Host) Pending() []protocol.Patch {
	return h.pending
}

// Flush returns the recorded patches as the next sequenced frame and
// clears them. A frame is returned even when nothing is pending so every
// desired state the client sent is acknowledged.
func (h *Host) Flush() *protocol.PatchesFrame {
	h.seq++
	pf := &protocol.PatchesFrame{Seq: h.seq, Patches: h.pending}
	h.pending = nil
	return pf
}

func (h *Host) push(p protocol.Patch) {
	h.pending = append(h.pending, p)
}

func element(n reconcile.Node) *Element {
	e, ok := n.(*Element)
	if !ok {
		panic(fmt.Sprintf("patchhost: foreign node %T", n))
	}
	return e
}

// SetAttribute implements reconcile.AttributeWriter.
func (h *Host) SetAttribute(n reconcile.Node, name, value string) {
	h.push(protocol.Patch{Op: protocol.PatchSetAttr, HID: element(n).hid, Key: name, Value: value})
}

// RemoveAttribute implements reconcile.AttributeWriter.
func (h *Host) RemoveAttribute(n reconcile.Node, name string) {
	h.push(protocol.Patch{Op: protocol.PatchRemoveAttr, HID: element(n).hid, Key: name})
}

// SetAttributeNS implements reconcile.NamespacedAttributeWriter.
func (h *Host) SetAttributeNS(n reconcile.Node, namespace, name, value string) {
	h.push(protocol.Patch{
		Op:        protocol.PatchSetAttrNS,
		HID:       element(n).hid,
		Namespace: namespace,
		Key:       name,
		Value:     value,
	})
}

// RemoveAttributeNS implements reconcile.NamespacedAttributeWriter.
func (h *Host) RemoveAttributeNS(n reconcile.Node, namespace, localName string) {
	h.push(protocol.Patch{
		Op:        protocol.PatchRemoveAttrNS,
		HID:       element(n).hid,
		Namespace: namespace,
		Key:       localName,
	})
}

// SetProperty implements reconcile.PropertyWriter. checked, selected and
// value map to their dedicated ops.
func (h *Host) SetProperty(n reconcile.Node, name string, value any) {
	hid := element(n).hid
	switch v := value.(type) {
	case bool:
		switch name {
		case "checked":
			h.push(protocol.Patch{Op: protocol.PatchSetChecked, HID: hid, Bool: v})
		case "selected":
			h.push(protocol.Patch{Op: protocol.PatchSetSelected, HID: hid, Bool: v})
		default:
			h.push(protocol.Patch{Op: protocol.PatchSetBoolProp, HID: hid, Key: name, Bool: v})
		}
	case string:
		if name == "value" {
			h.push(protocol.Patch{Op: protocol.PatchSetValue, HID: hid, Value: v})
			return
		}
		h.push(protocol.Patch{Op: protocol.PatchSetStringProp, HID: hid, Key: name, Value: v})
	default:
		h.push(protocol.Patch{Op: protocol.PatchSetStringProp, HID: hid, Key: name, Value: fmt.Sprint(v)})
	}
}

// IsFocused implements reconcile.FocusReporter from the last client report.
func (h *Host) IsFocused(n reconcile.Node) bool {
	return element(n).focused
}

// TokenSet implements reconcile.TokenSetAccessor from the client mirror.
func (h *Host) TokenSet(n reconcile.Node) string {
	return element(n).tokens
}

// SetTokenSet implements reconcile.TokenSetAccessor.
func (h *Host) SetTokenSet(n reconcile.Node, joined string) {
	e := element(n)
	e.tokens = joined
	h.push(protocol.Patch{Op: protocol.PatchSetClass, HID: e.hid, Value: joined})
}

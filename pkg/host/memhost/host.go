package memhost

import (
	"fmt"
	"strings"

	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Op names a host mutation call.
type Op string

const (
	OpSetAttribute      Op = "setAttribute"
	OpRemoveAttribute   Op = "removeAttribute"
	OpSetAttributeNS    Op = "setAttributeNS"
	OpRemoveAttributeNS Op = "removeAttributeNS"
	OpSetProperty       Op = "setProperty"
	OpSetTokenSet       Op = "setTokenSet"
)

// Mutation is one logged host call.
type Mutation struct {
	Op        Op
	Element   *Element
	Namespace string
	Name      string
	Value     any
}

// String renders the mutation for CLI output and test failures.
func (m Mutation) String() string {
	switch m.Op {
	case OpRemoveAttribute:
		return fmt.Sprintf("%s(%s)", m.Op, m.Name)
	case OpRemoveAttributeNS:
		return fmt.Sprintf("%s(%s, %s)", m.Op, m.Namespace, m.Name)
	case OpSetAttributeNS:
		return fmt.Sprintf("%s(%s, %s, %q)", m.Op, m.Namespace, m.Name, m.Value)
	case OpSetTokenSet:
		return fmt.Sprintf("%s(%q)", m.Op, m.Value)
	case OpSetProperty:
		return fmt.Sprintf("%s(%s, %#v)", m.Op, m.Name, m.Value)
	default:
		return fmt.Sprintf("%s(%s, %q)", m.Op, m.Name, m.Value)
	}
}

// Host implements every reconcile capability over *Element nodes.
type Host struct {
	log []Mutation
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
	return &Host{}
}

// Mutations returns the calls logged since the last reset.
func (h *Host) Mutations() []Mutation {
	return append([]Mutation(nil), h.log...)
}

// ResetMutations clears the mutation log.
func (h *Host) ResetMutations() {
	h.log = h.log[:0]
}

func (h *Host) record(m Mutation) {
	h.log = append(h.log, m)
}

// element unwraps a node. Passing a node from another host is a
// programming error.
func element(n reconcile.Node) *Element {
	e, ok := n.(*Element)
	if !ok {
		panic(fmt.Sprintf("memhost: foreign node %T", n))
	}
	return e
}

// SetAttribute implements reconcile.AttributeWriter.
func (h *Host) SetAttribute(n reconcile.Node, name, value string) {
	e := element(n)
	e.attrs[name] = value
	h.record(Mutation{Op: OpSetAttribute, Element: e, Name: name, Value: value})
}

// RemoveAttribute implements reconcile.AttributeWriter.
func (h *Host) RemoveAttribute(n reconcile.Node, name string) {
	e := element(n)
	delete(e.attrs, name)
	h.record(Mutation{Op: OpRemoveAttribute, Element: e, Name: name})
}

// SetAttributeNS implements reconcile.NamespacedAttributeWriter.
func (h *Host) SetAttributeNS(n reconcile.Node, namespace, name, value string) {
	e := element(n)
	local := name
	if _, after, found := strings.Cut(name, ":"); found {
		local = after
	}
	e.nsAttrs[nsKey{namespace, local}] = nsAttr{qualified: name, value: value}
	h.record(Mutation{Op: OpSetAttributeNS, Element: e, Namespace: namespace, Name: name, Value: value})
}

// RemoveAttributeNS implements reconcile.NamespacedAttributeWriter.
func (h *Host) RemoveAttributeNS(n reconcile.Node, namespace, localName string) {
	e := element(n)
	delete(e.nsAttrs, nsKey{namespace, localName})
	h.record(Mutation{Op: OpRemoveAttributeNS, Element: e, Namespace: namespace, Name: localName})
}

// SetProperty implements reconcile.PropertyWriter.
func (h *Host) SetProperty(n reconcile.Node, name string, value any) {
	e := element(n)
	e.props[name] = value
	h.record(Mutation{Op: OpSetProperty, Element: e, Name: name, Value: value})
}

// IsFocused implements reconcile.FocusReporter.
func (h *Host) IsFocused(n reconcile.Node) bool {
	return element(n).focused
}

// TokenSet implements reconcile.TokenSetAccessor.
func (h *Host) TokenSet(n reconcile.Node) string {
	return element(n).ClassName()
}

// SetTokenSet implements reconcile.TokenSetAccessor.
func (h *Host) SetTokenSet(n reconcile.Node, joined string) {
	e := element(n)
	e.setClassName(joined)
	h.record(Mutation{Op: OpSetTokenSet, Element: e, Name: "class", Value: joined})
}

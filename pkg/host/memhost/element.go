// Package memhost is an in-memory reconcile host. Elements keep their
// attributes, namespaced attributes, properties and focus state in plain
// maps, and the Host logs every mutation call it receives.
package memhost

import (
	"sort"
	"strings"
)

// svgTags are the element kinds whose class list is stored as a plain
// attribute rather than through the className property.
var svgTags = map[string]bool{
	"svg": true, "g": true, "path": true, "circle": true, "rect": true,
	"line": true, "polyline": true, "polygon": true, "ellipse": true,
	"text": true, "tspan": true, "use": true, "defs": true, "symbol": true,
}

type nsKey struct {
	namespace string
	local     string
}

type nsAttr struct {
	qualified string
	value     string
}

// Element is an in-memory element.
type Element struct {
	tag     string
	attrs   map[string]string
	nsAttrs map[nsKey]nsAttr
	props   map[string]any
	focused bool
}

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{
		tag:     strings.ToLower(tag),
		attrs:   make(map[string]string),
		nsAttrs: make(map[nsKey]nsAttr),
		props:   make(map[string]any),
	}
}

// TagName implements reconcile.Node.
func (e *Element) TagName() string { return e.tag }

// IsSVG reports whether the element stores its class list as an attribute.
func (e *Element) IsSVG() bool { return svgTags[e.tag] }

// Attribute returns a plain attribute.
func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// AttributeNS returns a namespaced attribute by local name.
func (e *Element) AttributeNS(namespace, local string) (string, bool) {
	a, ok := e.nsAttrs[nsKey{namespace, local}]
	return a.value, ok
}

// Attributes returns every attribute, namespaced ones under their
// qualified name.
func (e *Element) Attributes() map[string]string {
	out := make(map[string]string, len(e.attrs)+len(e.nsAttrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	for _, a := range e.nsAttrs {
		out[a.qualified] = a.value
	}
	return out
}

// AttributeNames returns the sorted names from Attributes.
func (e *Element) AttributeNames() []string {
	attrs := e.Attributes()
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Property returns a reflected property.
func (e *Element) Property(name string) (any, bool) {
	v, ok := e.props[name]
	return v, ok
}

// Focus gives the element focus.
func (e *Element) Focus() { e.focused = true }

// Blur removes focus from the element.
func (e *Element) Blur() { e.focused = false }

// Focused reports whether the element has focus.
func (e *Element) Focused() bool { return e.focused }

// ClassName returns the live class list.
func (e *Element) ClassName() string {
	if e.IsSVG() {
		return e.attrs["class"]
	}
	if v, ok := e.props["className"].(string); ok {
		return v
	}
	return e.attrs["class"]
}

// AddClass adds a token outside of any reconciler, the way other page code
// would. It is not logged as a host mutation.
func (e *Element) AddClass(token string) {
	tokens := strings.Fields(e.ClassName())
	for _, t := range tokens {
		if t == token {
			return
		}
	}
	e.setClassName(strings.Join(append(tokens, token), " "))
}

// RemoveClass removes a token outside of any reconciler.
func (e *Element) RemoveClass(token string) {
	tokens := strings.Fields(e.ClassName())
	out := tokens[:0]
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	e.setClassName(strings.Join(out, " "))
}

func (e *Element) setClassName(joined string) {
	if !e.IsSVG() {
		e.props["className"] = joined
	}
	if joined == "" {
		delete(e.attrs, "class")
		return
	}
	e.attrs["class"] = joined
}

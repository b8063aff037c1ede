package reconcile

// Node is a host element handle. The reconciler only needs its tag to
// select strategies; every read and write goes through the host.
type Node interface {
	TagName() string
}

// AttributeWriter sets and removes plain attributes.
type AttributeWriter interface {
	SetAttribute(n Node, name, value string)
	RemoveAttribute(n Node, name string)
}

// NamespacedAttributeWriter sets and removes namespace-qualified attributes.
// SetAttributeNS receives the qualified name (e.g. "xlink:href"),
// RemoveAttributeNS the local name ("href").
type NamespacedAttributeWriter interface {
	SetAttributeNS(n Node, namespace, name, value string)
	RemoveAttributeNS(n Node, namespace, localName string)
}

// PropertyWriter sets a reflected element property. value is a bool for
// boolean-reflected attributes and a string for value reflection.
type PropertyWriter interface {
	SetProperty(n Node, name string, value any)
}

// FocusReporter reports whether a control currently holds focus.
type FocusReporter interface {
	IsFocused(n Node) bool
}

// TokenSetAccessor reads and writes the live class token list of an element.
// Hosts choose the storage: a plain attribute for HTML, a namespaced
// attribute for SVG, a property on a remote mirror.
type TokenSetAccessor interface {
	TokenSet(n Node) string
	SetTokenSet(n Node, joined string)
}

package reconcile

import "strings"

// XLinkNamespace is the namespace used for xlink:* attributes.
const XLinkNamespace = "http://www.w3.org/1999/xlink"

// Kind selects the update behavior for one attribute.
type Kind uint8

const (
	KindDefault    Kind = iota // Plain set/remove
	KindTokenSet               // Class-list token diffing
	KindBoolean                // checked/selected property, focus-sensitive
	KindValue                  // value property, focus-sensitive
	KindNamespaced             // xlink:* namespaced set/remove
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindTokenSet:
		return "tokenset"
	case KindBoolean:
		return "boolean"
	case KindValue:
		return "value"
	case KindNamespaced:
		return "namespaced"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= KindNamespaced
}

// Select returns the strategy for attribute name on an element with the
// given tag. Tag comparison is case-insensitive, name comparison is not.
func Select(tag, name string) Kind {
	tag = strings.ToLower(tag)
	switch {
	case name == "class":
		return KindTokenSet
	case (name == "checked" || name == "selected") && (tag == "input" || tag == "option"):
		return KindBoolean
	case name == "value" && (tag == "input" || tag == "textarea"):
		return KindValue
	case strings.HasPrefix(name, "xlink:"):
		return KindNamespaced
	default:
		return KindDefault
	}
}

// focusableTags lists, per focus-sensitive kind, the element tags whose
// focus state the strategy knows how to check.
var focusableTags = map[Kind][]string{
	KindBoolean: {"input", "option"},
	KindValue:   {"input", "textarea"},
}

// canHoldFocus reports whether a focus-sensitive kind may be bound to tag.
// Non focus-sensitive kinds accept any tag.
func canHoldFocus(k Kind, tag string) bool {
	tags, ok := focusableTags[k]
	if !ok {
		return true
	}
	tag = strings.ToLower(tag)
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

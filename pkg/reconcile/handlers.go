package reconcile

import (
	"strings"

	"github.com/vango-dev/attrsync/internal/errors"
)

// capabilities holds the host interfaces resolved once in New.
type capabilities struct {
	attrs  AttributeWriter
	ns     NamespacedAttributeWriter
	props  PropertyWriter
	focus  FocusReporter
	tokens TokenSetAccessor
}

func resolveCapabilities(host any) capabilities {
	var c capabilities
	c.attrs, _ = host.(AttributeWriter)
	c.ns, _ = host.(NamespacedAttributeWriter)
	c.props, _ = host.(PropertyWriter)
	c.focus, _ = host.(FocusReporter)
	c.tokens, _ = host.(TokenSetAccessor)
	return c
}

// op is one host call a strategy may make, used for metrics.
type op string

const (
	opSet    op = "set"
	opRemove op = "remove"
)

// call is the context a strategy runs in.
type call struct {
	caps *capabilities
	node Node
	name string
	ent  *entry
}

// strategy is the behavior table row for one Kind. apply returns false when
// the update was suppressed and nothing was written.
type strategy struct {
	requires func(c *capabilities) string
	apply    func(c call, old, next value) (applied bool, o op)
}

var strategies = map[Kind]strategy{
	KindDefault: {
		requires: func(c *capabilities) string {
			if c.attrs == nil {
				return "AttributeWriter"
			}
			return ""
		},
		apply: func(c call, _, next value) (bool, op) {
			if !next.present {
				c.caps.attrs.RemoveAttribute(c.node, c.name)
				return true, opRemove
			}
			c.caps.attrs.SetAttribute(c.node, c.name, next.s)
			return true, opSet
		},
	},
	KindTokenSet: {
		requires: func(c *capabilities) string {
			if c.tokens == nil {
				return "TokenSetAccessor"
			}
			return ""
		},
		apply: func(c call, old, next value) (bool, op) {
			live := Tokens(c.caps.tokens.TokenSet(c.node))
			result := reconcileTokens(live, Tokens(old.s), Tokens(next.s))
			c.caps.tokens.SetTokenSet(c.node, strings.Join(result, " "))
			if !next.present {
				return true, opRemove
			}
			return true, opSet
		},
	},
	KindBoolean: {
		requires: requireFocusAndProps,
		apply: func(c call, old, next value) (bool, op) {
			if c.caps.focus.IsFocused(c.node) {
				return false, ""
			}
			if !next.present {
				if old.present {
					c.caps.props.SetProperty(c.node, c.name, false)
				}
				return true, opRemove
			}
			c.caps.props.SetProperty(c.node, c.name, true)
			return true, opSet
		},
	},
	KindValue: {
		requires: requireFocusAndProps,
		apply: func(c call, _, next value) (bool, op) {
			if c.caps.focus.IsFocused(c.node) {
				return false, ""
			}
			c.caps.props.SetProperty(c.node, c.name, next.s)
			if !next.present {
				return true, opRemove
			}
			return true, opSet
		},
	},
	KindNamespaced: {
		requires: func(c *capabilities) string {
			if c.ns == nil {
				return "NamespacedAttributeWriter"
			}
			return ""
		},
		apply: func(c call, _, next value) (bool, op) {
			if !next.present {
				c.caps.ns.RemoveAttributeNS(c.node, c.ent.namespace, localName(c.name))
				return true, opRemove
			}
			c.caps.ns.SetAttributeNS(c.node, c.ent.namespace, c.name, next.s)
			return true, opSet
		},
	},
}

func requireFocusAndProps(c *capabilities) string {
	switch {
	case c.props == nil:
		return "PropertyWriter"
	case c.focus == nil:
		return "FocusReporter"
	}
	return ""
}

// entry is the handler table record for one tracked attribute.
type entry struct {
	kind      Kind
	namespace string
	last      string
}

// newEntry selects and checks the strategy for name. All failures are
// configuration errors.
func (r *Reconciler) newEntry(name string) (*entry, error) {
	tag := r.node.TagName()
	kind, pinned := r.overrides[name]
	if !pinned {
		kind = Select(tag, name)
	}
	s, ok := strategies[kind]
	if !ok {
		return nil, errors.New("E102").
			WithAttribute(name).
			WithDetailf("kind %d", kind)
	}
	if missing := s.requires(&r.caps); missing != "" {
		return nil, errors.New("E100").
			WithAttribute(name).
			WithDetailf("strategy %s needs %s", kind, missing)
	}
	if !canHoldFocus(kind, tag) {
		return nil, errors.New("E101").
			WithAttribute(name).
			WithDetailf("strategy %s on <%s>", kind, strings.ToLower(tag))
	}
	e := &entry{kind: kind}
	if kind == KindNamespaced {
		prefix, _, found := strings.Cut(name, ":")
		uri, known := r.namespaces[prefix]
		if !found || !known {
			return nil, errors.New("E103").
				WithAttribute(name).
				WithDetailf("no namespace registered for prefix %q", prefix)
		}
		e.namespace = uri
	}
	return e, nil
}

// localName strips a namespace prefix from a qualified name.
func localName(qualified string) string {
	if _, local, found := strings.Cut(qualified, ":"); found {
		return local
	}
	return qualified
}

// Package reconcile brings one element's attributes in line with a desired
// attribute map using the fewest host mutations.
//
// A Reconciler is bound to a single Node and remembers the last value it
// applied for every attribute it owns. Update diffs the desired map against
// that memory and calls the host only for attributes whose value changed:
//
//	r := reconcile.New(node, host)
//	err := r.Update(reconcile.Attrs{"id": "main", "class": "card active"})
//
// # Strategies
//
// Each attribute is handled by a strategy chosen once, on first use, from the
// element's tag and the attribute name (see Select):
//
//   - class uses token-set reconciliation and preserves tokens that other
//     code added to the live element.
//   - checked/selected on input/option reflect to a boolean property and are
//     left alone while the control has focus.
//   - value on input/textarea reflects to the value property, also left alone
//     while focused.
//   - xlink:* attributes are set in the XLink namespace.
//   - everything else is a plain set/remove.
//
// # Hosts
//
// The reconciler never touches an element directly. It calls small
// capability interfaces (AttributeWriter, PropertyWriter, ...) on the host
// value passed to New. A host only needs the capabilities its strategies
// use; a missing capability is reported as a configuration error the first
// time a strategy needs it.
package reconcile

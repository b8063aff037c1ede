package reconcile

import (
	"fmt"
	"strings"
)

type testNode struct {
	tag string
}

func (n *testNode) TagName() string { return n.tag }

// recordingHost implements every capability and logs calls as strings.
type recordingHost struct {
	calls   []string
	tokens  string
	focused bool
}

func (h *recordingHost) SetAttribute(_ Node, name, value string) {
	h.calls = append(h.calls, fmt.Sprintf("set %s=%q", name, value))
}

func (h *recordingHost) RemoveAttribute(_ Node, name string) {
	h.calls = append(h.calls, "remove "+name)
}

func (h *recordingHost) SetAttributeNS(_ Node, ns, name, value string) {
	h.calls = append(h.calls, fmt.Sprintf("setns %s %s=%q", ns, name, value))
}

func (h *recordingHost) RemoveAttributeNS(_ Node, ns, local string) {
	h.calls = append(h.calls, fmt.Sprintf("removens %s %s", ns, local))
}

func (h *recordingHost) SetProperty(_ Node, name string, value any) {
	h.calls = append(h.calls, fmt.Sprintf("prop %s=%#v", name, value))
}

func (h *recordingHost) IsFocused(Node) bool { return h.focused }

func (h *recordingHost) TokenSet(Node) string { return h.tokens }

func (h *recordingHost) SetTokenSet(_ Node, joined string) {
	h.tokens = joined
	h.calls = append(h.calls, fmt.Sprintf("tokens %q", joined))
}

func (h *recordingHost) reset() { h.calls = nil }

func (h *recordingHost) String() string { return strings.Join(h.calls, "; ") }

// attrsOnlyHost implements AttributeWriter and nothing else.
type attrsOnlyHost struct {
	calls int
}

func (h *attrsOnlyHost) SetAttribute(Node, string, string) { h.calls++ }
func (h *attrsOnlyHost) RemoveAttribute(Node, string)      { h.calls++ }

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

package reconcile

import (
	"strings"
	"testing"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"a", "a"},
		{"a b", "a b"},
		{"  a\tb\n c  ", "a b c"},
		{"a b a c b", "a b c"},
	}
	for _, tt := range tests {
		if got := strings.Join(Tokens(tt.in), " "); got != tt.want {
			t.Errorf("Tokens(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReconcileTokens(t *testing.T) {
	tests := []struct {
		name string
		live string
		old  string
		new  string
		want string
	}{
		{"add to empty", "", "", "foo", "foo"},
		{"external token preserved", "a b", "a", "a c", "a b c"},
		{"owned token removed", "a b x", "a b", "b", "b x"},
		{"remove all owned", "a b x", "a b", "", "x"},
		{"no duplicate when live has it", "c", "", "c", "c"},
		{"externally removed owned token not re-added", "a", "a b", "a b c", "a c"},
		{"order of live kept", "z a", "a", "a", "z a"},
		{"swap", "a", "a", "b", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcileTokens(Tokens(tt.live), Tokens(tt.old), Tokens(tt.new))
			if joined := strings.Join(got, " "); joined != tt.want {
				t.Errorf("reconcileTokens(%q, %q, %q) = %q, want %q",
					tt.live, tt.old, tt.new, joined, tt.want)
			}
		})
	}
}

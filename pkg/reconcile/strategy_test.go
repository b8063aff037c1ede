package reconcile

import "testing"

func TestSelect(t *testing.T) {
	tests := []struct {
		tag  string
		name string
		want Kind
	}{
		{"div", "class", KindTokenSet},
		{"svg", "class", KindTokenSet},
		{"input", "class", KindTokenSet},
		{"input", "checked", KindBoolean},
		{"INPUT", "checked", KindBoolean},
		{"option", "selected", KindBoolean},
		{"input", "selected", KindBoolean},
		{"div", "checked", KindDefault},
		{"select", "selected", KindDefault},
		{"input", "value", KindValue},
		{"textarea", "value", KindValue},
		{"option", "value", KindDefault},
		{"button", "value", KindDefault},
		{"use", "xlink:href", KindNamespaced},
		{"a", "xlink:title", KindNamespaced},
		{"div", "id", KindDefault},
		{"div", "Class", KindDefault},
		{"input", "Checked", KindDefault},
		{"div", "xlink", KindDefault},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.name, func(t *testing.T) {
			if got := Select(tt.tag, tt.name); got != tt.want {
				t.Errorf("Select(%q, %q) = %v, want %v", tt.tag, tt.name, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindDefault, "default"},
		{KindTokenSet, "tokenset"},
		{KindBoolean, "boolean"},
		{KindValue, "value"},
		{KindNamespaced, "namespaced"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if Kind(99).Valid() {
		t.Error("Kind(99) should not be valid")
	}
	if !KindNamespaced.Valid() {
		t.Error("KindNamespaced should be valid")
	}
}

func TestCanHoldFocus(t *testing.T) {
	tests := []struct {
		kind Kind
		tag  string
		want bool
	}{
		{KindBoolean, "input", true},
		{KindBoolean, "OPTION", true},
		{KindBoolean, "div", false},
		{KindBoolean, "textarea", false},
		{KindValue, "textarea", true},
		{KindValue, "option", false},
		{KindDefault, "div", true},
		{KindTokenSet, "svg", true},
	}
	for _, tt := range tests {
		if got := canHoldFocus(tt.kind, tt.tag); got != tt.want {
			t.Errorf("canHoldFocus(%v, %q) = %v, want %v", tt.kind, tt.tag, got, tt.want)
		}
	}
}

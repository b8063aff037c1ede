package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "missing capability",
			code:    "E100",
			wantMsg: "Host is missing a capability required by the attribute strategy",
			wantCat: CategoryConfig,
		},
		{
			name:    "invalid value",
			code:    "E110",
			wantMsg: "Attribute value must be a string or nil",
			wantCat: CategoryValidation,
		},
		{
			name:    "protocol error",
			code:    "E120",
			wantMsg: "Malformed frame",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryRuntime, "session %q not found", "s1")
	if err.Message != `session "s1" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryRuntime {
		t.Errorf("Category = %q, want runtime", err.Category)
	}
	if err.Error() != `session "s1" not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestError_Error(t *testing.T) {
	err := New("E110").WithAttribute("id").WithDetail("got int")
	want := `E110: Attribute value must be a string or nil (attribute "id"): got int`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_Is(t *testing.T) {
	err := New("E100").WithAttribute("class")
	if !stderrors.Is(err, New("E100")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("E101")) {
		t.Error("errors.Is should not match a different code")
	}
	if stderrors.Is(err, &Error{}) {
		t.Error("errors.Is should not match an uncoded error")
	}
}

func TestError_Wrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E130").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

type testError struct{}

func (e *testError) Error() string { return "test error" }

func TestFromError(t *testing.T) {
	if FromError(nil, "E120") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E110")
	if got := FromError(orig, "E120"); got != orig {
		t.Error("FromError should return an existing *Error unchanged")
	}

	te := &testError{}
	got := FromError(te, "E120")
	if got.Code != "E120" {
		t.Errorf("Code = %q, want E120", got.Code)
	}
	if got.Wrapped != te {
		t.Error("Wrapped should be the original error")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf(New("E101")); got != CategoryConfig {
		t.Errorf("CategoryOf = %q, want config", got)
	}
	if got := CategoryOf(&testError{}); got != "" {
		t.Errorf("CategoryOf(plain) = %q, want empty", got)
	}
	if HasCategory(nil, CategoryConfig) {
		t.Error("HasCategory(nil) should be false")
	}
	if !HasCategory(New("E110"), CategoryValidation) {
		t.Error("HasCategory should match validation")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E100").
		WithAttribute("class").
		WithDetail("strategy tokenset needs TokenSetAccessor")
	out := err.Format()

	for _, want := range []string{
		"ERROR E100:",
		"attribute: class",
		"strategy tokenset needs TokenSetAccessor",
		"Hint: Implement the named capability interface",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E110").WithAttribute("id")
	want := "E110: Attribute value must be a string or nil [id]"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E120").WithDetail("short header")
	got := err.FormatJSON()
	want := `{"code":"E120","category":"protocol","message":"Malformed frame","detail":"short header"}`
	if got != want {
		t.Errorf("FormatJSON() = %s, want %s", got, want)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, &testError{})
	if !strings.Contains(buf.String(), "ERROR: test error") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, New("E141"))
	if !strings.Contains(buf.String(), "ERROR E141: Invalid scenario") {
		t.Errorf("Fprint(*Error) = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("expected registered codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" {
			t.Errorf("code %s has empty message", code)
		}
		if tmpl.Category == "" {
			t.Errorf("code %s has empty category", code)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("E900", ErrorTemplate{Category: CategoryRuntime, Message: "custom"})
	defer delete(registry, "E900")

	tmpl, ok := GetTemplate("E900")
	if !ok || tmpl.Message != "custom" {
		t.Errorf("GetTemplate(E900) = %+v, %v", tmpl, ok)
	}
}

func TestWrapText(t *testing.T) {
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
	lines := wrapText("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

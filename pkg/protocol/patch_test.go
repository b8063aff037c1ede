package protocol

import (
	"errors"
	"io"
	"testing"
)

func TestPatchesRoundTrip(t *testing.T) {
	pf := &PatchesFrame{
		Seq: 42,
		Patches: []Patch{
			{Op: PatchSetAttr, HID: "h1", Key: "id", Value: "main"},
			{Op: PatchRemoveAttr, HID: "h1", Key: "title"},
			{Op: PatchSetValue, HID: "h2", Value: "typed"},
			{Op: PatchSetChecked, HID: "h3", Bool: true},
			{Op: PatchSetSelected, HID: "h4", Bool: false},
			{Op: PatchSetClass, HID: "h1", Value: "card active"},
			{Op: PatchSetAttrNS, HID: "h5", Namespace: "http://www.w3.org/1999/xlink", Key: "xlink:href", Value: "#i"},
			{Op: PatchRemoveAttrNS, HID: "h5", Namespace: "http://www.w3.org/1999/xlink", Key: "href"},
			{Op: PatchSetBoolProp, HID: "h2", Key: "indeterminate", Bool: true},
			{Op: PatchSetStringProp, HID: "h2", Key: "defaultValue", Value: "d"},
		},
	}

	got, err := DecodePatches(EncodePatches(pf))
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	if got.Seq != pf.Seq {
		t.Errorf("Seq = %d, want %d", got.Seq, pf.Seq)
	}
	if len(got.Patches) != len(pf.Patches) {
		t.Fatalf("len = %d, want %d", len(got.Patches), len(pf.Patches))
	}
	for i := range pf.Patches {
		if got.Patches[i] != pf.Patches[i] {
			t.Errorf("patch %d = %+v, want %+v", i, got.Patches[i], pf.Patches[i])
		}
	}
}

func TestSetAttrEncoding(t *testing.T) {
	data := EncodePatches(&PatchesFrame{
		Seq:     1,
		Patches: []Patch{{Op: PatchSetAttr, HID: "h1", Key: "id", Value: "a"}},
	})
	want := []byte{
		0x01, // seq
		0x01, // count
		0x02, // op
		0x02, 'h', '1',
		0x02, 'i', 'd',
		0x01, 'a',
	}
	if string(data) != string(want) {
		t.Errorf("encoded = %x, want %x", data, want)
	}
}

func TestDecodePatchesErrors(t *testing.T) {
	t.Run("unknown op", func(t *testing.T) {
		data := []byte{0x00, 0x01, 0x7F, 0x01, 'h'}
		_, err := DecodePatches(data)
		var opErr *ErrUnknownPatchOp
		if !errors.As(err, &opErr) || opErr.Op != 0x7F {
			t.Errorf("err = %v, want ErrUnknownPatchOp(0x7f)", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data := EncodePatches(&PatchesFrame{Patches: []Patch{{Op: PatchSetAttr, HID: "h", Key: "k", Value: "v"}}})
		if _, err := DecodePatches(data[:len(data)-1]); err != io.ErrUnexpectedEOF {
			t.Errorf("err = %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("count over limit", func(t *testing.T) {
		e := NewEncoder()
		e.WriteUvarint(0)
		e.WriteUvarint(MaxCollectionCount + 1)
		if _, err := DecodePatches(e.Bytes()); err != ErrCollectionTooLarge {
			t.Errorf("err = %v, want ErrCollectionTooLarge", err)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		data := append(EncodePatches(&PatchesFrame{}), 0x00)
		if _, err := DecodePatches(data); err != ErrTrailingBytes {
			t.Errorf("err = %v, want ErrTrailingBytes", err)
		}
	})
}

func TestPatchString(t *testing.T) {
	tests := []struct {
		p    Patch
		want string
	}{
		{Patch{Op: PatchSetAttr, HID: "h1", Key: "id", Value: "a"}, `SetAttr h1 id="a"`},
		{Patch{Op: PatchRemoveAttr, HID: "h1", Key: "id"}, `RemoveAttr h1 id`},
		{Patch{Op: PatchSetClass, HID: "h1", Value: "a b"}, `SetClass h1 "a b"`},
		{Patch{Op: PatchSetChecked, HID: "h2", Bool: true}, `SetChecked h2 true`},
		{Patch{Op: PatchSetBoolProp, HID: "h2", Key: "disabled", Bool: false}, `SetBoolProp h2 disabled=false`},
		{Patch{Op: PatchSetAttrNS, HID: "h3", Namespace: "ns", Key: "x:y", Value: "v"}, `SetAttrNS h3 {ns}x:y="v"`},
		{Patch{Op: PatchRemoveAttrNS, HID: "h3", Namespace: "ns", Key: "y"}, `RemoveAttrNS h3 {ns}y`},
		{Patch{Op: PatchOp(0x7F), HID: "h4"}, `Unknown h4`},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestReportsRoundTrip(t *testing.T) {
	reports := []Report{
		{Type: ReportFocus, HID: "h1"},
		{Type: ReportTokenSet, HID: "h2", Value: "a b"},
		{Type: ReportBlur, HID: "h1"},
	}
	got, err := DecodeReports(EncodeReports(reports))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(reports) {
		t.Fatalf("len = %d, want %d", len(got), len(reports))
	}
	for i := range reports {
		if got[i] != reports[i] {
			t.Errorf("report %d = %+v, want %+v", i, got[i], reports[i])
		}
	}
}

func TestDecodeReportsErrors(t *testing.T) {
	if _, err := DecodeReports([]byte{0x01, 0x09, 0x00}); err == nil {
		t.Error("expected error for unknown report type")
	}
	if _, err := DecodeReports([]byte{0x01, 0x03, 0x01, 'h'}); err != io.ErrUnexpectedEOF {
		t.Errorf("err = %v, want ErrUnexpectedEOF", err)
	}
	if ReportType(0x09).String() != "Unknown" {
		t.Error("unknown report type should stringify as Unknown")
	}
}

package live

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/attrsync/pkg/protocol"
)

func testSession() *Session {
	return newSession("test", slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func decodePatches(t *testing.T, data []byte) *protocol.PatchesFrame {
	t.Helper()
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Type != protocol.FramePatches {
		if frame.Type == protocol.FrameError {
			em, _ := protocol.DecodeErrorMessage(frame.Payload)
			t.Fatalf("got error frame %v", em)
		}
		t.Fatalf("frame type = %v, want Patches", frame.Type)
	}
	pf, err := protocol.DecodePatches(frame.Payload)
	if err != nil {
		t.Fatalf("DecodePatches: %v", err)
	}
	return pf
}

func decodeError(t *testing.T, data []byte) *protocol.ErrorMessage {
	t.Helper()
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Type != protocol.FrameError {
		t.Fatalf("frame type = %v, want Error", frame.Type)
	}
	em, err := protocol.DecodeErrorMessage(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeErrorMessage: %v", err)
	}
	return em
}

func patchList(pf *protocol.PatchesFrame) []string {
	out := make([]string, len(pf.Patches))
	for i, p := range pf.Patches {
		out[i] = p.String()
	}
	return out
}

func reportsFrame(t *testing.T, reports ...protocol.Report) []byte {
	t.Helper()
	data, err := protocol.NewFrame(protocol.FrameReports, protocol.EncodeReports(reports)).Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleDesired(t *testing.T) {
	s := testSession()
	ctx := context.Background()

	reply, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a","class":"foo","disabled":null}}`))
	if err != nil {
		t.Fatal(err)
	}
	pf := decodePatches(t, reply)
	got := patchList(pf)
	want := []string{`SetClass h1 "foo"`, `SetAttr h1 id="a"`}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("patches = %q, want %q", got, want)
	}
	if pf.Seq != 1 {
		t.Errorf("Seq = %d, want 1", pf.Seq)
	}

	reply, err = s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a","class":"foo"}}`))
	if err != nil {
		t.Fatal(err)
	}
	pf = decodePatches(t, reply)
	if len(pf.Patches) != 0 || pf.Seq != 2 {
		t.Errorf("repeat update = seq %d %q, want seq 2 and no patches", pf.Seq, patchList(pf))
	}
}

func TestHandleDesiredRemove(t *testing.T) {
	s := testSession()
	ctx := context.Background()

	if _, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a"}}`)); err != nil {
		t.Fatal(err)
	}
	if s.Elements() != 1 {
		t.Fatalf("Elements = %d, want 1", s.Elements())
	}
	reply, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","remove":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if pf := decodePatches(t, reply); len(pf.Patches) != 0 {
		t.Errorf("remove produced patches %q", patchList(pf))
	}
	if s.Elements() != 0 {
		t.Errorf("Elements = %d, want 0", s.Elements())
	}
}

func TestHandleDesiredTagChangeStartsFresh(t *testing.T) {
	s := testSession()
	ctx := context.Background()

	if _, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a"}}`)); err != nil {
		t.Fatal(err)
	}
	reply, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"span","attrs":{"id":"a"}}`))
	if err != nil {
		t.Fatal(err)
	}
	got := patchList(decodePatches(t, reply))
	if len(got) != 1 || got[0] != `SetAttr h1 id="a"` {
		t.Errorf("patches = %q, want a fresh SetAttr", got)
	}
}

func TestHandleDesiredInvalidMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing hid", `{"tag":"div","attrs":{}}`},
		{"missing tag", `{"hid":"h1","attrs":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			reply, err := s.HandleDesired(context.Background(), []byte(tt.data))
			if err != nil {
				t.Fatalf("invalid message should not be fatal: %v", err)
			}
			em := decodeError(t, reply)
			if em.Code != protocol.ErrInvalidMessage || em.Fatal {
				t.Errorf("error = %v, want non-fatal InvalidMessage", em)
			}
		})
	}
}

func TestHandleDesiredInvalidInput(t *testing.T) {
	s := testSession()
	reply, err := s.HandleDesired(context.Background(), []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a","tabindex":3}}`))
	if err != nil {
		t.Fatalf("invalid input should not be fatal: %v", err)
	}
	em := decodeError(t, reply)
	if em.Code != protocol.ErrInvalidInput || em.Fatal {
		t.Errorf("error = %v, want non-fatal InvalidInput", em)
	}

	// Nothing was applied, so the next valid update sets id.
	reply, err = s.HandleDesired(context.Background(), []byte(`{"hid":"h1","tag":"div","attrs":{"id":"a"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := patchList(decodePatches(t, reply)); len(got) != 1 {
		t.Errorf("patches = %q, want one SetAttr", got)
	}
}

func TestReportsDriveReconciliation(t *testing.T) {
	s := testSession()
	ctx := context.Background()

	if _, err := s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"input","attrs":{"value":"a","class":"x"}}`)); err != nil {
		t.Fatal(err)
	}

	reply, err := s.HandleReports(reportsFrame(t,
		protocol.Report{Type: protocol.ReportFocus, HID: "h1"},
		protocol.Report{Type: protocol.ReportTokenSet, HID: "h1", Value: "x user"},
	))
	if err != nil || reply != nil {
		t.Fatalf("HandleReports = %v, %v", reply, err)
	}

	reply, err = s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"input","attrs":{"value":"b","class":"x y"}}`))
	if err != nil {
		t.Fatal(err)
	}
	got := patchList(decodePatches(t, reply))
	if len(got) != 1 || got[0] != `SetClass h1 "x user y"` {
		t.Errorf("patches while focused = %q, want only the class update", got)
	}

	if _, err := s.HandleReports(reportsFrame(t, protocol.Report{Type: protocol.ReportBlur, HID: "h1"})); err != nil {
		t.Fatal(err)
	}
	reply, err = s.HandleDesired(ctx, []byte(`{"hid":"h1","tag":"input","attrs":{"value":"b","class":"x y"}}`))
	if err != nil {
		t.Fatal(err)
	}
	got = patchList(decodePatches(t, reply))
	if len(got) != 1 || got[0] != `SetValue h1 "b"` {
		t.Errorf("patches after blur = %q, want the deferred value", got)
	}
}

func TestHandleReportsErrors(t *testing.T) {
	patches, _ := protocol.NewFrame(protocol.FramePatches, nil).Encode()

	tests := []struct {
		name string
		data []byte
		code protocol.ErrorCode
	}{
		{"short frame", []byte{0x01}, protocol.ErrInvalidFrame},
		{"wrong frame type", patches, protocol.ErrInvalidFrame},
		{"bad payload", []byte{0x01, 0x00, 0x00, 0x02, 0x01, 0x7F}, protocol.ErrInvalidFrame},
		{"unknown element", reportsFrame(t, protocol.Report{Type: protocol.ReportFocus, HID: "zz"}), protocol.ErrUnknownElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession()
			reply, err := s.HandleReports(tt.data)
			if err != nil {
				t.Fatalf("reports should never be fatal: %v", err)
			}
			em := decodeError(t, reply)
			if em.Code != tt.code || em.Fatal {
				t.Errorf("error = %v, want non-fatal %v", em, tt.code)
			}
		})
	}
}

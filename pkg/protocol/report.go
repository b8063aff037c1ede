package protocol

import "fmt"

// ReportType identifies a client report.
type ReportType uint8

const (
	ReportFocus    ReportType = 0x01 // Element gained focus
	ReportBlur     ReportType = 0x02 // Element lost focus
	ReportTokenSet ReportType = 0x03 // Element's class list changed client-side
)

// String returns the string representation of the report type.
func (rt ReportType) String() string {
	switch rt {
	case ReportFocus:
		return "Focus"
	case ReportBlur:
		return "Blur"
	case ReportTokenSet:
		return "TokenSet"
	default:
		return "Unknown"
	}
}

// Report tells the server about client-side element state it does not
// control.
type Report struct {
	Type  ReportType
	HID   string
	Value string // Joined token list for ReportTokenSet
}

// EncodeReports encodes a batch of reports.
func EncodeReports(reports []Report) []byte {
	e := NewEncoder()
	e.WriteUvarint(uint64(len(reports)))
	for _, r := range reports {
		e.WriteByte(byte(r.Type))
		e.WriteString(r.HID)
		if r.Type == ReportTokenSet {
			e.WriteString(r.Value)
		}
	}
	return e.Bytes()
}

// DecodeReports decodes a batch of reports.
func DecodeReports(data []byte) ([]Report, error) {
	d := NewDecoder(data)
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}

	reports := make([]Report, count)
	for i := range reports {
		r := &reports[i]
		b, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		r.Type = ReportType(b)
		switch r.Type {
		case ReportFocus, ReportBlur, ReportTokenSet:
		default:
			return nil, fmt.Errorf("protocol: unknown report type 0x%02x", b)
		}
		if r.HID, err = d.ReadString(); err != nil {
			return nil, err
		}
		if r.Type == ReportTokenSet {
			if r.Value, err = d.ReadString(); err != nil {
				return nil, err
			}
		}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return reports, nil
}

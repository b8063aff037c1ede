package protocol

import "fmt"

// PatchOp is the type of attribute patch operation.
type PatchOp uint8

const (
	PatchSetAttr       PatchOp = 0x02 // Set attribute
	PatchRemoveAttr    PatchOp = 0x03 // Remove attribute
	PatchSetValue      PatchOp = 0x08 // Set input value
	PatchSetChecked    PatchOp = 0x09 // Set checkbox checked
	PatchSetSelected   PatchOp = 0x0A // Set select option selected
	PatchSetClass      PatchOp = 0x16 // Replace the class token list
	PatchSetAttrNS     PatchOp = 0x17 // Set namespaced attribute
	PatchRemoveAttrNS  PatchOp = 0x18 // Remove namespaced attribute
	PatchSetBoolProp   PatchOp = 0x19 // Set other boolean property
	PatchSetStringProp PatchOp = 0x1A // Set other string property
)

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchSetValue:
		return "SetValue"
	case PatchSetChecked:
		return "SetChecked"
	case PatchSetSelected:
		return "SetSelected"
	case PatchSetClass:
		return "SetClass"
	case PatchSetAttrNS:
		return "SetAttrNS"
	case PatchRemoveAttrNS:
		return "RemoveAttrNS"
	case PatchSetBoolProp:
		return "SetBoolProp"
	case PatchSetStringProp:
		return "SetStringProp"
	default:
		return "Unknown"
	}
}

// Patch is a single attribute mutation for one element.
type Patch struct {
	Op        PatchOp
	HID       string // Target element's hydration ID
	Namespace string // For SetAttrNS/RemoveAttrNS
	Key       string // Attribute or property name
	Value     string // String payload
	Bool      bool   // For SetChecked/SetSelected/SetBoolProp
}

// String renders the patch for logs and CLI output.
func (p Patch) String() string {
	switch p.Op {
	case PatchSetAttr, PatchSetStringProp:
		return fmt.Sprintf("%s %s %s=%q", p.Op, p.HID, p.Key, p.Value)
	case PatchRemoveAttr:
		return fmt.Sprintf("%s %s %s", p.Op, p.HID, p.Key)
	case PatchSetValue, PatchSetClass:
		return fmt.Sprintf("%s %s %q", p.Op, p.HID, p.Value)
	case PatchSetChecked, PatchSetSelected:
		return fmt.Sprintf("%s %s %t", p.Op, p.HID, p.Bool)
	case PatchSetBoolProp:
		return fmt.Sprintf("%s %s %s=%t", p.Op, p.HID, p.Key, p.Bool)
	case PatchSetAttrNS:
		return fmt.Sprintf("%s %s {%s}%s=%q", p.Op, p.HID, p.Namespace, p.Key, p.Value)
	case PatchRemoveAttrNS:
		return fmt.Sprintf("%s %s {%s}%s", p.Op, p.HID, p.Namespace, p.Key)
	default:
		return fmt.Sprintf("%s %s", p.Op, p.HID)
	}
}

// PatchesFrame is a batch of patches with a sequence number.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// EncodePatches encodes a patches frame payload to bytes.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	EncodePatchesTo(e, pf)
	return e.Bytes()
}

// EncodePatchesTo encodes a patches frame payload using the provided encoder.
func EncodePatchesTo(e *Encoder, pf *PatchesFrame) {
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))

	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
}

func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteString(p.HID)

	switch p.Op {
	case PatchSetAttr, PatchSetStringProp:
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveAttr:
		e.WriteString(p.Key)

	case PatchSetValue, PatchSetClass:
		e.WriteString(p.Value)

	case PatchSetChecked, PatchSetSelected:
		e.WriteBool(p.Bool)

	case PatchSetBoolProp:
		e.WriteString(p.Key)
		e.WriteBool(p.Bool)

	case PatchSetAttrNS:
		e.WriteString(p.Namespace)
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveAttrNS:
		e.WriteString(p.Namespace)
		e.WriteString(p.Key)
	}
}

// DecodePatches decodes a patches frame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	count, err := d.readCount()
	if err != nil {
		return nil, err
	}

	patches := make([]Patch, count)
	for i := range patches {
		if err := decodePatch(d, &patches[i]); err != nil {
			return nil, err
		}
	}
	if err := d.finish(); err != nil {
		return nil, err
	}

	return &PatchesFrame{
		Seq:     seq,
		Patches: patches,
	}, nil
}

// ErrUnknownPatchOp is returned when a patch op byte is not recognised.
type ErrUnknownPatchOp struct {
	Op byte
}

func (e *ErrUnknownPatchOp) Error() string {
	return fmt.Sprintf("protocol: unknown patch op 0x%02x", e.Op)
}

func decodePatch(d *Decoder, p *Patch) error {
	opByte, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(opByte)

	p.HID, err = d.ReadString()
	if err != nil {
		return err
	}

	switch p.Op {
	case PatchSetAttr, PatchSetStringProp:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveAttr:
		p.Key, err = d.ReadString()

	case PatchSetValue, PatchSetClass:
		p.Value, err = d.ReadString()

	case PatchSetChecked, PatchSetSelected:
		p.Bool, err = d.ReadBool()

	case PatchSetBoolProp:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Bool, err = d.ReadBool()

	case PatchSetAttrNS:
		if p.Namespace, err = d.ReadString(); err != nil {
			return err
		}
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveAttrNS:
		if p.Namespace, err = d.ReadString(); err != nil {
			return err
		}
		p.Key, err = d.ReadString()

	default:
		return &ErrUnknownPatchOp{Op: opByte}
	}

	return err
}

// Package protocol implements the binary wire format for remote attribute
// reconciliation.
//
// The server reconciles element attributes against a mirror of the client
// and sends the resulting mutations as patches. The client reports the
// state the server cannot see on its own: which control holds focus, and
// class tokens that client-side code added or removed.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameReports (0x01): Client → Server focus and token-set reports
//   - FramePatches (0x02): Server → Client attribute patches
//   - FrameError (0x05): Error message
//
// # Encoding
//
//   - Varint: Compact encoding for counts and sequence numbers
//   - Length-prefixed: Strings prefixed with varint length
//   - Big-endian: Fixed-width integers (uint16)
//
// # Patches
//
// Every patch starts with its op byte and the target element's hydration
// ID (HID), followed by op-specific fields:
//
//	SetAttr:     [0x02][HID][Key][Value]
//	RemoveAttr:  [0x03][HID][Key]
//	SetValue:    [0x08][HID][Value]
//	SetChecked:  [0x09][HID][Bool]
//	SetClass:    [0x16][HID][Value]
//	SetAttrNS:   [0x17][HID][Namespace][Key][Value]
//
// Op values shared with the node patch set keep their numbers so a client
// can apply both.
package protocol

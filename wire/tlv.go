/*
File Name:  tlv.go
Package:    wire

TLV is the self-describing framed message used on the wire: a 16-bit
big-endian header/length word followed by the payload. A single UDP
datagram carries exactly one TLV; HeaderMultiple lets several small TLVs be
batched into one.
*/

package wire

import (
	"encoding/binary"
)

// MaxPayload is the largest payload a single TLV may carry.
const MaxPayload = 1024

// mergeableMax is the largest payload a TLV may have and still be a valid
// left operand of Merge (it must leave room for the 2-byte header word of
// whichever side is not itself a MULTIPLE).
const mergeableMax = 1020

// TLV is a framed (header, length, payload) message.
type TLV struct {
	header    Header
	length    uint16
	payload   []byte
	mergeable bool
}

// NewTLV constructs a TLV. payload may be nil for an empty frame. It fails
// when payload is longer than MaxPayload.
func NewTLV(header Header, payload []byte) (TLV, bool) {
	if len(payload) > MaxPayload {
		return TLV{}, false
	}

	length := uint16(len(payload))
	data := make([]byte, length)
	copy(data, payload)

	return TLV{
		header:    header,
		length:    length,
		payload:   data,
		mergeable: length <= mergeableMax,
	}, true
}

// Header returns the TLV's header.
func (t TLV) Header() Header { return t.header }

// SetHeader overwrites the TLV's header in place.
func (t *TLV) SetHeader(h Header) { t.header = h }

// Length returns the declared payload length.
func (t TLV) Length() uint16 { return t.length }

// Payload returns a copy of the payload.
func (t TLV) Payload() []byte {
	out := make([]byte, len(t.payload))
	copy(out, t.payload)
	return out
}

// Mergeable reports whether this TLV may be the left operand of Merge
// (length <= 1020). Merge does not check it on the right operand, which is
// bounded only by the combined-length limit.
func (t TLV) Mergeable() bool { return t.mergeable }

// Equal reports structural equality, used by round-trip tests.
func (t TLV) Equal(other TLV) bool {
	if t.header != other.header || t.length != other.length {
		return false
	}
	if len(t.payload) != len(other.payload) {
		return false
	}
	for i := range t.payload {
		if t.payload[i] != other.payload[i] {
			return false
		}
	}
	return true
}

// ToBytes serializes the TLV to its wire form: a 16-bit header/length word
// followed by the payload. A length of 1024 overflows the 10-bit length
// field and is encoded as 0; the receiver disambiguates by total frame
// size (1026 bytes).
func (t TLV) ToBytes() []byte {
	tl := uint16(t.header.ToByte()) << 10
	payload := t.payload

	if t.length < MaxPayload {
		tl |= t.length
		if len(payload) > int(t.length) {
			payload = payload[:t.length]
		} else if len(payload) < int(t.length) {
			padded := make([]byte, t.length)
			copy(padded, payload)
			payload = padded
		}
	}
	// length == 1024: tl's low 10 bits stay 0, and all 1024 payload bytes follow.

	out := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(out[0:2], tl)
	copy(out[2:], payload)
	return out
}

// FromBytes parses a wire-form buffer into a TLV. It fails on fewer than 2
// bytes, or when the declared length disagrees with the remaining buffer
// length, except for the special 1026-byte frame (length field 0 meaning
// length 1024).
func FromBytes(buf []byte) (TLV, bool) {
	if len(buf) < 2 {
		return TLV{}, false
	}

	tl := binary.BigEndian.Uint16(buf[0:2])
	header := HeaderFromByte(byte(tl >> 10))
	length := tl & 0x3FF

	rest := len(buf) - 2
	if length == 0 && len(buf) == 1026 {
		length = MaxPayload
	} else if int(length) != rest {
		return TLV{}, false
	}

	payload := make([]byte, length)
	copy(payload, buf[2:])

	return TLV{
		header:    header,
		length:    length,
		payload:   payload,
		mergeable: length <= mergeableMax,
	}, true
}

// Merge combines left and right into a single HeaderMultiple TLV. It fails
// if left is not mergeable, or if the combined inner wire length would
// exceed MaxPayload. The full wire form of each operand is used unless the
// operand is itself HeaderMultiple, in which case its leading 2-byte
// header/length word is stripped (its payload is already a concatenation
// of full TLV wire frames).
func Merge(left, right TLV) (TLV, bool) {
	if !left.mergeable {
		return TLV{}, false
	}

	leftLen := left.length + 2
	if left.header == HeaderMultiple {
		leftLen = left.length
	}
	rightLen := right.length + 2
	if right.header == HeaderMultiple {
		rightLen = right.length
	}

	if int(leftLen)+int(rightLen) > MaxPayload {
		return TLV{}, false
	}

	data := make([]byte, 0, leftLen+rightLen)
	data = append(data, wireBytesForMerge(left)...)
	data = append(data, wireBytesForMerge(right)...)

	return NewTLV(HeaderMultiple, data)
}

// wireBytesForMerge returns the bytes a TLV contributes to a merged
// MULTIPLE: its full wire form, minus the header/length word if it is
// itself already a MULTIPLE.
func wireBytesForMerge(t TLV) []byte {
	raw := t.ToBytes()
	if t.header == HeaderMultiple {
		return raw[2:]
	}
	return raw
}

// Split decomposes a TLV into its constituent parts. For any header other
// than HeaderMultiple it returns a single-element slice containing the
// TLV unchanged. For HeaderMultiple it walks the payload reading
// (header/length word, sub-payload) pairs; a sub-length of 0 always means
// an empty sub-TLV, since only mergeable (<=1020 byte) TLVs can appear
// inside a MULTIPLE. It fails if any sub-TLV is malformed.
func (t TLV) Split() ([]TLV, bool) {
	if t.header != HeaderMultiple {
		return []TLV{t}, true
	}

	var result []TLV
	cursor := 0
	for cursor < int(t.length) {
		if cursor+2 > len(t.payload) {
			return nil, false
		}

		tl := binary.BigEndian.Uint16(t.payload[cursor : cursor+2])
		cursor += 2

		head := HeaderFromByte(byte(tl >> 10))
		length := int(tl % 1024)

		if cursor+length > len(t.payload) {
			return nil, false
		}

		var sub TLV
		var ok bool
		if length == 0 {
			sub, ok = NewTLV(head, nil)
		} else {
			sub, ok = NewTLV(head, t.payload[cursor:cursor+length])
		}
		if !ok {
			return nil, false
		}

		result = append(result, sub)
		cursor += length
	}

	return result, true
}

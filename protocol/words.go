package protocol

import (
	"encoding/binary"
	"fmt"
)

// Words recognizes a batch handed over as an untyped value. Only []uint16 and
// *[]uint16 are accepted; anything else is a protocol violation. The returned
// slice aliases the input.
func Words(v any) ([]uint16, error) {
	var words []uint16
	switch b := v.(type) {
	case []uint16:
		words = b
	case *[]uint16:
		if b == nil {
			return nil, &ViolationError{Reason: "nil batch"}
		}
		words = *b
	default:
		return nil, &ViolationError{Reason: fmt.Sprintf("batch of type %T is not a []uint16", v)}
	}
	if err := Validate(words); err != nil {
		return nil, err
	}
	return words, nil
}

// FromBytes reads a batch serialized as little-endian words, appending the
// words to dst.
func FromBytes(dst []uint16, b []byte) ([]uint16, error) {
	if len(b)%(2*WordsPerMessage) != 0 {
		return dst, &ViolationError{Reason: "byte length is not a multiple of 6", Length: len(b)}
	}
	for i := 0; i < len(b); i += 2 {
		dst = append(dst, binary.LittleEndian.Uint16(b[i:]))
	}
	return dst, nil
}

// ToBytes serializes words as little-endian, appending to dst.
func ToBytes(dst []byte, words []uint16) []byte {
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint16(dst, w)
	}
	return dst
}

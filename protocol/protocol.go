// Package protocol implements the packed control messages that drive the
// engine. Every message is three unsigned 16-bit words:
//
//	w0: id (10 bits) | kind (2 bits) | pitch bits 23..20 (4 bits)
//	w1: pitch bits 19..4
//	w2: pitch bits 3..0 (4 bits) | loudness (12 bits)
//
// Pitch and loudness are normalized fractions in [0,1], quantized to 24 and
// 12 bits respectively. A batch is any number of messages concatenated.
package protocol

import (
	"fmt"
	"math"
)

type (
	// Kind tells what a message does to the voice it addresses.
	Kind uint8

	// Message is one decoded control event.
	Message struct {
		ID       int
		Kind     Kind
		Pitch    float64 // normalized, [0,1]
		Loudness float64 // normalized, [0,1]
	}
)

const (
	Add Kind = iota
	Update
	Remove
	reserved
)

const (
	WordsPerMessage = 3
	NumIDs          = 1 << 10
	MaxID           = NumIDs - 1
	PitchMax        = 1<<24 - 1
	LoudnessMax     = 1<<12 - 1
)

var kindNames = [...]string{Add: "add", Update: "update", Remove: "remove", reserved: "reserved"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Valid() bool {
	return k < reserved
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal message kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames[:reserved] {
		if string(text) == name {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown message kind %q", text)
}

// Quantize converts a normalized value into a fixed point fraction of max,
// rounding to nearest. Values outside [0,1] are clamped.
func Quantize(x float64, max uint32) uint32 {
	if !(x > 0) { // also catches NaN
		return 0
	}
	if x >= 1 {
		return max
	}
	return uint32(math.Round(x * float64(max)))
}

// Encode packs a message into its three words.
func Encode(m Message) (w [WordsPerMessage]uint16, err error) {
	if m.ID < 0 || m.ID > MaxID {
		return w, fmt.Errorf("message id %d out of range [0,%d]", m.ID, MaxID)
	}
	if !m.Kind.Valid() {
		return w, fmt.Errorf("invalid message kind %d", uint8(m.Kind))
	}
	p := Quantize(m.Pitch, PitchMax)
	g := Quantize(m.Loudness, LoudnessMax)
	w[0] = uint16(m.ID)<<6 | uint16(m.Kind)<<4 | uint16(p>>20)
	w[1] = uint16(p >> 4)
	w[2] = uint16(p&0xF)<<12 | uint16(g)
	return w, nil
}

// Append encodes m and appends its words to dst.
func Append(dst []uint16, m Message) ([]uint16, error) {
	w, err := Encode(m)
	if err != nil {
		return dst, err
	}
	return append(dst, w[:]...), nil
}

// Decode unpacks one message. It never fails: every bit pattern is a message,
// although kind 3 is reserved and carries no meaning.
func Decode(w0, w1, w2 uint16) Message {
	p := uint32(w0&0xF)<<20 | uint32(w1)<<4 | uint32(w2)>>12
	return Message{
		ID:       int(w0 >> 6),
		Kind:     Kind(w0 >> 4 & 0x3),
		Pitch:    float64(p) / PitchMax,
		Loudness: float64(w2&0xFFF) / LoudnessMax,
	}
}

// Validate checks that words is a well-formed batch.
func Validate(words []uint16) error {
	if len(words)%WordsPerMessage != 0 {
		return &ViolationError{Reason: "batch length is not a multiple of 3", Length: len(words)}
	}
	return nil
}

// DecodeBatch validates and decodes a whole batch.
func DecodeBatch(words []uint16) ([]Message, error) {
	if err := Validate(words); err != nil {
		return nil, err
	}
	ret := make([]Message, 0, len(words)/WordsPerMessage)
	for i := 0; i < len(words); i += WordsPerMessage {
		ret = append(ret, Decode(words[i], words[i+1], words[i+2]))
	}
	return ret, nil
}

// EncodeBatch encodes messages into one batch, appending to dst.
func EncodeBatch(dst []uint16, messages ...Message) ([]uint16, error) {
	var err error
	for i, m := range messages {
		if dst, err = Append(dst, m); err != nil {
			return dst, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return dst, nil
}

package harmonic_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/harmonicpad/harmonic"
)

func TestWavHeader(t *testing.T) {
	buffer := harmonic.AudioBuffer{0, 0.5, -0.5, 1}
	for _, c := range []struct {
		pcm16          bool
		format, bits   uint16
		headerSize     int
		bytesPerSample int
	}{
		{true, 1, 16, 44, 2},
		{false, 3, 32, 58, 4},
	} {
		wav, err := buffer.Wav(48000, c.pcm16)
		if err != nil {
			t.Fatalf("Wav failed: %v", err)
		}
		if len(wav) != c.headerSize+len(buffer)*c.bytesPerSample {
			t.Errorf("pcm16=%v: wav is %d bytes", c.pcm16, len(wav))
		}
		if !bytes.Equal(wav[:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
			t.Errorf("pcm16=%v: bad magic", c.pcm16)
		}
		le := binary.LittleEndian
		if got := le.Uint16(wav[20:]); got != c.format {
			t.Errorf("pcm16=%v: format %d, want %d", c.pcm16, got, c.format)
		}
		if got := le.Uint16(wav[22:]); got != 1 {
			t.Errorf("pcm16=%v: %d channels, want 1", c.pcm16, got)
		}
		if got := le.Uint32(wav[24:]); got != 48000 {
			t.Errorf("pcm16=%v: sample rate %d, want 48000", c.pcm16, got)
		}
		if got := le.Uint16(wav[34:]); got != c.bits {
			t.Errorf("pcm16=%v: %d bits, want %d", c.pcm16, got, c.bits)
		}
	}
}

func TestRawPCM16(t *testing.T) {
	raw, err := harmonic.AudioBuffer{0, 1, -1, 2}.Raw(true)
	if err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	want := []int16{0, 32767, -32767, 32767}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(raw[2*i:])); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestBufferSource(t *testing.T) {
	src := harmonic.AudioBuffer{1, 2, 3}.Source()
	buf := make(harmonic.AudioBuffer, 2)
	if n, err := src.ReadAudio(buf); n != 2 || err != nil {
		t.Fatalf("ReadAudio = %d, %v", n, err)
	}
	if n, err := src.ReadAudio(buf); n != 1 || err != nil || buf[0] != 3 || buf[1] != 0 {
		t.Fatalf("ReadAudio = %d, %v, %v", n, err, buf)
	}
	if _, err := src.ReadAudio(buf); err != io.EOF {
		t.Errorf("ReadAudio error = %v, want io.EOF", err)
	}
}

func TestWavSinkMatchesWav(t *testing.T) {
	buffer := harmonic.AudioBuffer{0.25, -0.25, 0.5, -0.5, 1}
	for _, pcm16 := range []bool{false, true} {
		f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		sink, err := harmonic.NewWavSink(f, 44100, pcm16)
		if err != nil {
			t.Fatalf("NewWavSink failed: %v", err)
		}
		src := harmonic.Tee(buffer.Source(), sink)
		chunk := make(harmonic.AudioBuffer, 2)
		for {
			if _, err := src.ReadAudio(chunk); err == io.EOF {
				break
			}
		}
		if err := src.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if err := sink.WriteAudio(buffer); err == nil {
			t.Error("WriteAudio succeeded after Close")
		}
		got, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatal(err)
		}
		want, _ := buffer.Wav(44100, pcm16)
		if !bytes.Equal(got, want) {
			t.Errorf("pcm16=%v: streamed file differs from Wav:\n%v\n%v", pcm16, got, want)
		}
	}
}

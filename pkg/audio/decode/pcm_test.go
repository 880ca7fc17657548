// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit and 24-bit PCM decoding and malformed chunk detection
package decode

import (
	"errors"
	"testing"

	"github.com/zimcore/argon/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	decoder, err := NewPCM(audio.SessionOutput)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}

	if decoder.Format() != audio.SessionOutput {
		t.Errorf("expected format %+v, got %+v", audio.SessionOutput, decoder.Format())
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// Input: 4 bytes -> Output: 2 int16 samples (one stereo frame)
	input := []byte{0x00, 0x01, 0x02, 0x03}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}

	// 0x00, 0x01 -> 0x0100 = 256 (16-bit) -> 256<<8 (24-bit)
	if output[0] != int32(256<<8) {
		t.Errorf("expected first sample %d, got %d", 256<<8, output[0])
	}
	// 0x02, 0x03 -> 0x0302 = 770 (16-bit) -> 770<<8 (24-bit)
	if output[1] != int32(770<<8) {
		t.Errorf("expected second sample %d, got %d", 770<<8, output[1])
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 192000,
		Channels:   2,
		BitDepth:   24,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	input := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	output, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(output) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(output))
	}

	if output[0] != int32(0x020100) {
		t.Errorf("expected first sample %d, got %d", 0x020100, output[0])
	}
	if output[1] != int32(0x050403) {
		t.Errorf("expected second sample %d, got %d", 0x050403, output[1])
	}
}

func TestPCMDecodeNegativeSample(t *testing.T) {
	decoder, err := NewPCM(audio.SessionOutput)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0xFF, 0xFF -> -1 (16-bit)
	output, err := decoder.Decode([]byte{0xFF, 0xFF})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if output[0] != audio.SampleFromInt16(-1) {
		t.Errorf("expected %d, got %d", audio.SampleFromInt16(-1), output[0])
	}
}

func TestPCMDecode_Malformed(t *testing.T) {
	stereo := audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}

	tests := []struct {
		name   string
		format audio.Format
		input  []byte
	}{
		{"empty", audio.SessionOutput, []byte{}},
		{"nil", audio.SessionOutput, nil},
		{"odd byte count", audio.SessionOutput, []byte{0x01, 0x02, 0x03}},
		{"partial stereo frame", stereo, []byte{0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewPCM(tt.format)
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}

			output, err := decoder.Decode(tt.input)
			if err == nil {
				t.Fatal("expected malformed chunk error, got nil")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
			if output != nil {
				t.Errorf("expected nil samples, got %d", len(output))
			}
		})
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for PCM decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   32,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 32 (supported: 16, 24)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewFactory(t *testing.T) {
	decoder, err := New(audio.SessionOutput)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	if _, ok := decoder.(*PCMDecoder); !ok {
		t.Errorf("expected *PCMDecoder, got %T", decoder)
	}

	_, err = New(audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err == nil {
		t.Fatal("expected error for unsupported codec")
	}
	if err.Error() != "unsupported codec: flac" {
		t.Errorf("unexpected error %q", err.Error())
	}
}

// ABOUTME: Audio sources streamed by the relay
// ABOUTME: Synthetic voice tone or a looping MP3 file, both delivered at the session format
package relay

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/zimcore/argon/pkg/audio"
	"github.com/zimcore/argon/pkg/audio/resample"
)

// Source provides PCM samples in the session output layout
type Source interface {
	// Read fills samples and returns how many were written
	Read(samples []int32) (int, error)

	// Title names the source for logs and transcripts
	Title() string

	// Close releases the source
	Close() error
}

// NewSource opens path as an MP3 source, or a tone when path is empty
func NewSource(path string, format audio.Format) (Source, error) {
	if path == "" {
		return NewToneSource(format), nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" {
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3)", ext)
	}
	return NewMP3Source(path, format)
}

// ToneSource generates a gliding tone shaped like speech syllables
type ToneSource struct {
	format      audio.Format
	sampleIndex uint64
}

// NewToneSource creates a new tone generator
func NewToneSource(format audio.Format) *ToneSource {
	return &ToneSource{format: format}
}

func (s *ToneSource) Read(samples []int32) (int, error) {
	channels := s.format.Channels
	rate := float64(s.format.SampleRate)
	frames := len(samples) / channels

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / rate

		// 220Hz carrier with a slow pitch glide, gated into 4Hz syllables
		freq := 220.0 + 40.0*math.Sin(2*math.Pi*0.5*t)
		envelope := 0.5 + 0.5*math.Sin(2*math.Pi*4*t)
		sample := math.Sin(2*math.Pi*freq*t) * envelope * 0.4

		value := int32(sample * float64(audio.Max24Bit))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = value
		}
	}

	s.sampleIndex += uint64(frames)
	return frames * channels, nil
}

func (s *ToneSource) Title() string { return "Synthetic voice" }
func (s *ToneSource) Close() error  { return nil }

// MP3Source reads a looping MP3 file converted to the session format
type MP3Source struct {
	file      *os.File
	decoder   *mp3.Decoder
	format    audio.Format
	resampler *resample.Resampler
	pending   []int32
	title     string
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(filePath string, format audio.Format) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	filename := filepath.Base(filePath)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))

	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Source{
		file:      f,
		decoder:   decoder,
		format:    format,
		resampler: resample.New(decoder.SampleRate(), format.SampleRate, 1),
		title:     title,
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	for len(s.pending) < len(samples) {
		if err := s.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// fill decodes one block, converts it to mono at the target rate and
// appends it to pending. The file loops at EOF.
func (s *MP3Source) fill() error {
	// go-mp3 always yields 16-bit stereo
	buf := make([]byte, 4096)
	n, err := s.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("mp3 read failed: %w", err)
	}

	stereo := make([]int32, n/2)
	for i := range stereo {
		stereo[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}
	mono := s.resampler.Process(resample.Downmix(stereo, 2))
	for _, sample := range mono {
		for ch := 0; ch < s.format.Channels; ch++ {
			s.pending = append(s.pending, sample)
		}
	}

	if err == io.EOF {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		decoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = decoder
		if n == 0 && len(s.pending) == 0 {
			return fmt.Errorf("mp3 file has no audio")
		}
	}
	return nil
}

func (s *MP3Source) Title() string { return s.title }
func (s *MP3Source) Close() error  { return s.file.Close() }

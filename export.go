package chendai

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format selects the export container/codec.
type Format string

const (
	FormatWAV16 Format = "wav16" // uncompressed 16-bit PCM
	FormatWAV24 Format = "wav24" // uncompressed 24-bit PCM
	FormatFLAC  Format = "flac"  // lossless compressed
	FormatOpus  Format = "opus"  // lossy, Ogg container
)

// ParseFormat resolves a user-supplied format name. "wav" is an alias for
// the 16-bit PCM default.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "wav", "wav16":
		return FormatWAV16, nil
	case "wav24":
		return FormatWAV24, nil
	case "flac":
		return FormatFLAC, nil
	case "opus", "ogg":
		return FormatOpus, nil
	}
	return "", &ExportError{Format: name, Err: errors.New("unsupported format")}
}

func (f Format) extension() string {
	switch f {
	case FormatFLAC:
		return ".flac"
	case FormatOpus:
		return ".opus"
	}
	return ".wav"
}

// ExportOptions controls one export call.
type ExportOptions struct {
	Format Format
	// Normalize rescales the master (and stems) so the peak hits Headroom
	// before encoding.
	Normalize bool
	// Headroom is the normalization peak target; 0 means 0.98.
	Headroom float32
	// Stems additionally writes one file per instrument channel.
	Stems bool
}

type (
	// EventMeta is the per-event slice of the result metadata, consumed by
	// the collaborator UI for timeline visualization.
	EventMeta struct {
		Instrument string  `json:"instrument"`
		Category   string  `json:"category"`
		Time       float64 `json:"time"`
		Duration   float64 `json:"duration"`
		Velocity   float32 `json:"velocity"`
	}

	// RenderResult is the immutable outcome of one generation request.
	RenderResult struct {
		MasterPath string            `json:"master"`
		StemPaths  map[string]string `json:"stems,omitempty"`
		Style      string            `json:"style,omitempty"`
		BPM        int               `json:"bpm,omitempty"`
		SampleRate int               `json:"sample_rate"`
		Duration   float64           `json:"duration"`
		Events     []EventMeta       `json:"events"`
	}
)

// MetadataJSON serializes the result for the collaborator UI.
func (r *RenderResult) MetadataJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// Export encodes the master (and optionally the stems) to basePath plus the
// format extension, and writes the result metadata alongside as
// basePath.json. Stems are named deterministically from the instrument id.
// Every file is written atomically: a failed export leaves nothing behind.
func Export(basePath string, master *Buffer, stems map[string]*Buffer, result RenderResult, opts ExportOptions) (*RenderResult, error) {
	if master == nil || master.Frames() == 0 {
		return nil, &ExportError{Format: string(opts.Format), Err: errors.New("empty master buffer, zero events rendered")}
	}
	headroom := opts.Headroom
	if headroom == 0 {
		headroom = 0.98
	}
	encode, err := encoderFor(opts.Format)
	if err != nil {
		return nil, err
	}
	prep := func(b *Buffer) *Buffer {
		if !opts.Normalize {
			return b
		}
		if peak := b.Peak(); peak > 0 {
			scaled := b.Clone()
			scaled.Scale(headroom / peak)
			return scaled
		}
		return b
	}
	ext := opts.Format.extension()
	masterPath := basePath + ext
	data, err := encode(prep(master))
	if err != nil {
		return nil, &ExportError{Format: string(opts.Format), Err: err}
	}
	written := []string{}
	cleanup := func() {
		for _, p := range written {
			os.Remove(p)
		}
	}
	if err := writeFileAtomic(masterPath, data); err != nil {
		return nil, &ExportError{Format: string(opts.Format), Err: err}
	}
	written = append(written, masterPath)

	result.MasterPath = masterPath
	result.SampleRate = SampleRate
	result.Duration = float64(master.Frames()) / SampleRate
	if opts.Stems && len(stems) > 0 {
		result.StemPaths = make(map[string]string, len(stems))
		ids := make([]string, 0, len(stems))
		for id := range stems {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			data, err := encode(prep(stems[id]))
			if err != nil {
				cleanup()
				return nil, &ExportError{Format: string(opts.Format), Err: fmt.Errorf("stem %v: %w", id, err)}
			}
			stemPath := fmt.Sprintf("%s.%s%s", basePath, id, ext)
			if err := writeFileAtomic(stemPath, data); err != nil {
				cleanup()
				return nil, &ExportError{Format: string(opts.Format), Err: fmt.Errorf("stem %v: %w", id, err)}
			}
			written = append(written, stemPath)
			result.StemPaths[id] = stemPath
		}
	}
	meta, err := result.MetadataJSON()
	if err != nil {
		cleanup()
		return nil, &ExportError{Format: string(opts.Format), Err: err}
	}
	if err := writeFileAtomic(basePath+".json", meta); err != nil {
		cleanup()
		return nil, &ExportError{Format: string(opts.Format), Err: err}
	}
	return &result, nil
}

func encoderFor(f Format) (func(*Buffer) ([]byte, error), error) {
	switch f {
	case FormatWAV16:
		return func(b *Buffer) ([]byte, error) { return Wav(b, 16) }, nil
	case FormatWAV24:
		return func(b *Buffer) ([]byte, error) { return Wav(b, 24) }, nil
	case FormatFLAC:
		return Flac, nil
	case FormatOpus:
		return OggOpus, nil
	case "":
		return nil, &ExportError{Err: errors.New("no format given")}
	}
	return nil, &ExportError{Format: string(f), Err: errors.New("unsupported format")}
}

// Wav encodes the buffer as a stereo RIFF WAVE file with 16- or 24-bit
// integer PCM samples.
func Wav(buffer *Buffer, bitDepth int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := wavHeader(buffer.Frames(), bitDepth, buf); err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	if err := pcmToBuffer(buffer.Interleave(), bitDepth, buf); err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	return buf.Bytes(), nil
}

func pcmToBuffer(data []float32, bitDepth int, buf *bytes.Buffer) error {
	switch bitDepth {
	case 16:
		int16data := make([]int16, len(data))
		for i, v := range data {
			int16data[i] = int16(clampInt(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		if err := binary.Write(buf, binary.LittleEndian, int16data); err != nil {
			return fmt.Errorf("could not write PCM data: %w", err)
		}
	case 24:
		for _, v := range data {
			s := clampInt(int(float64(v)*8388607), -8388608, 8388607)
			buf.WriteByte(byte(s))
			buf.WriteByte(byte(s >> 8))
			buf.WriteByte(byte(s >> 16))
		}
	default:
		return fmt.Errorf("unsupported bit depth %v", bitDepth)
	}
	return nil
}

// wavHeader writes a RIFF header for integer PCM audio. The buffer length
// is in stereo frames; sample rate is the fixed project rate.
// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func wavHeader(frames int, bitDepth int, buf *bytes.Buffer) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth %v", bitDepth)
	}
	numChannels := 2
	bytesPerSample := bitDepth / 8
	dataSize := frames * numChannels * bytesPerSample
	buf.Write([]byte("RIFF"))
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(bitDepth))
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	return nil
}

// writeFileAtomic writes via a temp file in the target directory and
// renames into place, so partially written output never appears under the
// final name.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %v: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %v: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into %v: %w", path, err)
	}
	return nil
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

package chendai

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"math"
)

// Flac encodes the buffer as a FLAC stream with 16-bit stereo verbatim
// subframes. Verbatim frames keep the stream byte-for-byte lossless without
// pulling a prediction/rice coder into the engine; any FLAC decoder reads
// them. Container layout per https://xiph.org/flac/format.html
func Flac(buffer *Buffer) ([]byte, error) {
	if buffer.Frames() == 0 {
		return nil, errors.New("empty buffer")
	}
	const blockSize = 4096
	left := quantize16(buffer.L)
	right := quantize16(buffer.R)

	out := new(bytes.Buffer)
	out.Write([]byte("fLaC"))
	writeStreamInfo(out, len(left), blockSize, streamMD5(left, right))

	for start, frame := 0, 0; start < len(left); start, frame = start+blockSize, frame+1 {
		end := start + blockSize
		if end > len(left) {
			end = len(left)
		}
		out.Write(flacFrame(left[start:end], right[start:end], frame))
	}
	return out.Bytes(), nil
}

func quantize16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = int16(clampInt(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
	}
	return out
}

// streamMD5 is the MD5 of the unencoded audio: frames interleaved L,R with
// each sample little-endian.
func streamMD5(left, right []int16) [16]byte {
	h := md5.New()
	var b [4]byte
	for i := range left {
		binary.LittleEndian.PutUint16(b[0:], uint16(left[i]))
		binary.LittleEndian.PutUint16(b[2:], uint16(right[i]))
		h.Write(b[:])
	}
	var sum [16]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeStreamInfo(out *bytes.Buffer, totalSamples, blockSize int, sum [16]byte) {
	// metadata block header: last-block flag set, type 0 (STREAMINFO), length 34
	out.Write([]byte{0x80, 0x00, 0x00, 0x22})
	w := newBitWriter()
	w.writeBits(uint64(blockSize), 16) // min block size
	w.writeBits(uint64(blockSize), 16) // max block size
	w.writeBits(0, 24)                 // min frame size unknown
	w.writeBits(0, 24)                 // max frame size unknown
	w.writeBits(SampleRate, 20)
	w.writeBits(1, 3)  // channels - 1
	w.writeBits(15, 5) // bits per sample - 1
	w.writeBits(uint64(totalSamples), 36)
	out.Write(w.bytes())
	out.Write(sum[:])
}

// flacFrame encodes one fixed-blocksize frame with verbatim subframes.
func flacFrame(left, right []int16, frameNumber int) []byte {
	w := newBitWriter()
	w.writeBits(0x3FFE, 14) // sync code
	w.writeBits(0, 1)       // reserved
	w.writeBits(0, 1)       // fixed block size stream
	w.writeBits(0x7, 4)     // block size: 16-bit value minus 1 follows
	w.writeBits(0x9, 4)     // sample rate: 44.1 kHz
	w.writeBits(0x1, 4)     // channel assignment: independent stereo
	w.writeBits(0x4, 3)     // sample size: 16 bits
	w.writeBits(0, 1)       // reserved
	for _, b := range utf8Coded(uint64(frameNumber)) {
		w.writeBits(uint64(b), 8)
	}
	w.writeBits(uint64(len(left)-1), 16)
	header := w.bytes()
	w.writeBits(uint64(crc8(header)), 8)

	for _, channel := range [2][]int16{left, right} {
		w.writeBits(0, 1) // subframe padding
		w.writeBits(1, 6) // type: verbatim
		w.writeBits(0, 1) // no wasted bits
		for _, s := range channel {
			w.writeBits(uint64(uint16(s)), 16)
		}
	}
	w.align()
	body := w.bytes()
	w.writeBits(uint64(crc16(body)), 16)
	return w.bytes()
}

// utf8Coded applies the extended UTF-8-style number coding FLAC uses for
// frame numbers.
func utf8Coded(n uint64) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x800:
		return []byte{0xC0 | byte(n>>6), 0x80 | byte(n&0x3F)}
	case n < 0x10000:
		return []byte{0xE0 | byte(n>>12), 0x80 | byte(n>>6&0x3F), 0x80 | byte(n&0x3F)}
	case n < 0x200000:
		return []byte{0xF0 | byte(n>>18), 0x80 | byte(n>>12&0x3F), 0x80 | byte(n>>6&0x3F), 0x80 | byte(n&0x3F)}
	case n < 0x4000000:
		return []byte{0xF8 | byte(n>>24), 0x80 | byte(n>>18&0x3F), 0x80 | byte(n>>12&0x3F), 0x80 | byte(n>>6&0x3F), 0x80 | byte(n&0x3F)}
	}
	return []byte{0xFC | byte(n>>30), 0x80 | byte(n>>24&0x3F), 0x80 | byte(n>>18&0x3F), 0x80 | byte(n>>12&0x3F), 0x80 | byte(n>>6&0x3F), 0x80 | byte(n&0x3F)}
}

// bitWriter accumulates MSB-first bit fields, the layout both FLAC and Ogg
// headers want.
type bitWriter struct {
	buf  []byte
	acc  uint64
	bits uint
}

func newBitWriter() *bitWriter { return &bitWriter{} }

func (w *bitWriter) writeBits(v uint64, n uint) {
	w.acc = w.acc<<n | v&(1<<n-1)
	w.bits += n
	for w.bits >= 8 {
		w.bits -= 8
		w.buf = append(w.buf, byte(w.acc>>w.bits))
	}
}

// align pads with zero bits to the next byte boundary.
func (w *bitWriter) align() {
	if w.bits > 0 {
		w.writeBits(0, 8-w.bits)
	}
}

// bytes returns the completed bytes so far; pending partial bytes stay in
// the accumulator.
func (w *bitWriter) bytes() []byte { return w.buf }

var crc8Table = func() (t [256]byte) {
	for i := range t {
		crc := byte(i)
		for b := 0; b < 8; b++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return
}()

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = crc8Table[crc^b]
	}
	return crc
}

var crc16Table = func() (t [256]uint16) {
	for i := range t {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x8005
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return
}()

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}

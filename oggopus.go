package chendai

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gopkg.in/hraban/opus.v2"
)

// Opus runs at a fixed set of rates; the project rate is not one of them,
// so the exporter resamples to 48 kHz before encoding.
const (
	opusRate      = 48000
	opusFrameSize = 960 // samples per channel per 20 ms frame
	opusPreSkip   = 312 // encoder lookahead reported in the Ogg header
)

// OggOpus encodes the buffer as an Ogg Opus file: linear resample to
// 48 kHz, 20 ms Opus frames, hand-framed Ogg pages (the same way the WAV
// and FLAC containers are written in this package). Framing per RFC 7845.
func OggOpus(buffer *Buffer) ([]byte, error) {
	if buffer.Frames() == 0 {
		return nil, errors.New("empty buffer")
	}
	enc, err := opus.NewEncoder(opusRate, 2, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("creating opus encoder: %w", err)
	}
	pcm := resampleTo48k(buffer)
	totalSamples := len(pcm) / 2

	var packets [][]byte
	packetBuf := make([]byte, 4000)
	frame := make([]int16, opusFrameSize*2)
	for start := 0; start < len(pcm); start += len(frame) {
		for i := range frame {
			frame[i] = 0
		}
		copy(frame, pcm[start:])
		n, err := enc.Encode(frame, packetBuf)
		if err != nil {
			return nil, fmt.Errorf("opus encode: %w", err)
		}
		packet := make([]byte, n)
		copy(packet, packetBuf[:n])
		packets = append(packets, packet)
	}

	const serial = 0x63686e64 // arbitrary but fixed stream serial
	out := new(bytes.Buffer)
	seq := uint32(0)
	writePage := func(headerType byte, granule int64, payload ...[]byte) {
		out.Write(oggPage(headerType, granule, serial, seq, payload))
		seq++
	}
	writePage(0x02, 0, opusIDHeader()) // beginning of stream
	writePage(0x00, 0, opusCommentHeader())

	// Audio pages: a handful of packets per page; granule counts decoded
	// 48 kHz samples including pre-skip, exact on the final page so the
	// zero padding of the last frame is trimmed on decode.
	// 40 packets keeps the segment table under 255 entries even at the
	// maximum 1275-byte packet size.
	const packetsPerPage = 40
	decoded := 0
	for start := 0; start < len(packets); start += packetsPerPage {
		end := start + packetsPerPage
		if end > len(packets) {
			end = len(packets)
		}
		decoded += (end - start) * opusFrameSize
		granule := int64(decoded)
		headerType := byte(0)
		if end == len(packets) {
			granule = int64(totalSamples)
			headerType = 0x04 // end of stream
		}
		writePage(headerType, granule+opusPreSkip, packets[start:end]...)
	}
	return out.Bytes(), nil
}

// resampleTo48k converts the project-rate buffer to interleaved 48 kHz
// int16 frames with linear interpolation. Linear is plenty here: the
// content already went through the mastering normalize and opus itself is
// the lossy step.
func resampleTo48k(buffer *Buffer) []int16 {
	inFrames := buffer.Frames()
	outFrames := int(math.Ceil(float64(inFrames) * opusRate / SampleRate))
	out := make([]int16, outFrames*2)
	step := float64(SampleRate) / opusRate
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := float32(pos - float64(j))
		k := j + 1
		if k >= inFrames {
			k = inFrames - 1
		}
		l := buffer.L[j] + (buffer.L[k]-buffer.L[j])*frac
		r := buffer.R[j] + (buffer.R[k]-buffer.R[j])*frac
		out[2*i] = int16(clampInt(int(l*math.MaxInt16), math.MinInt16, math.MaxInt16))
		out[2*i+1] = int16(clampInt(int(r*math.MaxInt16), math.MinInt16, math.MaxInt16))
	}
	return out
}

func opusIDHeader() []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("OpusHead")
	buf.WriteByte(1) // version
	buf.WriteByte(2) // channels
	binary.Write(buf, binary.LittleEndian, uint16(opusPreSkip))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate)) // original input rate
	binary.Write(buf, binary.LittleEndian, int16(0))           // output gain
	buf.WriteByte(0) // channel mapping family
	return buf.Bytes()
}

func opusCommentHeader() []byte {
	const vendor = "chendai"
	buf := new(bytes.Buffer)
	buf.WriteString("OpusTags")
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(0)) // no user comments
	return buf.Bytes()
}

// oggPage frames the given whole packets into one Ogg page.
func oggPage(headerType byte, granule int64, serial, seq uint32, packets [][]byte) []byte {
	var lacing []byte
	for _, p := range packets {
		n := len(p)
		for n >= 255 {
			lacing = append(lacing, 255)
			n -= 255
		}
		lacing = append(lacing, byte(n))
	}
	if len(lacing) > 255 {
		// callers keep packets-per-page small enough; guard anyway
		panic("ogg page segment table overflow")
	}
	buf := new(bytes.Buffer)
	buf.WriteString("OggS")
	buf.WriteByte(0) // stream structure version
	buf.WriteByte(headerType)
	binary.Write(buf, binary.LittleEndian, granule)
	binary.Write(buf, binary.LittleEndian, serial)
	binary.Write(buf, binary.LittleEndian, seq)
	crcPos := buf.Len()
	binary.Write(buf, binary.LittleEndian, uint32(0)) // crc placeholder
	buf.WriteByte(byte(len(lacing)))
	buf.Write(lacing)
	for _, p := range packets {
		buf.Write(p)
	}
	page := buf.Bytes()
	binary.LittleEndian.PutUint32(page[crcPos:], oggCRC(page))
	return page
}

// oggCRC is the Ogg page checksum: CRC-32 with polynomial 0x04C11DB7,
// initial value 0, no reflection, no final xor.
var oggCRCTable = func() (t [256]uint32) {
	for i := range t {
		crc := uint32(i) << 24
		for b := 0; b < 8; b++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return
}()

func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

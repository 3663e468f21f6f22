package physio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// DecodeError reports an .acq container this decoder cannot handle.
// Callers treat it as a per-file condition: log, skip the file, continue
// with the rest of the subject.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
}

// Channel is one recorded signal.
type Channel struct {
	Label   string
	Units   string
	Samples []float64
}

// Recording is a decoded AcqKnowledge file.
type Recording struct {
	// SampleTime is the interval between samples in milliseconds.
	SampleTime float64
	Channels   []Channel
}

// Uncompressed AcqKnowledge layout as written by the scanner suite's
// release. Graph header, then one header per channel, a foreign-data
// section, per-channel sample types, and the interleaved sample stream.
// All integers little-endian.
const (
	graphHeaderMin   = 24
	channelHeaderMin = 84
	maxChannels      = 64

	sampleTypeFloat64 = 1
	sampleTypeInt16   = 2
)

// Decode reads an uncompressed AcqKnowledge file. Containers from other
// AcqKnowledge releases (compressed, different header sizes) yield a
// *DecodeError.
func Decode(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(path, data)
}

func decode(path string, data []byte) (*Recording, error) {
	fail := func(format string, args ...any) (*Recording, error) {
		return nil, &DecodeError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}

	if len(data) < graphHeaderMin {
		return fail("file shorter than graph header")
	}
	itemHeaderLen := int(int16(binary.LittleEndian.Uint16(data[0:2])))
	graphHeaderLen := int(int32(binary.LittleEndian.Uint32(data[6:10])))
	channelCount := int(int16(binary.LittleEndian.Uint16(data[10:12])))
	sampleTime := math.Float64frombits(binary.LittleEndian.Uint64(data[16:24]))

	if itemHeaderLen <= 0 {
		return fail("bad item header length %d", itemHeaderLen)
	}
	if graphHeaderLen < graphHeaderMin || graphHeaderLen > len(data) {
		return fail("bad graph header length %d", graphHeaderLen)
	}
	if channelCount < 1 || channelCount > maxChannels {
		return fail("bad channel count %d", channelCount)
	}
	if sampleTime <= 0 || math.IsNaN(sampleTime) || math.IsInf(sampleTime, 0) {
		return fail("bad sample interval %v", sampleTime)
	}

	rec := &Recording{SampleTime: sampleTime}
	offset := graphHeaderLen
	sampleCounts := make([]int, 0, channelCount)
	voltOffsets := make([]float64, 0, channelCount)
	voltScales := make([]float64, 0, channelCount)
	for i := 0; i < channelCount; i++ {
		if offset+channelHeaderMin > len(data) {
			return fail("truncated header for channel %d", i)
		}
		hdr := data[offset:]
		chanHeaderLen := int(int32(binary.LittleEndian.Uint32(hdr[0:4])))
		if chanHeaderLen < channelHeaderMin || offset+chanHeaderLen > len(data) {
			return fail("bad header length %d for channel %d", chanHeaderLen, i)
		}
		rec.Channels = append(rec.Channels, Channel{
			Label: cString(hdr[4:44]),
			Units: cString(hdr[60:80]),
		})
		voltOffsets = append(voltOffsets, math.Float64frombits(binary.LittleEndian.Uint64(hdr[44:52])))
		voltScales = append(voltScales, math.Float64frombits(binary.LittleEndian.Uint64(hdr[52:60])))
		sampleCounts = append(sampleCounts, int(int32(binary.LittleEndian.Uint32(hdr[80:84]))))
		offset += chanHeaderLen
	}

	// Channels sampled at different rates would interleave unevenly.
	for i, n := range sampleCounts {
		if n < 0 {
			return fail("negative sample count for channel %d", i)
		}
		if n != sampleCounts[0] {
			return fail("uneven channel sample counts %d and %d", sampleCounts[0], n)
		}
	}
	sampleCount := sampleCounts[0]

	if offset+4 > len(data) {
		return fail("truncated foreign data section")
	}
	foreignLen := int(int16(binary.LittleEndian.Uint16(data[offset : offset+2])))
	if foreignLen < 4 || offset+foreignLen > len(data) {
		return fail("bad foreign data length %d", foreignLen)
	}
	offset += foreignLen

	sampleSizes := make([]int, channelCount)
	sampleKinds := make([]int, channelCount)
	for i := 0; i < channelCount; i++ {
		if offset+4 > len(data) {
			return fail("truncated sample type for channel %d", i)
		}
		size := int(int16(binary.LittleEndian.Uint16(data[offset : offset+2])))
		kind := int(int16(binary.LittleEndian.Uint16(data[offset+2 : offset+4])))
		switch kind {
		case sampleTypeFloat64:
			if size != 8 {
				return fail("float channel %d with size %d", i, size)
			}
		case sampleTypeInt16:
			if size != 2 {
				return fail("int channel %d with size %d", i, size)
			}
		default:
			return fail("unsupported sample type %d for channel %d", kind, i)
		}
		sampleSizes[i] = size
		sampleKinds[i] = kind
		offset += 4
	}

	reader := bytes.NewReader(data[offset:])
	for i := range rec.Channels {
		rec.Channels[i].Samples = make([]float64, 0, sampleCount)
	}
	for s := 0; s < sampleCount; s++ {
		for i := range rec.Channels {
			var value float64
			switch sampleKinds[i] {
			case sampleTypeFloat64:
				var v float64
				if err := binary.Read(reader, binary.LittleEndian, &v); err != nil {
					return fail("truncated samples at row %d", s)
				}
				value = v
			case sampleTypeInt16:
				var v int16
				if err := binary.Read(reader, binary.LittleEndian, &v); err != nil {
					return fail("truncated samples at row %d", s)
				}
				value = float64(v)*voltScales[i] + voltOffsets[i]
			}
			rec.Channels[i].Samples = append(rec.Channels[i].Samples, value)
		}
	}
	return rec, nil
}

func cString(raw []byte) string {
	if idx := bytes.IndexByte(raw, 0); idx >= 0 {
		raw = raw[:idx]
	}
	return string(bytes.TrimSpace(raw))
}

package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and parents) with the given content.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TaskLogCSV returns a minimal but complete movies-task event log: one
// trial of every marker pair the extraction tables expect.
func TaskLogCSV() string {
	return `type,stimdescrip,stimtype,timefromstart
isiOnset,None,None,1.0
isiOffset,None,None,2.0
IsiOnset,None,None,3.0
IsiOffset,None,None,4.0
MovieStimOnset,anger_clip.mp4,None,5.0
MovieStimOffset,None,None,10.0
JudgeOnset,None,None,11.0
JudgeResponse,0.85,1correct,11.5
JudgeOffset,None,None,13.0
ReplayOnset,None,None,14.0
ReplayOffset,None,None,16.0
EmoSelOnset,None,None,17.0
EmoSelOffset,anger,None,19.0
IntenSelOnset,None,None,20.0
IntenSelOffset,3,None,22.0
WashStimOnset,wash_img,None,23.0
WashStimOffset,None,None,25.0
`
}

// RestRatingCSV returns a small post-rest rating log.
func RestRatingCSV() string {
	return `type,stimdescrip,stimtype,timefromstart
RatingOnset,AMUSEMENT,None,10.0
RatingResponse,None,3,12.0
RatingOnset,FEAR,None,20.0
RatingResponse,None,None,22.0
`
}

// AcqFixture encodes a one-channel uncompressed AcqKnowledge container
// holding the given samples.
func AcqFixture(t testing.TB, samples []float64) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	write := func(v any) {
		if err := binary.Write(&buf, le, v); err != nil {
			t.Fatal(err)
		}
	}

	const graphHeaderLen = 32
	write(int16(12))             // item header length
	write(int32(84))             // format version
	write(int32(graphHeaderLen)) // graph header length
	write(int16(1))              // channel count
	write(int16(0))              // horizontal axis type
	write(int16(0))              // current channel
	write(float64(0.5))          // ms per sample
	buf.Write(make([]byte, graphHeaderLen-buf.Len()))

	const chanHeaderLen = 84
	write(int32(chanHeaderLen))
	label := make([]byte, 40)
	copy(label, "RSP")
	buf.Write(label)
	write(float64(0)) // volt offset
	write(float64(1)) // volt scale
	units := make([]byte, 20)
	copy(units, "Volts")
	buf.Write(units)
	write(int32(len(samples)))

	write(int16(8)) // foreign data length, header included
	write(int16(0)) // foreign data type
	buf.Write(make([]byte, 4))

	write(int16(8)) // sample size
	write(int16(1)) // float64 samples
	for _, s := range samples {
		write(s)
	}
	return buf.Bytes()
}

package events

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// NA marks a column that does not apply to a trial type. Missing values
// that propagate from the log are written as NaN instead, matching the
// historical output.
const (
	NA  = "n/a"
	NaN = "NaN"
)

// Record is one row of a BIDS events table.
type Record struct {
	Onset        float64
	Duration     float64
	TrialType    string
	StimInfo     string
	Response     string
	ResponseTime string
	Accuracy     string
	Emotion      string
}

// judgeResponseMarker is the side-channel marker type holding judgment
// responses. Its stimtype field carries "<response><accuracy>" and its
// stimdescrip field carries the reaction time as a string.
const judgeResponseMarker = "JudgeResponse"

// Extract builds the full events table for one run: one record per
// onset/offset pair for every trial type in the table, sorted by onset
// ascending. The log and table are never mutated.
func Extract(log *Log, tt TrialTypes) ([]Record, error) {
	var records []Record
	for _, name := range tt.Names() {
		pair, _ := tt.Pair(name)
		typed, err := extractType(log, name, pair)
		if err != nil {
			return nil, err
		}
		records = append(records, typed...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Onset < records[j].Onset
	})
	return records, nil
}

func extractType(log *Log, name string, pair MarkerPair) ([]Record, error) {
	onsets := log.ByType(pair.Onset)
	offsets := log.ByType(pair.Offset)
	if len(onsets) != len(offsets) {
		return nil, fmt.Errorf("trial type %q: %d %s markers but %d %s markers",
			name, len(onsets), pair.Onset, len(offsets), pair.Offset)
	}
	if len(onsets) == 0 {
		return nil, nil
	}

	var judgeRows []Row
	if name == "judge" {
		judgeRows = log.ByType(judgeResponseMarker)
		if len(judgeRows) != len(onsets) {
			return nil, fmt.Errorf("trial type judge: %d onsets but %d %s markers",
				len(onsets), len(judgeRows), judgeResponseMarker)
		}
	}

	records := make([]Record, 0, len(onsets))
	for i := range onsets {
		onset := round2(onsets[i].Time)
		rec := Record{
			Onset:        onset,
			Duration:     round2(offsets[i].Time - onsets[i].Time),
			TrialType:    name,
			StimInfo:     stimInfo(name, onsets[i]),
			Response:     NA,
			ResponseTime: NA,
			Accuracy:     NA,
			Emotion:      NA,
		}

		if name == "movie" || name == "scenario" {
			rec.Emotion = emotionOf(rec.StimInfo)
		}

		switch name {
		case "emotion", "intensity":
			rec.Response = cellOrNaN(offsets[i].Descrip)
			rec.ResponseTime = FormatFloat(round2(offsets[i].Time - onset))
		case "judge":
			response, accuracy := splitJudgeResponse(judgeRows[i].StimType)
			rec.Response = response
			rec.Accuracy = accuracy
			rec.ResponseTime = judgeReactionTime(judgeRows[i].Descrip)
		}

		records = append(records, rec)
	}
	return records, nil
}

// stimInfo resolves the stim_info column: a fixed prompt description for
// response-phase trial types, the logged descriptor for stimulus trial
// types, n/a otherwise.
func stimInfo(name string, onset Row) string {
	switch name {
	case "fixS", "fix":
		return "fixation_cross"
	case "replay":
		return "prompt_replay"
	case "judge":
		return "prompt_in_out"
	case "emotion":
		return "select_emotion"
	case "intensity":
		return "select_intensity"
	case "movie", "scenario", "wash":
		return cellOrNaN(onset.Descrip)
	default:
		return NA
	}
}

// emotionOf recovers the emotion category from a stimulus file name, the
// prefix before the first underscore.
func emotionOf(stimInfo string) string {
	if stimInfo == NaN || stimInfo == NA {
		return NaN
	}
	if idx := strings.IndexByte(stimInfo, '_'); idx >= 0 {
		return stimInfo[:idx]
	}
	return stimInfo
}

// splitJudgeResponse decodes a JudgeResponse stimtype: first character is
// the response, the remainder the accuracy marker. Missing propagates.
func splitJudgeResponse(cell Cell) (response, accuracy string) {
	if !cell.Valid {
		return NaN, NaN
	}
	return cell.Value[:1], cell.Value[1:]
}

func judgeReactionTime(cell Cell) string {
	if !cell.Valid {
		return NaN
	}
	rt, err := cell.Float()
	if err != nil {
		return NaN
	}
	return FormatFloat(round2(rt))
}

func cellOrNaN(cell Cell) string {
	if !cell.Valid {
		return NaN
	}
	return cell.Value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatFloat renders a float the way the events table expects: shortest
// decimal representation, no exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

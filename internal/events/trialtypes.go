package events

import (
	"fmt"

	"bidsbuild/internal/patches"
)

// MarkerPair names the onset and offset marker types bounding a trial.
type MarkerPair struct {
	Onset  string
	Offset string
}

// TrialTypes is an ordered table of trial-type definitions for one task.
type TrialTypes struct {
	names []string
	pairs map[string]MarkerPair
}

// BIDS task strings handled by the extraction tables.
const (
	TaskMovies    = "task-movies"
	TaskScenarios = "task-scenarios"
)

// TrialTypesFor returns the trial-type table for a task, with the wash
// offset patch applied when the subject and session are affected. The
// returned table is a fresh copy on every call.
func TrialTypesFor(task, session, subject string, wash patches.WashTable) (TrialTypes, error) {
	var stim string
	switch task {
	case TaskMovies:
		stim = "movie"
	case TaskScenarios:
		stim = "scenario"
	default:
		return TrialTypes{}, fmt.Errorf("no trial-type table for task %q", task)
	}

	tt := TrialTypes{pairs: map[string]MarkerPair{}}
	add := func(name string, pair MarkerPair) {
		tt.names = append(tt.names, name)
		tt.pairs[name] = pair
	}
	add("fixS", MarkerPair{"isiOnset", "isiOffset"})
	add("fix", MarkerPair{"IsiOnset", "IsiOffset"})
	switch stim {
	case "movie":
		add("movie", MarkerPair{"MovieStimOnset", "MovieStimOffset"})
	case "scenario":
		add("scenario", MarkerPair{"VigOnset", "VigOffset"})
	}
	add("judge", MarkerPair{"JudgeOnset", "JudgeOffset"})
	add("replay", MarkerPair{"ReplayOnset", "ReplayOffset"})
	add("emotion", MarkerPair{"EmoSelOnset", "EmoSelOffset"})
	add("intensity", MarkerPair{"IntenSelOnset", "IntenSelOffset"})
	add("wash", MarkerPair{"WashStimOnset", "WashStimOffset"})

	if offset, ok := wash.NeedsPatch(task, session, subject); ok {
		pair := tt.pairs["wash"]
		pair.Offset = offset
		tt.pairs["wash"] = pair
	}
	return tt, nil
}

// Names returns the trial-type names in table order.
func (t TrialTypes) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// Pair returns the marker pair for a trial-type name.
func (t TrialTypes) Pair(name string) (MarkerPair, bool) {
	pair, ok := t.pairs[name]
	return pair, ok
}

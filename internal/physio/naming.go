package physio

import (
	"fmt"
	"strings"
	"unicode"
)

// BIDSStem derives the BIDS physio filename stem (no extension) for a
// source .acq filename. The run entity comes from the `_run<N>` token;
// a file without one is the resting acquisition.
func BIDSStem(srcName, subject, session, task string) string {
	run, ok := runToken(srcName)
	if !ok {
		task = "task-rest"
		run = "01"
	}
	return fmt.Sprintf("%s_%s_%s_run-%s_recording-biopack_physio", subject, session, task, run)
}

func runToken(name string) (string, bool) {
	idx := strings.Index(name, "_run")
	if idx < 0 {
		return "", false
	}
	rest := name[idx+len("_run"):]
	var digits strings.Builder
	for _, r := range rest {
		if !unicode.IsDigit(r) {
			break
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return "", false
	}
	run := digits.String()
	if len(run) < 2 {
		run = "0" + run
	}
	return run, true
}

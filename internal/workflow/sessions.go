package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrBadSessionDir reports a sourcedata session directory whose name does
// not follow the <dayN>_<movies|scenarios> convention.
var ErrBadSessionDir = errors.New("malformed session directory")

// Session identifies one subject visit and where its raw data lives.
type Session struct {
	// SubID is the bare subject identifier, e.g. ER0009.
	SubID string
	// Subject is the BIDS subject entity, e.g. sub-ER0009.
	Subject string
	// Day is the visit token, e.g. day2.
	Day string
	// Name is the BIDS session entity, e.g. ses-day2.
	Name string
	// Task is the session's BIDS task entity, e.g. task-movies.
	Task string
	// SourceDir is the sourcedata session directory.
	SourceDir string
}

// ParseSessionDir validates a session directory name and splits it into
// the day token and task word.
func ParseSessionDir(name string) (day, taskWord string, err error) {
	parts := strings.Split(name, "_")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrBadSessionDir, name)
	}
	day, taskWord = parts[0], parts[1]
	if len(day) != 4 || !strings.HasPrefix(day, "day") {
		return "", "", fmt.Errorf("%w: bad day token in %q", ErrBadSessionDir, name)
	}
	if taskWord != "movies" && taskWord != "scenarios" {
		return "", "", fmt.Errorf("%w: bad task token in %q", ErrBadSessionDir, name)
	}
	return day, taskWord, nil
}

// DiscoverSubjects lists the subject identifiers present under the
// sourcedata directory, sorted.
func DiscoverSubjects(sourcedata string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(sourcedata, "ER*"))
	if err != nil {
		return nil, err
	}
	var subjects []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			subjects = append(subjects, filepath.Base(path))
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// sessionsOf enumerates a subject's valid sessions and the directory
// names it skipped as malformed.
func sessionsOf(sourcedata, subID string) (sessions []Session, skipped []string, err error) {
	subjectDir := filepath.Join(sourcedata, subID)
	entries, err := os.ReadDir(subjectDir)
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		day, taskWord, err := ParseSessionDir(entry.Name())
		if err != nil {
			skipped = append(skipped, entry.Name())
			continue
		}
		sessions = append(sessions, Session{
			SubID:     subID,
			Subject:   "sub-" + subID,
			Day:       day,
			Name:      "ses-" + day,
			Task:      "task-" + taskWord,
			SourceDir: filepath.Join(subjectDir, entry.Name()),
		})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, skipped, nil
}

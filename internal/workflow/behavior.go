package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"bidsbuild/internal/events"
	"bidsbuild/internal/fileutil"
	"bidsbuild/internal/services"
)

// taskFileTokens maps the session task to the token the scanner task
// embeds in its response-file names.
var taskFileTokens = map[string]string{
	"task-movies":    "scannermovieData",
	"task-scenarios": "scannertextData",
}

// runBehavior builds an events.tsv/.json pair for every task response
// file in the session's Scanner_behav directory.
func (b *Builder) runBehavior(ctx context.Context, sess Session) error {
	files, err := b.behaviorFiles(sess, func(base string) bool {
		return !strings.Contains(base, "Rest")
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrNotFound, "beh", "locate task files",
			"no task response files in "+sess.SourceDir, nil)
	}
	sort.Strings(files)

	funcDir := filepath.Join(b.rawSessionDir(sess), "func")
	for _, path := range files {
		run, err := parseTaskFileName(filepath.Base(path), sess)
		if err != nil {
			return services.Wrap(services.ErrValidation, "beh", "validate filename", err.Error(), nil)
		}
		out := filepath.Join(funcDir,
			fmt.Sprintf("%s_%s_%s_run-%s_events.tsv", sess.Subject, sess.Name, sess.Task, run))
		if fileutil.Exists(out) {
			continue
		}

		records, err := b.extractEvents(path, sess)
		if err != nil {
			return err
		}
		if err := fileutil.EnsureDir(funcDir); err != nil {
			return err
		}
		if err := events.WriteTSV(records, out); err != nil {
			return err
		}
		if _, err := events.WriteSidecar(sess.Task, out); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) extractEvents(path string, sess Session) ([]events.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log, err := events.ParseLog(f)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "beh", "parse event log",
			filepath.Base(path), err)
	}
	tables, err := events.TrialTypesFor(sess.Task, sess.Name, sess.SubID, b.tables.Wash)
	if err != nil {
		return nil, err
	}
	records, err := events.Extract(log, tables)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "beh", "extract events",
			filepath.Base(path), err)
	}
	return records, nil
}

// runRestRatings builds the post-rest rating TSV from the session's
// RestRating file.
func (b *Builder) runRestRatings(ctx context.Context, sess Session) error {
	files, err := b.behaviorFiles(sess, func(base string) bool {
		return strings.Contains(base, "RestRating")
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return services.Wrap(services.ErrNotFound, "rate", "locate rating files",
			"no rest-rating files in "+sess.SourceDir, nil)
	}
	// Duplicated exports happen when the scanner task is restarted; with
	// more than two there is no way to pick, so leave it for curation.
	if len(files) > 2 {
		return services.Wrap(services.ErrNotFound, "rate", "locate rating files",
			fmt.Sprintf("%d rest-rating files, expected at most 2", len(files)), nil)
	}
	sort.Strings(files)

	behDir := filepath.Join(b.rawSessionDir(sess), "beh")
	for _, path := range files {
		date, err := parseRestFileName(filepath.Base(path), sess)
		if err != nil {
			return services.Wrap(services.ErrValidation, "rate", "validate filename", err.Error(), nil)
		}
		out := filepath.Join(behDir,
			fmt.Sprintf("%s_%s_rest-ratings_%s.tsv", sess.Subject, sess.Name, date))
		if fileutil.Exists(out) {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		log, err := events.ParseLog(f)
		closeErr := f.Close()
		if err != nil {
			return services.Wrap(services.ErrValidation, "rate", "parse rating log",
				filepath.Base(path), err)
		}
		if closeErr != nil {
			return closeErr
		}
		ratings, err := events.ExtractRatings(log)
		if err != nil {
			return services.Wrap(services.ErrValidation, "rate", "extract ratings",
				filepath.Base(path), err)
		}
		if err := fileutil.EnsureDir(behDir); err != nil {
			return err
		}
		if err := events.WriteRatingsTSV(ratings, out); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) behaviorFiles(sess Session, keep func(string) bool) ([]string, error) {
	behDir := filepath.Join(sess.SourceDir, "Scanner_behav")
	if !fileutil.Exists(behDir) {
		return nil, services.Wrap(services.ErrNotFound, "beh", "locate Scanner_behav",
			"no Scanner_behav directory in "+sess.SourceDir, nil)
	}
	matches, err := filepath.Glob(filepath.Join(behDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, path := range matches {
		if keep(filepath.Base(path)) {
			files = append(files, path)
		}
	}
	return files, nil
}

// parseTaskFileName checks a task response filename against the session
// and returns its zero-padded run token. Expected shape:
// <study>_<scannermovieData|scannertextData>_<subid>_<sesday>_<runN>_<MMDDYYYY>.csv
func parseTaskFileName(base string, sess Session) (string, error) {
	fields := strings.Split(strings.TrimSuffix(base, ".csv"), "_")
	if len(fields) != 6 {
		return "", fmt.Errorf("task file %q: expected 6 underscore fields, got %d", base, len(fields))
	}
	if want := taskFileTokens[sess.Task]; fields[1] != want {
		return "", fmt.Errorf("task file %q does not match session task %s", base, sess.Task)
	}
	if fields[2] != sess.SubID {
		return "", fmt.Errorf("task file %q does not belong to subject %s", base, sess.SubID)
	}
	if !strings.Contains(fields[3], sess.Day) {
		return "", fmt.Errorf("task file %q does not belong to session %s", base, sess.Name)
	}
	run := digitsAfter(fields[4], "run")
	if run == "" {
		return "", fmt.Errorf("task file %q has no run token", base)
	}
	if len(run) < 2 {
		run = "0" + run
	}
	return run, nil
}

// parseRestFileName checks a rest-rating filename against the session and
// returns its acquisition date reformatted as YYYY-MM-DD. Expected shape:
// <study>_<RestRatingData>_<subid>_<sesday>_<MMDDYYYY>.csv
func parseRestFileName(base string, sess Session) (string, error) {
	fields := strings.Split(strings.TrimSuffix(base, ".csv"), "_")
	if len(fields) != 5 {
		return "", fmt.Errorf("rating file %q: expected 5 underscore fields, got %d", base, len(fields))
	}
	if fields[2] != sess.SubID {
		return "", fmt.Errorf("rating file %q does not belong to subject %s", base, sess.SubID)
	}
	if !strings.Contains(fields[3], sess.Day) {
		return "", fmt.Errorf("rating file %q does not belong to session %s", base, sess.Name)
	}
	acquired, err := time.Parse("01022006", fields[4])
	if err != nil {
		return "", fmt.Errorf("rating file %q: bad date field %q", base, fields[4])
	}
	return acquired.Format("2006-01-02"), nil
}

func digitsAfter(s, prefix string) string {
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(prefix):]
	var out strings.Builder
	for _, r := range rest {
		if !unicode.IsDigit(r) {
			break
		}
		out.WriteRune(r)
	}
	return out.String()
}

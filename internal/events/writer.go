package events

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var eventColumns = []string{
	"onset",
	"duration",
	"trial_type",
	"stim_info",
	"response",
	"response_time",
	"accuracy",
	"emotion",
}

// WriteTSV writes the events table to path in BIDS events.tsv form.
func WriteTSV(records []Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(strings.Join(eventColumns, "\t") + "\n"); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			FormatFloat(rec.Onset),
			FormatFloat(rec.Duration),
			rec.TrialType,
			rec.StimInfo,
			rec.Response,
			rec.ResponseTime,
			rec.Accuracy,
			rec.Emotion,
		}
		if _, err := w.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write events tsv %s: %w", path, err)
	}
	return file.Close()
}

package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Cell is one CSV field that may be missing. The presentation program
// writes "None" for absent values; empty fields occur in truncated rows.
type Cell struct {
	Value string
	Valid bool
}

// Float parses the cell as a float64.
func (c Cell) Float() (float64, error) {
	if !c.Valid {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float %q: %w", c.Value, err)
	}
	return v, nil
}

// Row is one logged marker occurrence within a task run.
type Row struct {
	// Time is seconds from run start.
	Time float64
	// Type is the marker type, e.g. "JudgeOnset".
	Type string
	// Descrip is the stimulus descriptor column (stimdescrip). For
	// JudgeResponse rows it holds the reaction time as a string, a quirk
	// of the logging convention.
	Descrip Cell
	// StimType is the stimtype column; holds the raw response for
	// JudgeResponse and RatingResponse rows.
	StimType Cell
}

// Log is a parsed task event log.
type Log struct {
	Rows []Row
}

// Column headers of the presentation program's CSV output.
const (
	colTime     = "timefromstart"
	colType     = "type"
	colDescrip  = "stimdescrip"
	colStimType = "stimtype"
)

// ReadLog parses a task event log CSV from disk.
func ReadLog(path string) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	log, err := ParseLog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return log, nil
}

// ParseLog parses a task event log CSV.
func ParseLog(r io.Reader) (*Log, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colTime, colType} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("event log missing %q column", required)
		}
	}

	log := &Log{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		typeCell := field(record, cols, colType)
		if !typeCell.Valid {
			continue
		}
		timeCell := field(record, cols, colTime)
		timestamp, err := timeCell.Float()
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", line, colTime, err)
		}

		log.Rows = append(log.Rows, Row{
			Time:     timestamp,
			Type:     typeCell.Value,
			Descrip:  field(record, cols, colDescrip),
			StimType: field(record, cols, colStimType),
		})
	}
	return log, nil
}

// ByType returns the rows whose marker type equals markerType, in log
// order.
func (l *Log) ByType(markerType string) []Row {
	var rows []Row
	for _, row := range l.Rows {
		if row.Type == markerType {
			rows = append(rows, row)
		}
	}
	return rows
}

func field(record []string, cols map[string]int, name string) Cell {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return Cell{}
	}
	value := strings.TrimSpace(record[idx])
	if value == "" || value == "None" || value == "none" {
		return Cell{}
	}
	return Cell{Value: value, Valid: true}
}

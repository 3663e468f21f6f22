package physio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// WriteSignalTSV writes the recording's sample matrix as headerless
// tab-separated text, one row per sample and one column per channel,
// values fixed to 6 decimals.
func WriteSignalTSV(rec *Recording, path string) error {
	if len(rec.Channels) == 0 {
		return fmt.Errorf("write %s: recording has no channels", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows := len(rec.Channels[0].Samples)
	for r := 0; r < rows; r++ {
		for c, ch := range rec.Channels {
			if c > 0 {
				if err := w.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(strconv.FormatFloat(ch.Samples[r], 'f', 6, 64)); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

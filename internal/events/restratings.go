package events

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Rating is one post-rest prompt/response pair.
type Rating struct {
	Prompt string
	// RespInt is the numeric response as logged; "88" marks no response.
	RespInt string
	// RespAlpha is the English label for RespInt.
	RespAlpha string
}

// Marker types of the rest-rating log.
const (
	ratingOnsetMarker    = "RatingOnset"
	ratingResponseMarker = "RatingResponse"
)

// noResponse is the numeric code recorded when the participant made no
// endorsement before the prompt timed out.
const noResponse = "88"

var ratingLabels = map[string]string{
	"1":        "Not At All",
	"2":        "Slightly",
	"3":        "Moderately",
	"4":        "Very",
	noResponse: "NR",
}

// ExtractRatings pairs RatingOnset prompts with RatingResponse responses
// and returns the rows of the rest-ratings table, sorted by prompt.
func ExtractRatings(log *Log) ([]Rating, error) {
	prompts := log.ByType(ratingOnsetMarker)
	responses := log.ByType(ratingResponseMarker)
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no %s markers in rest-rating log", ratingOnsetMarker)
	}
	if len(prompts) != len(responses) {
		return nil, fmt.Errorf("%d %s markers but %d %s markers",
			len(prompts), ratingOnsetMarker, len(responses), ratingResponseMarker)
	}

	ratings := make([]Rating, 0, len(prompts))
	for i := range prompts {
		respInt := noResponse
		if responses[i].StimType.Valid {
			respInt = responses[i].StimType.Value
		}
		label, ok := ratingLabels[respInt]
		if !ok {
			return nil, fmt.Errorf("unexpected rest-rating response %q", respInt)
		}
		ratings = append(ratings, Rating{
			Prompt:    cellOrNaN(prompts[i].Descrip),
			RespInt:   respInt,
			RespAlpha: label,
		})
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Prompt < ratings[j].Prompt
	})
	return ratings, nil
}

// WriteRatingsTSV writes the rest-ratings table to path.
func WriteRatingsTSV(ratings []Rating, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(strings.Join([]string{"prompt", "resp_int", "resp_alpha"}, "\t") + "\n"); err != nil {
		return err
	}
	for _, rating := range ratings {
		if _, err := w.WriteString(rating.Prompt + "\t" + rating.RespInt + "\t" + rating.RespAlpha + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write rest ratings %s: %w", path, err)
	}
	return file.Close()
}

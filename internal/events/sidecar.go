package events

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// column describes one events.tsv column for the JSON sidecar.
type column struct {
	LongName    string            `json:"LongName"`
	Description string            `json:"Description"`
	Levels      map[string]string `json:"Levels,omitempty"`
}

// Sidecar builds the events.json column descriptions for a task.
func Sidecar(task string) map[string]column {
	trialLevels := map[string]string{
		"fixS":      "Start, end fixations",
		"fix":       "Fixation cross",
		"judge":     "Indoor, outdoor judgment",
		"replay":    "Mentally replay stimulus",
		"emotion":   "Decide which emotion describes the stimulus",
		"intensity": "Decide emotional intensity level of stimulus",
		"wash":      "A colored masking image",
	}
	switch task {
	case TaskMovies:
		trialLevels["movie"] = "Movie clip of emotional event"
	case TaskScenarios:
		trialLevels["scenario"] = "Vignette of emotional event"
	}

	taskLabel := task
	if idx := strings.IndexByte(task, '-'); idx >= 0 {
		taskLabel = task[idx+1:]
	}

	return map[string]column{
		"trial_type": {
			LongName:    fmt.Sprintf("Emotion Task with %s", taskLabel),
			Description: "Indicator of stimulus or reponse type",
			Levels:      trialLevels,
		},
		"stim_info": {
			LongName:    "Short description of stimulus",
			Description: "Indicator of screen prompt or stimulus presented",
			Levels: map[string]string{
				"fixation_cross":   "Fixation Cross",
				"prompt_replay":    "Prompt to replay stimulus",
				"prompt_in_out":    "Prompt to make indoor, outdoor judgment",
				"select_emotion":   "Prompt to select emotion from list",
				"select_intensity": "Prompt to specify emotion intensity",
				"file name":        "File used in stimulus generation",
			},
		},
		"response": {
			LongName:    "Response made by participant",
			Description: "Captured response of participant",
			Levels: map[string]string{
				"numeric": "Indoor/outdoor judgment or intensity rating",
				"alpha":   "Emotion selected from list",
			},
		},
		"accuracy": {
			LongName:    "Accuracy of participant response",
			Description: "Whether response was correct",
			Levels: map[string]string{
				"correct": "Response was correct",
				"wrong":   "Response was incorrect",
			},
		},
		"emotion": {
			LongName:    "Emotion category of stimulus",
			Description: "Intended emotion the movie or scenario was designed to elicit",
		},
	}
}

// WriteSidecar writes the events.json sidecar beside an events.tsv.
func WriteSidecar(task, tsvPath string) (string, error) {
	jsonPath := strings.TrimSuffix(tsvPath, ".tsv") + ".json"
	data, err := json.Marshal(Sidecar(task))
	if err != nil {
		return "", fmt.Errorf("marshal events sidecar: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", err
	}
	return jsonPath, nil
}

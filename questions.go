package main

import (
	"encoding/json"
	"os"
)

const (
	questionChoice = "choice"
	questionText   = "text"
)

// Question is a single entry of the question bank, immutable once loaded.
type Question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // "choice" or "text"
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

// Points is derived from the question type rather than stored: multiple
// choice is worth 1, free text 2.
func (q *Question) Points() int {
	if q.Type == questionChoice {
		return 1
	}
	return 2
}

// Audio cue filenames: "<id>-1.mp3" plays when the question is asked,
// "<id>-2.mp3" when the answer is revealed. Resolving them to actual files
// is the media route's problem.
func (q *Question) AskCue() string {
	return q.ID + "-1.mp3"
}

func (q *Question) RevealCue() string {
	return q.ID + "-2.mp3"
}

// loadQuestions reads the question bank from disk. A missing or malformed
// bank yields an empty slice; the game then ends as soon as it is advanced,
// rather than failing the process.
func loadQuestions(cfg *Config) []Question {
	data, err := os.ReadFile(cfg.questions)
	if err != nil {
		logf(cfg, "GAME: Unable to read question bank %s: %v", cfg.questions, err)
		return nil
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		logf(cfg, "GAME: Unable to parse question bank %s: %v", cfg.questions, err)
		return nil
	}

	return questions
}

package main

// Messages coming from clients
type ClientMessage struct {
	Type   string `json:"type"`             // "join", "submit_answer", plus host console actions
	Name   string `json:"name,omitempty"`   // join
	Answer string `json:"answer,omitempty"` // submit_answer
	Target string `json:"target,omitempty"` // give_point / take_point (player connection id)
}

// SimpleMessage is for bare notifications ("allow_answers", "game_reset",
// "vip_can_advance").
type SimpleMessage struct {
	Type string `json:"type"`
}

// QuestionView is the player-facing projection of a question. The correct
// answer is deliberately absent.
type QuestionView struct {
	Type          string   `json:"type"` // "choice" or "text"
	Options       []string `json:"options,omitempty"`
	Question      string   `json:"question"`
	Index         int      `json:"index"` // 1-based display index
	Points        int      `json:"points"`
	InputsEnabled bool     `json:"inputs_enabled"`
}

// GameStatusMessage is the snapshot a player receives on joining, so a
// reconnecting client lands in the current phase.
type GameStatusMessage struct {
	Type     string        `json:"type"` // "game_status"
	State    string        `json:"state"`
	Question *QuestionView `json:"question_data,omitempty"`
	Final    *FinalResults `json:"final_results,omitempty"`
}

type NewQuestionMessage struct {
	Type     string       `json:"type"` // "new_question"
	Question QuestionView `json:"question"`
}

// TimerMessage starts the client-side countdown once everyone has answered.
type TimerMessage struct {
	Type    string `json:"type"` // "start_timer"
	Seconds int    `json:"seconds"`
}

type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type ShowAnswerMessage struct {
	Type        string         `json:"type"` // "show_answer"
	Answer      string         `json:"answer"`
	Deltas      map[string]int `json:"deltas"` // display name -> points earned this round
	Leaderboard []ScoreEntry   `json:"leaderboard"`
}

type FinalResults struct {
	Leaderboard []ScoreEntry `json:"leaderboard"`
	Winners     []ScoreEntry `json:"winners"`
}

type GameOverMessage struct {
	Type  string        `json:"type"` // "game_over"
	Final *FinalResults `json:"final_results"`
}

// VIPStatusMessage tells a player whether they currently hold question
// advancement rights.
type VIPStatusMessage struct {
	Type  string `json:"type"` // "vip_status"
	IsVIP bool   `json:"is_vip"`
}

// PlayAudioMessage asks the host console to play an audio cue.
type PlayAudioMessage struct {
	Type string `json:"type"` // "play_audio"
	File string `json:"file"`
}

type RoundResult struct {
	Name    string `json:"name"`
	Answer  string `json:"answer"` // the submitted text, or a placeholder
	Correct bool   `json:"is_correct"`
}

type RoundResultsMessage struct {
	Type    string        `json:"type"` // "round_results"
	Results []RoundResult `json:"results"`
}

// AdminPlayer is the host console's view of one player; ID is the connection
// id used to target manual score adjustments.
type AdminPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	HasAnswered bool   `json:"has_answered"`
}

// QuestionStatus marks each bank entry as done, current or waiting.
type QuestionStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// AdminUpdateMessage is the full status snapshot pushed to the host console
// after every state change.
type AdminUpdateMessage struct {
	Type         string           `json:"type"` // "admin_update"
	Players      []AdminPlayer    `json:"players"`
	Questions    []QuestionStatus `json:"questions"`
	GameActive   bool             `json:"game_active"`
	CurrentIndex int              `json:"current_index"`
	Phase        string           `json:"phase"`
	Current      *Question        `json:"current_question,omitempty"`
	Final        *FinalResults    `json:"final_results,omitempty"`
}

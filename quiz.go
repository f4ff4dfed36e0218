// Music quiz session
//
// One authoritative game session shared by every connection. Players join
// with a display name; a password-gated host console drives the quiz, playing
// an audio clip per question, opening answer inputs when the clip ends, and
// revealing answers manually or via the automatic countdown that fires once
// every player has answered.
//
// Features:
// - Single session per process, reset only by the host starting a new game
// - Phases: idle → question → answer → ... → finished
// - Multiple choice questions score 1 point, free text 2
// - Free text answers compare after punctuation/case normalization
// - Reconnecting under the same display name resumes the previous score
// - Host can hand out and revoke points manually at any time
// - Optional VIP mode: the first joined player may advance questions
// - Audio cues named "<question id>-1.mp3" (ask) and "<id>-2.mp3" (reveal)

package main

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type gamePhase string

const (
	phaseIdle     gamePhase = "idle"
	phaseQuestion gamePhase = "question"
	phaseAnswer   gamePhase = "answer"
	phaseFinished gamePhase = "finished"
)

// Player holds the data we store server-side. A nil LastAnswer means the
// player has not answered the current question.
type Player struct {
	Name       string
	Score      int
	LastAnswer *string
	JoinedAt   time.Time
}

type clientEvent struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	cfg *Config

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	joins    chan clientEvent
	answers  chan clientEvent
	control  chan clientEvent

	mu sync.Mutex

	gameID        string
	active        bool
	phase         gamePhase
	questions     []Question
	current       int // -1 before the first question
	inputsEnabled bool
	players       map[string]*Player // connection id -> player
	names         map[string]string  // display name -> connection id
	vipID         string             // connection id of the VIP player, if any
	final         *FinalResults

	revealTimer *time.Timer
}

func newHub(cfg *Config) *Hub {
	return &Hub{
		cfg:      cfg,
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		joins:    make(chan clientEvent),
		answers:  make(chan clientEvent),
		control:  make(chan clientEvent),
		phase:    phaseIdle,
		current:  -1,
		players:  make(map[string]*Player),
		names:    make(map[string]string),
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			h.handleUnregister(c)

		case ev := <-h.joins:
			h.handleJoin(ev)

		case ev := <-h.answers:
			h.handleAnswer(ev)

		case ev := <-h.control:
			h.handleControl(ev)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = true

	if c.admin {
		h.broadcastAdminLocked()
	} else {
		h.sendLocked(c, h.clientStateLocked())
	}
}

func (h *Hub) handleUnregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}

	// Scores survive disconnects; the player record stays so the same name
	// can resume it later. Only the VIP role moves on.
	if h.cfg.vip && !c.admin && c.id == h.vipID {
		h.transferVIPLocked()
	}

	h.broadcastAdminLocked()
}

// handleJoin registers a display name for a player connection. Joining under
// an already-used name transfers that name's score (and VIP role, if held) to
// the new connection.
func (h *Hub) handleJoin(ev clientEvent) {
	c := ev.client
	name := strings.TrimSpace(ev.msg.Name)
	if name == "" || c.admin {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	score := 0
	wasVIP := false
	if oldID, ok := h.names[name]; ok {
		if old, found := h.players[oldID]; found {
			score = old.Score
			delete(h.players, oldID)
		}
		wasVIP = h.cfg.vip && h.vipID == oldID
	}

	h.players[c.id] = &Player{
		Name:     name,
		Score:    score,
		JoinedAt: time.Now(),
	}
	h.names[name] = c.id

	if h.cfg.vip && (wasVIP || h.vipID == "") {
		h.vipID = c.id
		h.sendLocked(c, VIPStatusMessage{Type: "vip_status", IsVIP: true})
	}

	logf(h.cfg, "GAME: Player %q joined as %s", name, c.id)

	h.sendLocked(c, h.clientStateLocked())
	h.broadcastAdminLocked()
}

// handleAnswer records a player's answer verbatim. Once every registered
// player has answered, inputs close and the reveal countdown is armed.
func (h *Hub) handleAnswer(ev clientEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active || h.phase != phaseQuestion || !h.inputsEnabled {
		return
	}

	p, ok := h.players[ev.client.id]
	if !ok {
		return
	}

	answer := ev.msg.Answer
	p.LastAnswer = &answer

	h.broadcastAdminLocked()

	for _, pl := range h.players {
		if pl.LastAnswer == nil {
			return
		}
	}

	h.inputsEnabled = false
	h.broadcastPlayersLocked(TimerMessage{
		Type:    "start_timer",
		Seconds: int(h.cfg.revealDelay / time.Second),
	})
	h.armRevealLocked()
}

// handleControl processes host console actions. A VIP player may advance
// questions when delegation is enabled; anything else from a non-host
// connection is silently ignored.
func (h *Hub) handleControl(ev clientEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := ev.client
	msg := ev.msg

	if !c.admin {
		if !(h.cfg.vip && c.id == h.vipID && msg.Type == "next_question") {
			return
		}
	}

	switch msg.Type {
	case "start_game":
		h.startGameLocked()
	case "next_question":
		h.nextQuestionLocked()
	case "audio_finished":
		h.audioFinishedLocked()
	case "repeat_question":
		h.repeatQuestionLocked(c)
	case "show_answer":
		h.revealLocked()
	case "end_game":
		h.endGameLocked()
	case "give_point":
		h.adjustScoreLocked(msg.Target, 1)
	case "take_point":
		h.adjustScoreLocked(msg.Target, -1)
	}
}

// startGameLocked resets the session: new game id, freshly loaded question
// bank, no players, no VIP.
func (h *Hub) startGameLocked() {
	h.cancelRevealLocked()

	h.gameID = uuid.NewString()
	h.questions = loadQuestions(h.cfg)
	h.current = -1
	h.active = true
	h.phase = phaseIdle
	h.inputsEnabled = false
	h.final = nil
	h.players = make(map[string]*Player)
	h.names = make(map[string]string)
	h.vipID = ""

	logf(h.cfg, "GAME: Started game %s with %d questions", h.gameID, len(h.questions))

	h.broadcastPlayersLocked(SimpleMessage{Type: "game_reset"})
	h.broadcastAdminLocked()
}

// nextQuestionLocked advances the question cursor, or ends the game once the
// bank is exhausted. Inputs stay closed until the host reports the question
// audio has finished.
func (h *Hub) nextQuestionLocked() {
	if !h.active {
		return
	}

	h.cancelRevealLocked()
	h.current++

	if h.current >= len(h.questions) {
		h.endGameLocked()
		return
	}

	h.phase = phaseQuestion
	h.inputsEnabled = false
	for _, p := range h.players {
		p.LastAnswer = nil
	}

	q := &h.questions[h.current]

	logf(h.cfg, "GAME: Question %d/%d (%s)", h.current+1, len(h.questions), q.Type)

	h.broadcastPlayersLocked(NewQuestionMessage{
		Type:     "new_question",
		Question: *h.questionViewLocked(),
	})
	h.broadcastAdminsLocked(PlayAudioMessage{Type: "play_audio", File: q.AskCue()})
	h.broadcastAdminLocked()
}

func (h *Hub) audioFinishedLocked() {
	switch {
	case h.active && h.phase == phaseQuestion:
		h.inputsEnabled = true
		h.broadcastPlayersLocked(SimpleMessage{Type: "allow_answers"})
	case h.cfg.vip && h.phase == phaseAnswer:
		h.broadcastPlayersLocked(SimpleMessage{Type: "vip_can_advance"})
	}
}

// repeatQuestionLocked replays the current question's audio cue on the
// requesting console without touching any state.
func (h *Hub) repeatQuestionLocked(c *Client) {
	if h.current < 0 || h.current >= len(h.questions) {
		return
	}
	h.sendLocked(c, PlayAudioMessage{Type: "play_audio", File: h.questions[h.current].AskCue()})
}

// armRevealLocked schedules the automatic reveal. The callback re-checks that
// the same question of the same game is still open, so a stale timer firing
// after a manual reveal or restart degrades to a no-op.
func (h *Hub) armRevealLocked() {
	h.cancelRevealLocked()

	gameID := h.gameID
	index := h.current

	h.revealTimer = time.AfterFunc(h.cfg.revealDelay, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.gameID != gameID || h.current != index || h.phase != phaseQuestion {
			return
		}
		h.revealLocked()
	})
}

func (h *Hub) cancelRevealLocked() {
	if h.revealTimer != nil {
		h.revealTimer.Stop()
		h.revealTimer = nil
	}
}

// revealLocked transitions question → answer, scores every player and fans
// out the results. It is a no-op outside the question phase, which makes the
// manual and timer paths safe to race.
func (h *Hub) revealLocked() {
	if h.phase != phaseQuestion {
		return
	}
	if h.current < 0 || h.current >= len(h.questions) {
		return
	}

	h.phase = phaseAnswer
	h.inputsEnabled = false
	h.cancelRevealLocked()

	q := &h.questions[h.current]
	correctNorm := normalizeAnswer(q.Answer)
	points := q.Points()

	deltas := make(map[string]int, len(h.players))
	results := make([]RoundResult, 0, len(h.players))

	for _, p := range h.playersByJoinLocked() {
		submitted := ""
		if p.LastAnswer != nil {
			submitted = *p.LastAnswer
		}

		correct := false
		if submitted != "" {
			if q.Type == questionChoice {
				correct = submitted == q.Answer
			} else {
				correct = normalizeAnswer(submitted) == correctNorm
			}
		}

		earned := 0
		if correct {
			earned = points
			p.Score += earned
		}

		deltas[p.Name] = earned

		display := submitted
		if display == "" {
			display = "—"
		}
		results = append(results, RoundResult{Name: p.Name, Answer: display, Correct: correct})
	}

	logf(h.cfg, "GAME: Revealed answer for question %d", h.current+1)

	h.broadcastPlayersLocked(ShowAnswerMessage{
		Type:        "show_answer",
		Answer:      q.Answer,
		Deltas:      deltas,
		Leaderboard: h.leaderboardLocked(),
	})
	h.broadcastAdminsLocked(PlayAudioMessage{Type: "play_audio", File: q.RevealCue()})
	h.broadcastAdminsLocked(RoundResultsMessage{Type: "round_results", Results: results})
	h.broadcastAdminLocked()
}

// endGameLocked finishes the session and snapshots the final leaderboard.
// Every player tied for the highest score is a winner.
func (h *Hub) endGameLocked() {
	h.cancelRevealLocked()

	h.active = false
	h.phase = phaseFinished
	h.inputsEnabled = false

	leaderboard := h.leaderboardLocked()
	winners := make([]ScoreEntry, 0, 1)
	if len(leaderboard) > 0 {
		top := leaderboard[0].Score
		for _, entry := range leaderboard {
			if entry.Score == top {
				winners = append(winners, entry)
			}
		}
	}

	h.final = &FinalResults{
		Leaderboard: leaderboard,
		Winners:     winners,
	}

	logf(h.cfg, "GAME: Game %s over, %d winner(s)", h.gameID, len(winners))

	h.broadcastAllLocked(GameOverMessage{Type: "game_over", Final: h.final})
	h.broadcastAdminLocked()
}

// adjustScoreLocked applies a manual ±1 from the host console. No floor;
// scores may go negative.
func (h *Hub) adjustScoreLocked(id string, delta int) {
	p, ok := h.players[id]
	if !ok {
		return
	}
	p.Score += delta
	h.broadcastAdminLocked()
}

// transferVIPLocked hands the VIP role to the connected player with the
// earliest join time, or clears it when nobody is left.
func (h *Hub) transferVIPLocked() {
	h.vipID = ""

	var next *Client
	var nextJoined time.Time
	for cl := range h.clients {
		if cl.admin {
			continue
		}
		p, ok := h.players[cl.id]
		if !ok {
			continue
		}
		if next == nil || p.JoinedAt.Before(nextJoined) {
			next = cl
			nextJoined = p.JoinedAt
		}
	}

	if next == nil {
		return
	}

	h.vipID = next.id
	h.sendLocked(next, VIPStatusMessage{Type: "vip_status", IsVIP: true})
}

func (h *Hub) playersByJoinLocked() []*Player {
	out := make([]*Player, 0, len(h.players))
	for _, p := range h.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// leaderboardLocked sorts by descending score; ties keep join order.
func (h *Hub) leaderboardLocked() []ScoreEntry {
	players := h.playersByJoinLocked()

	entries := make([]ScoreEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, ScoreEntry{Name: p.Name, Score: p.Score})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	return entries
}

func (h *Hub) questionViewLocked() *QuestionView {
	q := &h.questions[h.current]
	return &QuestionView{
		Type:          q.Type,
		Options:       q.Options,
		Question:      q.Question,
		Index:         h.current + 1,
		Points:        q.Points(),
		InputsEnabled: h.inputsEnabled,
	}
}

// clientStateLocked builds the snapshot a player needs to render the current
// phase from scratch.
func (h *Hub) clientStateLocked() GameStatusMessage {
	if h.phase == phaseFinished && h.final != nil {
		return GameStatusMessage{Type: "game_status", State: string(phaseFinished), Final: h.final}
	}
	if !h.active {
		return GameStatusMessage{Type: "game_status", State: string(phaseIdle)}
	}

	msg := GameStatusMessage{Type: "game_status", State: string(h.phase)}
	if (h.phase == phaseQuestion || h.phase == phaseAnswer) && h.current >= 0 && h.current < len(h.questions) {
		msg.Question = h.questionViewLocked()
	}
	return msg
}

// broadcastAdminLocked pushes the full status snapshot to every host console.
func (h *Hub) broadcastAdminLocked() {
	players := make([]AdminPlayer, 0, len(h.players))
	for id, p := range h.players {
		players = append(players, AdminPlayer{
			ID:          id,
			Name:        p.Name,
			Score:       p.Score,
			HasAnswered: p.LastAnswer != nil,
		})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Name < players[j].Name
	})

	statuses := make([]QuestionStatus, 0, len(h.questions))
	for i := range h.questions {
		status := "waiting"
		switch {
		case i < h.current:
			status = "done"
		case i == h.current:
			status = "current"
		}
		statuses = append(statuses, QuestionStatus{
			ID:     h.questions[i].ID,
			Status: status,
			Type:   h.questions[i].Type,
		})
	}

	var current *Question
	if h.active && h.current >= 0 && h.current < len(h.questions) {
		current = &h.questions[h.current]
	}

	h.broadcastAdminsLocked(AdminUpdateMessage{
		Type:         "admin_update",
		Players:      players,
		Questions:    statuses,
		GameActive:   h.active,
		CurrentIndex: h.current,
		Phase:        string(h.phase),
		Current:      current,
		Final:        h.final,
	})
}

func (h *Hub) broadcastPlayersLocked(msg any) {
	for client := range h.clients {
		if client.admin {
			continue
		}
		h.sendLocked(client, msg)
	}
}

func (h *Hub) broadcastAdminsLocked(msg any) {
	for client := range h.clients {
		if !client.admin {
			continue
		}
		h.sendLocked(client, msg)
	}
}

func (h *Hub) broadcastAllLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

// sendLocked delivers without blocking; a client that cannot keep up is
// dropped and its connection torn down by the write pump. Already-evicted
// clients are skipped so a handler may send twice safely.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

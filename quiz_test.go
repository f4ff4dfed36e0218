package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, vip bool, bank []Question) (*Hub, *Client) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "questions.json")
	data, err := json.Marshal(bank)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := &Config{
		adminUser:   "admin",
		adminPass:   "password",
		questions:   path,
		revealDelay: 50 * time.Millisecond,
		vip:         vip,
	}

	h := newHub(cfg)

	admin := &Client{send: make(chan any, 64), id: newConnID(), admin: true}
	h.handleRegister(admin)

	return h, admin
}

func joinPlayer(h *Hub, name string) *Client {
	c := &Client{send: make(chan any, 64), id: newConnID()}
	h.handleRegister(c)
	h.handleJoin(clientEvent{client: c, msg: ClientMessage{Type: "join", Name: name}})
	return c
}

func control(h *Hub, c *Client, action string) {
	h.handleControl(clientEvent{client: c, msg: ClientMessage{Type: action}})
}

func controlTarget(h *Hub, c *Client, action, target string) {
	h.handleControl(clientEvent{client: c, msg: ClientMessage{Type: action, Target: target}})
}

func submit(h *Hub, c *Client, text string) {
	h.handleAnswer(clientEvent{client: c, msg: ClientMessage{Type: "submit_answer", Answer: text}})
}

// findMessage drains a client's send buffer and returns the last message of
// the wanted type, if any arrived.
func findMessage[T any](c *Client) (T, bool) {
	var found T
	ok := false
	for {
		select {
		case m := <-c.send:
			if v, isT := m.(T); isT {
				found = v
				ok = true
			}
		default:
			return found, ok
		}
	}
}

func (h *Hub) phaseNow() gamePhase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

func choiceBank() []Question {
	return []Question{
		{ID: "q1", Type: questionChoice, Question: "Who sang it?", Options: []string{"A", "B"}, Answer: "A"},
	}
}

func TestStartGameResetsSession(t *testing.T) {
	h, admin := newTestHub(t, true, choiceBank())

	joinPlayer(h, "Alice")
	control(h, admin, "start_game")

	h.mu.Lock()
	defer h.mu.Unlock()

	assert.True(t, h.active)
	assert.Equal(t, phaseIdle, h.phase)
	assert.Equal(t, -1, h.current)
	assert.NotEmpty(t, h.gameID)
	assert.Empty(t, h.players)
	assert.Empty(t, h.vipID)
	assert.Nil(t, h.final)
	assert.Len(t, h.questions, 1)
}

func TestStartGameRegeneratesGameID(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	first := h.gameID
	control(h, admin, "start_game")

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, h.gameID)
}

func TestAdvanceIsMonotonicAndBounded(t *testing.T) {
	bank := []Question{
		{ID: "q1", Type: questionChoice, Options: []string{"A"}, Answer: "A"},
		{ID: "q2", Type: questionText, Answer: "x"},
	}
	h, admin := newTestHub(t, false, bank)

	control(h, admin, "start_game")

	last := h.current
	for i := 0; i < 5; i++ {
		control(h, admin, "next_question")
		assert.GreaterOrEqual(t, h.current, last)
		assert.LessOrEqual(t, h.current, len(h.questions))
		last = h.current
	}

	assert.Equal(t, phaseFinished, h.phase)
	assert.False(t, h.active)
}

func TestEmptyBankEndsImmediately(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	joinPlayer(h, "Alice")
	control(h, admin, "next_question")

	assert.Equal(t, phaseFinished, h.phase)
	assert.False(t, h.active)
	require.NotNil(t, h.final)
	assert.Len(t, h.final.Leaderboard, 1)
	assert.Len(t, h.final.Winners, 1)
}

func TestEmptyPlayerSetEndsWithEmptyResults(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	control(h, admin, "end_game")

	require.NotNil(t, h.final)
	assert.Empty(t, h.final.Leaderboard)
	assert.Empty(t, h.final.Winners)
}

func TestAnswersIgnoredOutsideWindow(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")

	// Before any question.
	submit(h, alice, "A")
	assert.Nil(t, h.players[alice.id].LastAnswer)

	// During the question but before the audio has finished.
	control(h, admin, "next_question")
	submit(h, alice, "A")
	assert.Nil(t, h.players[alice.id].LastAnswer)

	control(h, admin, "audio_finished")
	submit(h, alice, "A")
	require.NotNil(t, h.players[alice.id].LastAnswer)
	assert.Equal(t, "A", *h.players[alice.id].LastAnswer)
}

func TestRevealIsIdempotent(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, alice, "A")

	control(h, admin, "show_answer")
	assert.Equal(t, phaseAnswer, h.phase)
	assert.Equal(t, 1, h.players[alice.id].Score)

	control(h, admin, "show_answer")
	assert.Equal(t, phaseAnswer, h.phase)
	assert.Equal(t, 1, h.players[alice.id].Score, "second reveal must not double score")

	// A stale auto-reveal timer firing later must also be a no-op.
	time.Sleep(3 * h.cfg.revealDelay)
	assert.Equal(t, 1, h.players[alice.id].Score)
}

func TestScoringChoiceExactAndTextNormalized(t *testing.T) {
	bank := []Question{
		{ID: "q1", Type: questionChoice, Options: []string{"A", "B"}, Answer: "A"},
		{ID: "q2", Type: questionText, Answer: "Paris"},
	}
	h, admin := newTestHub(t, false, bank)

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")
	carol := joinPlayer(h, "Carol")

	// Choice round: exact string equality only.
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, alice, "A")
	submit(h, bob, "a")
	control(h, admin, "show_answer")

	assert.Equal(t, 1, h.players[alice.id].Score)
	assert.Equal(t, 0, h.players[bob.id].Score, "choice answers are never normalized")

	// Text round: normalization-equal answers score 2.
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, alice, "paris!")
	submit(h, bob, "London")
	control(h, admin, "show_answer")

	assert.Equal(t, 3, h.players[alice.id].Score)
	assert.Equal(t, 0, h.players[bob.id].Score)
	assert.Equal(t, 0, h.players[carol.id].Score, "no answer scores nothing")
}

func TestRoundResultsPlaceholderForSilentPlayers(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	joinPlayer(h, "Bob")
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, alice, "A")
	control(h, admin, "show_answer")

	results, ok := findMessage[RoundResultsMessage](admin)
	require.True(t, ok)
	require.Len(t, results.Results, 2)

	byName := make(map[string]RoundResult)
	for _, r := range results.Results {
		byName[r.Name] = r
	}
	assert.Equal(t, "A", byName["Alice"].Answer)
	assert.True(t, byName["Alice"].Correct)
	assert.Equal(t, "—", byName["Bob"].Answer)
	assert.False(t, byName["Bob"].Correct)
}

func TestAutoRevealFiresOnceEveryoneAnswered(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")

	submit(h, alice, "A")
	assert.Equal(t, phaseQuestion, h.phaseNow(), "reveal must wait for all answers")

	submit(h, bob, "B")

	h.mu.Lock()
	assert.False(t, h.inputsEnabled, "inputs close once everyone has answered")
	h.mu.Unlock()

	timer, ok := findMessage[TimerMessage](alice)
	require.True(t, ok)
	assert.Equal(t, "start_timer", timer.Type)

	assert.Eventually(t, func() bool {
		return h.phaseNow() == phaseAnswer
	}, time.Second, 5*time.Millisecond, "auto-reveal should fire without host action")

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, 1, h.players[alice.id].Score)
	assert.Equal(t, 0, h.players[bob.id].Score)
}

func TestChoiceRoundDeltasAndLeaderboard(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")
	control(h, admin, "next_question")
	assert.Equal(t, 0, h.current)

	control(h, admin, "audio_finished")
	submit(h, alice, "A")
	submit(h, bob, "B")

	assert.Eventually(t, func() bool {
		return h.phaseNow() == phaseAnswer
	}, time.Second, 5*time.Millisecond)

	shown, ok := findMessage[ShowAnswerMessage](bob)
	require.True(t, ok)
	assert.Equal(t, "A", shown.Answer)
	assert.Equal(t, map[string]int{"Alice": 1, "Bob": 0}, shown.Deltas)
	require.Len(t, shown.Leaderboard, 2)
	assert.Equal(t, ScoreEntry{Name: "Alice", Score: 1}, shown.Leaderboard[0])
	assert.Equal(t, ScoreEntry{Name: "Bob", Score: 0}, shown.Leaderboard[1])
}

func TestLeaderboardSortAndTiedWinners(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")
	joinPlayer(h, "Carol")

	for i := 0; i < 3; i++ {
		controlTarget(h, admin, "give_point", alice.id)
		controlTarget(h, admin, "give_point", bob.id)
	}

	control(h, admin, "end_game")

	require.NotNil(t, h.final)
	require.Len(t, h.final.Leaderboard, 3)
	assert.Equal(t, "Carol", h.final.Leaderboard[2].Name)

	require.Len(t, h.final.Winners, 2, "all players at the top score win")
	assert.Equal(t, "Alice", h.final.Winners[0].Name)
	assert.Equal(t, "Bob", h.final.Winners[1].Name)
}

func TestManualScoreAdjustmentHasNoFloor(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")

	controlTarget(h, admin, "take_point", alice.id)
	controlTarget(h, admin, "take_point", alice.id)

	assert.Equal(t, -2, h.players[alice.id].Score)

	controlTarget(h, admin, "give_point", "no-such-id")
	assert.Equal(t, -2, h.players[alice.id].Score)
}

func TestReconnectResumesScoreByName(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	old := joinPlayer(h, "Bob")
	for i := 0; i < 5; i++ {
		controlTarget(h, admin, "give_point", old.id)
	}

	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, old, "A")

	fresh := joinPlayer(h, "Bob")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, oldExists := h.players[old.id]
	assert.False(t, oldExists, "old connection entry is removed")

	p, ok := h.players[fresh.id]
	require.True(t, ok)
	assert.Equal(t, "Bob", p.Name)
	assert.Equal(t, 5, p.Score)
	assert.Nil(t, p.LastAnswer, "answers do not carry across reconnects")
}

func TestVIPAssignedToFirstJoiner(t *testing.T) {
	h, admin := newTestHub(t, true, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")

	assert.Equal(t, alice.id, h.vipID)

	status, ok := findMessage[VIPStatusMessage](alice)
	require.True(t, ok)
	assert.True(t, status.IsVIP)

	_, ok = findMessage[VIPStatusMessage](bob)
	assert.False(t, ok)
}

func TestVIPMayAdvanceOthersIgnored(t *testing.T) {
	h, admin := newTestHub(t, true, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")

	control(h, bob, "next_question")
	assert.Equal(t, -1, h.current, "non-VIP advancement is silently ignored")

	control(h, bob, "end_game")
	assert.True(t, h.active, "only advancement is delegated to the VIP")

	control(h, alice, "next_question")
	assert.Equal(t, 0, h.current)
	assert.Equal(t, phaseQuestion, h.phaseNow())
}

func TestVIPAdvanceIgnoredWhenDisabled(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")

	control(h, alice, "next_question")
	assert.Equal(t, -1, h.current)
}

func TestVIPTransfersOnReconnect(t *testing.T) {
	h, admin := newTestHub(t, true, nil)

	control(h, admin, "start_game")
	old := joinPlayer(h, "Alice")
	require.Equal(t, old.id, h.vipID)

	fresh := joinPlayer(h, "Alice")
	assert.Equal(t, fresh.id, h.vipID)

	status, ok := findMessage[VIPStatusMessage](fresh)
	require.True(t, ok)
	assert.True(t, status.IsVIP)
}

func TestVIPTransfersToEarliestJoinerOnDisconnect(t *testing.T) {
	h, admin := newTestHub(t, true, nil)

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	bob := joinPlayer(h, "Bob")
	carol := joinPlayer(h, "Carol")

	require.Equal(t, alice.id, h.vipID)

	h.handleUnregister(alice)

	assert.Equal(t, bob.id, h.vipID, "earliest joined connected player inherits VIP")

	status, ok := findMessage[VIPStatusMessage](bob)
	require.True(t, ok)
	assert.True(t, status.IsVIP)

	h.handleUnregister(bob)
	assert.Equal(t, carol.id, h.vipID)

	h.handleUnregister(carol)
	assert.Empty(t, h.vipID, "no players left clears the role")
}

func TestAudioFinishedOpensInputs(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	control(h, admin, "next_question")

	assert.False(t, h.inputsEnabled)

	control(h, admin, "audio_finished")
	assert.True(t, h.inputsEnabled)

	_, ok := findMessage[SimpleMessage](alice)
	assert.True(t, ok)
}

func TestAudioFinishedSignalsVIPAfterReveal(t *testing.T) {
	h, admin := newTestHub(t, true, choiceBank())

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")
	submit(h, alice, "A")
	control(h, admin, "show_answer")

	// Drain anything queued so far.
	findMessage[SimpleMessage](alice)

	control(h, admin, "audio_finished")

	msg, ok := findMessage[SimpleMessage](alice)
	require.True(t, ok)
	assert.Equal(t, "vip_can_advance", msg.Type)
}

func TestRepeatQuestionReplaysAskCue(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	control(h, admin, "next_question")

	findMessage[PlayAudioMessage](admin)
	control(h, admin, "repeat_question")

	cue, ok := findMessage[PlayAudioMessage](admin)
	require.True(t, ok)
	assert.Equal(t, "q1-1.mp3", cue.File)
	assert.Equal(t, phaseQuestion, h.phaseNow(), "repeat does not mutate phase")
}

func TestGameOverBroadcastToEveryone(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")
	alice := joinPlayer(h, "Alice")
	control(h, admin, "end_game")

	over, ok := findMessage[GameOverMessage](alice)
	require.True(t, ok)
	require.NotNil(t, over.Final)

	overAdmin, ok := findMessage[GameOverMessage](admin)
	require.True(t, ok)
	assert.Equal(t, over.Final, overAdmin.Final)
}

func TestJoinSnapshotReflectsCurrentPhase(t *testing.T) {
	h, admin := newTestHub(t, false, choiceBank())

	control(h, admin, "start_game")
	control(h, admin, "next_question")
	control(h, admin, "audio_finished")

	late := joinPlayer(h, "Latecomer")

	status, ok := findMessage[GameStatusMessage](late)
	require.True(t, ok)
	assert.Equal(t, "question", status.State)
	require.NotNil(t, status.Question)
	assert.Equal(t, 1, status.Question.Index)
	assert.True(t, status.Question.InputsEnabled)
}

func TestJoinRejectsBlankName(t *testing.T) {
	h, admin := newTestHub(t, false, nil)

	control(h, admin, "start_game")

	c := &Client{send: make(chan any, 64), id: newConnID()}
	h.handleRegister(c)
	h.handleJoin(clientEvent{client: c, msg: ClientMessage{Type: "join", Name: "   "}})

	assert.Empty(t, h.players)
}

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		maxRounds:     5,
		playerTimeout: 50 * time.Millisecond,
		// Real ticking is disabled; tests feed timer events directly.
		tick: time.Hour,
	}
}

func newTestClient(id string) *gameClient {
	return &gameClient{
		id:   id,
		send: make(chan any, 256),
	}
}

// drainMessages empties a client's send buffer.
func drainMessages(c *gameClient) []any {
	var msgs []any
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// tickSession feeds n ticks through the session's timer handler, each
// stamped with the currently valid generation.
func tickSession(cfg *Config, s *Session, n int) {
	for i := 0; i < n; i++ {
		s.handleTimer(cfg, timerEvent{gen: s.timerGen, kind: timerTick})
	}
}

// resumeSession stands in for the delayed round transition firing.
func resumeSession(cfg *Config, s *Session) {
	s.handleTimer(cfg, timerEvent{gen: s.timerGen, kind: timerResume})
}

func joinTwo(cfg *Config, s *Session) (*gameClient, *gameClient) {
	host := newTestClient("host-id")
	other := newTestClient("other-id")
	s.handleJoin(cfg, joinIntent{client: host, player: WirePlayer{Name: "ana", Avatar: "cat"}})
	s.handleJoin(cfg, joinIntent{client: other, player: WirePlayer{Name: "ben", Avatar: "dog"}})
	return host, other
}

func TestJoinAssignsHostAndBroadcastsRoster(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)

	// The second join's lobby-update reaches both subscribers.
	hostMsgs := drainMessages(host)
	require.Len(t, hostMsgs, 2)

	lobby, ok := hostMsgs[1].(LobbyUpdateMessage)
	require.True(t, ok)
	assert.Equal(t, "lobby-update", lobby.Type)
	assert.Equal(t, "WXYZ", lobby.RoomCode)
	assert.Equal(t, "host-id", lobby.HostID)
	require.Len(t, lobby.Players, 2)
	assert.Equal(t, "ana", lobby.Players[0].Name)
	assert.Equal(t, "ben", lobby.Players[1].Name)
	assert.Equal(t, 0, lobby.Players[0].Score)
	assert.Equal(t, 0, lobby.Players[1].Score)

	otherMsgs := drainMessages(other)
	require.Len(t, otherMsgs, 1)
}

func TestRejoinUpdatesExistingPlayer(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, _ := joinTwo(cfg, s)

	reconnected := newTestClient(host.id)
	s.handleJoin(cfg, joinIntent{client: reconnected, player: WirePlayer{Name: "ana2", Avatar: "fox"}})

	assert.Len(t, s.players, 2)
	assert.Equal(t, "ana2", s.players[0].Name)
	assert.Equal(t, "fox", s.players[0].Avatar)
}

func TestStartGameIgnoredForNonHost(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	drainMessages(host)
	drainMessages(other)

	s.handleStart(cfg, startIntent{client: other})

	assert.Equal(t, phaseLobby, s.phase)
	assert.Empty(t, drainMessages(host))
	assert.Empty(t, drainMessages(other))
}

func TestStartGameResetsScoresAndBeginsRoundOne(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.players[0].Score = 30
	s.players[1].Score = 10
	drainMessages(host)
	drainMessages(other)

	s.handleStart(cfg, startIntent{client: host})

	assert.Equal(t, phaseRoundActive, s.phase)
	assert.Equal(t, 1, s.currentRound)
	require.NotNil(t, s.movie)
	assert.True(t, s.usedMovies[s.movie.Answer])
	assert.Equal(t, 1, s.sceneIndex)
	assert.Equal(t, 0, s.elapsedTime)
	assert.Equal(t, "", s.clue)

	msgs := drainMessages(other)
	require.Len(t, msgs, 2)

	lobby, ok := msgs[0].(LobbyUpdateMessage)
	require.True(t, ok)
	assert.Equal(t, 0, lobby.Players[0].Score)
	assert.Equal(t, 0, lobby.Players[1].Score)

	_, ok = msgs[1].(NewGameMessage)
	require.True(t, ok)

	// First tick produces the first snapshot.
	tickSession(cfg, s, 1)

	msgs = drainMessages(other)
	require.Len(t, msgs, 1)
	state, ok := msgs[0].(GameStateMessage)
	require.True(t, ok)
	assert.Equal(t, 1, state.ElapsedTime)
	assert.Equal(t, 1, state.SceneIndex)
	assert.Equal(t, "", state.Clue)
	assert.False(t, state.GameOver)
	assert.Equal(t, s.movie, state.Movie)
}

func TestRestartIgnoredWhileRoundActive(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, _ := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	require.Equal(t, 1, s.currentRound)

	s.handleStart(cfg, startIntent{client: host})
	assert.Equal(t, 1, s.currentRound)
}

func TestRevealSchedule(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, _ := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})

	tickSession(cfg, s, 29)
	assert.Equal(t, 1, s.sceneIndex)

	tickSession(cfg, s, 1) // 30
	assert.Equal(t, 2, s.sceneIndex)

	tickSession(cfg, s, 30) // 60
	assert.Equal(t, 3, s.sceneIndex)
	assert.Equal(t, 0, s.revealedLetters)

	tickSession(cfg, s, 1) // 61
	assert.Equal(t, 0, s.revealedLetters)

	tickSession(cfg, s, 9) // 70
	assert.Equal(t, 1, s.revealedLetters)
	assert.Equal(t, generateClue(s.movie.Answer, 1), s.clue)

	tickSession(cfg, s, 10) // 80
	assert.Equal(t, 2, s.revealedLetters)
	assert.Equal(t, generateClue(s.movie.Answer, 2), s.clue)
}

func TestRoundTimeoutPausesThenStartsNextRound(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})

	tickSession(cfg, s, maxRoundSeconds)
	assert.Equal(t, phaseRoundResolved, s.phase)

	// The timeout tick itself produces no snapshot.
	msgs := drainMessages(other)
	for _, m := range msgs {
		if state, ok := m.(GameStateMessage); ok {
			assert.Less(t, state.ElapsedTime, maxRoundSeconds)
		}
	}

	// Ticks from the cancelled clock are stale and change nothing.
	s.handleTimer(cfg, timerEvent{gen: s.timerGen - 1, kind: timerTick})
	assert.Equal(t, maxRoundSeconds, s.elapsedTime)

	resumeSession(cfg, s)
	assert.Equal(t, phaseRoundActive, s.phase)
	assert.Equal(t, 2, s.currentRound)
	assert.Equal(t, 0, s.elapsedTime)
	assert.Len(t, s.usedMovies, 2)
}

func TestCorrectAnswerScoresAndBroadcasts(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	tickSession(cfg, s, 5)
	drainMessages(host)
	drainMessages(other)

	// Case and surrounding whitespace are forgiven.
	submitted := "  " + strings.ToUpper(s.movie.Answer) + " "
	answer := s.movie.Answer
	s.handleAnswer(cfg, answerIntent{client: other, answer: submitted})

	assert.Equal(t, phaseRoundResolved, s.phase)

	for _, c := range []*gameClient{host, other} {
		msgs := drainMessages(c)
		require.Len(t, msgs, 1)

		result, ok := msgs[0].(AnswerResultMessage)
		require.True(t, ok)
		assert.True(t, result.Correct)
		assert.Equal(t, "ben", result.PlayerName)
		assert.Equal(t, answer, result.Answer)
		require.Len(t, result.Players, 2)
		assert.Equal(t, 0, result.Players[0].Score)
		assert.Equal(t, answerPoints, result.Players[1].Score)
	}

	// No further scoring while the round is resolved.
	s.handleAnswer(cfg, answerIntent{client: other, answer: answer})
	assert.Equal(t, answerPoints, s.players[1].Score)
	assert.Empty(t, drainMessages(other))
}

func TestWrongAnswerRepliesPrivately(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	tickSession(cfg, s, 1)
	drainMessages(host)
	drainMessages(other)

	s.handleAnswer(cfg, answerIntent{client: other, answer: "definitely not it"})

	assert.Equal(t, phaseRoundActive, s.phase)
	assert.Empty(t, drainMessages(host))

	msgs := drainMessages(other)
	require.Len(t, msgs, 1)
	result, ok := msgs[0].(AnswerResultMessage)
	require.True(t, ok)
	assert.False(t, result.Correct)
	assert.Empty(t, result.PlayerName)
	assert.Empty(t, result.Answer)
}

func TestBlankAnswerIgnored(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	tickSession(cfg, s, 1)
	drainMessages(host)
	drainMessages(other)

	s.handleAnswer(cfg, answerIntent{client: other, answer: "   "})

	assert.Empty(t, drainMessages(host))
	assert.Empty(t, drainMessages(other))
}

func TestGameOverAfterMaxRounds(t *testing.T) {
	cfg := testConfig()
	cfg.maxRounds = 2
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})

	// Round 1: the non-host answers correctly.
	tickSession(cfg, s, 3)
	s.handleAnswer(cfg, answerIntent{client: other, answer: s.movie.Answer})
	resumeSession(cfg, s)
	require.Equal(t, 2, s.currentRound)

	// Round 2: nobody answers.
	tickSession(cfg, s, maxRoundSeconds)
	drainMessages(host)
	drainMessages(other)
	resumeSession(cfg, s)

	assert.Equal(t, phaseGameOver, s.phase)

	msgs := drainMessages(host)
	var overs []GameOverMessage
	for _, m := range msgs {
		if over, ok := m.(GameOverMessage); ok {
			overs = append(overs, over)
		}
	}
	require.Len(t, overs, 1, "exactly one game-over event")

	// Standings are sorted by descending score.
	require.Len(t, overs[0].Players, 2)
	assert.Equal(t, "ben", overs[0].Players[0].Name)
	assert.Equal(t, answerPoints, overs[0].Players[0].Score)
	assert.Equal(t, "ana", overs[0].Players[1].Name)
	assert.Equal(t, 0, overs[0].Players[1].Score)

	// A stale delayed continuation cannot restart the finished game.
	s.handleTimer(cfg, timerEvent{gen: s.timerGen - 1, kind: timerResume})
	assert.Equal(t, phaseGameOver, s.phase)
}

func TestGameOverTiesKeepJoinOrder(t *testing.T) {
	cfg := testConfig()
	cfg.maxRounds = 1
	s := newSession(cfg, "WXYZ", nil)

	host, _ := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	tickSession(cfg, s, maxRoundSeconds)
	drainMessages(host)
	resumeSession(cfg, s)

	msgs := drainMessages(host)
	require.NotEmpty(t, msgs)
	over, ok := msgs[len(msgs)-1].(GameOverMessage)
	require.True(t, ok)
	require.Len(t, over.Players, 2)
	assert.Equal(t, "ana", over.Players[0].Name)
	assert.Equal(t, "ben", over.Players[1].Name)
}

func TestMoviesNeverRepeatAndPoolExhaustionEndsGame(t *testing.T) {
	cfg := testConfig()
	cfg.maxRounds = len(moviePool) + 5
	s := newSession(cfg, "WXYZ", nil)

	host, _ := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})

	played := make(map[string]bool)
	for s.phase == phaseRoundActive {
		assert.False(t, played[s.movie.Answer], "movie %q repeated", s.movie.Answer)
		played[s.movie.Answer] = true

		tickSession(cfg, s, maxRoundSeconds)
		resumeSession(cfg, s)
	}

	assert.Equal(t, phaseGameOver, s.phase)
	assert.Len(t, played, len(moviePool))
}

func TestRestartAfterGameOver(t *testing.T) {
	cfg := testConfig()
	cfg.maxRounds = 1
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	s.handleStart(cfg, startIntent{client: host})
	tickSession(cfg, s, 3)
	s.handleAnswer(cfg, answerIntent{client: other, answer: s.movie.Answer})
	resumeSession(cfg, s)
	require.Equal(t, phaseGameOver, s.phase)

	s.handleStart(cfg, startIntent{client: host})

	assert.Equal(t, phaseRoundActive, s.phase)
	assert.Equal(t, 1, s.currentRound)
	assert.Len(t, s.usedMovies, 1)
	assert.Equal(t, 0, s.players[1].Score)
}

func TestDisconnectKeepsRosterDuringGrace(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	drainMessages(host)
	drainMessages(other)

	s.handleUnregister(cfg, other)

	assert.Len(t, s.players, 2)
	assert.False(t, s.clients[other])

	// The grace period expires and the removal lands in the loop.
	select {
	case playerID := <-s.removals:
		s.handleRemoval(cfg, playerID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for roster removal")
	}

	assert.Len(t, s.players, 1)
	assert.Equal(t, "ana", s.players[0].Name)

	msgs := drainMessages(host)
	require.Len(t, msgs, 1)
	lobby, ok := msgs[0].(LobbyUpdateMessage)
	require.True(t, ok)
	assert.Len(t, lobby.Players, 1)
}

func TestReconnectBeforeGraceExpiresKeepsPlayer(t *testing.T) {
	cfg := testConfig()
	s := newSession(cfg, "WXYZ", nil)

	host, other := joinTwo(cfg, s)
	drainMessages(host)

	s.handleUnregister(cfg, other)

	reconnected := newTestClient(other.id)
	s.handleJoin(cfg, joinIntent{client: reconnected, player: WirePlayer{Name: "ben", Avatar: "dog"}})

	select {
	case playerID := <-s.removals:
		s.handleRemoval(cfg, playerID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for removal event")
	}

	assert.Len(t, s.players, 2)
}

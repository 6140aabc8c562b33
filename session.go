// Scenebox room sessions
//
// Each room is an isolated game session identified by a short code.
// Players join over a websocket, the host starts rounds, and a
// server-owned per-second clock reveals scene stills and unmasks
// letter clues until someone answers correctly or the round times out.
//
// Features:
// - One run() goroutine per session; every mutation happens there, in
//   response to either a client intent or a timer event
// - First joining connection becomes host; only the host may start games
// - Fixed reveal schedule: scene 2 at 30s, scene 3 at 60s, then one
//   letter every 10s, round timeout at 120s
// - Correct answers score 10 points; wrong guesses are answered
//   privately so other players are not tipped off
// - Every scheduled tick and delayed continuation carries a generation
//   stamp; stale events are dropped, so a cancelled round can never
//   restart itself
// - Disconnected players keep their roster spot for a grace period and
//   are dropped if they do not reconnect

package main

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	sceneTwoAt      = 30  // elapsed seconds until the second still
	sceneThreeAt    = 60  // elapsed seconds until the third still
	clueStartAfter  = 60  // letters start revealing past this point
	clueEvery       = 10  // seconds between letter reveals
	maxRoundSeconds = 120 // round timeout

	answerPoints = 10

	roundGapDelay = 3 * time.Second
)

type sessionPhase int

const (
	phaseLobby sessionPhase = iota
	phaseRoundActive
	phaseRoundResolved
	phaseGameOver
)

type timerKind int

const (
	timerTick timerKind = iota
	timerResume
)

// timerEvent is a scheduled callback stamped with the generation that
// scheduled it. The session drops events whose stamp no longer matches.
type timerEvent struct {
	gen  uint64
	kind timerKind
}

type joinIntent struct {
	client *gameClient
	player WirePlayer
}

type startIntent struct {
	client *gameClient
}

type answerIntent struct {
	client *gameClient
	answer string
}

type Session struct {
	code    string
	hostID  string
	clients map[*gameClient]bool
	players []Player

	phase        sessionPhase
	currentRound int
	maxRounds    int
	usedMovies   map[string]bool

	movie           *Movie
	sceneIndex      int
	elapsedTime     int
	revealedLetters int
	clue            string

	timerGen  uint64
	timerStop chan struct{}
	tickEvery time.Duration

	results *resultsPublisher

	joins    chan joinIntent
	starts   chan startIntent
	answers  chan answerIntent
	unreg    chan *gameClient
	timers   chan timerEvent
	removals chan string
	done     chan struct{}

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newSession(cfg *Config, code string, results *resultsPublisher) *Session {
	tick := cfg.tick
	if tick <= 0 {
		tick = time.Second
	}

	now := time.Now()
	return &Session{
		code:       code,
		clients:    make(map[*gameClient]bool),
		phase:      phaseLobby,
		maxRounds:  cfg.maxRounds,
		usedMovies: make(map[string]bool),
		sceneIndex: 1,
		tickEvery:  tick,
		results:    results,
		joins:      make(chan joinIntent),
		starts:     make(chan startIntent),
		answers:    make(chan answerIntent),
		unreg:      make(chan *gameClient),
		timers:     make(chan timerEvent, 8),
		removals:   make(chan string, 8),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (s *Session) run(cfg *Config) {
	for {
		select {
		case <-s.done:
			s.stopTimer()
			s.closeAll()
			return

		case j := <-s.joins:
			s.handleJoin(cfg, j)

		case st := <-s.starts:
			s.handleStart(cfg, st)

		case a := <-s.answers:
			s.handleAnswer(cfg, a)

		case c := <-s.unreg:
			s.handleUnregister(cfg, c)

		case ev := <-s.timers:
			s.handleTimer(cfg, ev)

		case playerID := <-s.removals:
			s.handleRemoval(cfg, playerID)
		}
	}
}

// post* helpers deliver intents without blocking forever if the session
// has already been torn down.

func (s *Session) postJoin(j joinIntent) {
	select {
	case s.joins <- j:
	case <-s.done:
	}
}

func (s *Session) postStart(c *gameClient) {
	select {
	case s.starts <- startIntent{client: c}:
	case <-s.done:
	}
}

func (s *Session) postAnswer(c *gameClient, answer string) {
	select {
	case s.answers <- answerIntent{client: c, answer: answer}:
	case <-s.done:
	}
}

func (s *Session) postUnregister(c *gameClient) {
	select {
	case s.unreg <- c:
	case <-s.done:
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idle() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) handleJoin(cfg *Config, j joinIntent) {
	s.touch()

	c := j.client

	if s.hostID == "" {
		s.hostID = c.id
	}

	s.clients[c] = true

	existing := -1
	for i, p := range s.players {
		if p.ID == c.id {
			existing = i
			break
		}
	}

	if existing >= 0 {
		s.players[existing].Name = j.player.Name
		s.players[existing].Avatar = j.player.Avatar
	} else {
		s.players = append(s.players, Player{
			ID:     c.id,
			Name:   j.player.Name,
			Avatar: j.player.Avatar,
		})
		logf(cfg, "ROOMS: Player %q joined %s", j.player.Name, s.code)
	}

	s.broadcastLobby()
}

func (s *Session) handleStart(cfg *Config, st startIntent) {
	if st.client.id != s.hostID {
		return
	}
	if s.phase == phaseRoundActive || s.phase == phaseRoundResolved {
		return
	}

	s.touch()

	for i := range s.players {
		s.players[i].Score = 0
	}
	s.currentRound = 0
	s.usedMovies = make(map[string]bool)

	s.broadcastLobby()
	s.broadcast(NewGameMessage{Type: "new-game"})

	logf(cfg, "ROOMS: Host started a game in %s", s.code)

	s.startNextMovie(cfg)
}

// startNextMovie advances the round counter and either begins the next
// round or ends the game when rounds or movies run out.
func (s *Session) startNextMovie(cfg *Config) {
	s.currentRound++

	remaining := remainingMovies(s.usedMovies)

	if s.currentRound > s.maxRounds || len(remaining) == 0 {
		s.stopTimer()
		s.phase = phaseGameOver

		standings := s.standings()
		s.broadcast(GameOverMessage{
			Type:    "game-over",
			Players: standings,
		})

		logf(cfg, "ROOMS: Game over in %s after %d rounds", s.code, s.currentRound-1)

		if s.results != nil {
			go s.results.publish(cfg, s.code, standings)
		}
		return
	}

	movie := remaining[rand.Intn(len(remaining))]
	s.usedMovies[movie.Answer] = true

	s.movie = &movie
	s.sceneIndex = 1
	s.elapsedTime = 0
	s.revealedLetters = 0
	s.clue = ""
	s.phase = phaseRoundActive

	logf(cfg, "ROOMS: Round %d of %s started", s.currentRound, s.code)

	s.startTimer()
}

// handleTimer applies a tick or a delayed round transition, ignoring
// anything scheduled before the last cancellation.
func (s *Session) handleTimer(cfg *Config, ev timerEvent) {
	if ev.gen != s.timerGen {
		return
	}

	switch ev.kind {
	case timerResume:
		s.startNextMovie(cfg)

	case timerTick:
		if s.phase != phaseRoundActive {
			return
		}

		s.elapsedTime++

		switch s.elapsedTime {
		case sceneTwoAt:
			s.sceneIndex = 2
		case sceneThreeAt:
			s.sceneIndex = 3
		}

		if s.elapsedTime > clueStartAfter && s.elapsedTime%clueEvery == 0 {
			s.revealedLetters++
			s.clue = generateClue(s.movie.Answer, s.revealedLetters)
		}

		if s.elapsedTime >= maxRoundSeconds {
			s.stopTimer()
			s.phase = phaseRoundResolved
			s.scheduleResume(roundGapDelay)

			logf(cfg, "ROOMS: Round %d of %s timed out", s.currentRound, s.code)
			return
		}

		s.broadcast(GameStateMessage{
			Type:        "game-state",
			Movie:       s.movie,
			SceneIndex:  s.sceneIndex,
			ElapsedTime: s.elapsedTime,
			Clue:        s.clue,
		})
	}
}

func (s *Session) handleAnswer(cfg *Config, a answerIntent) {
	if s.phase != phaseRoundActive {
		return
	}

	answer := strings.ToLower(strings.TrimSpace(a.answer))
	if answer == "" {
		return
	}

	s.touch()

	if answer != s.movie.Answer {
		s.unicast(a.client, AnswerResultMessage{
			Type:    "answer-result",
			Correct: false,
		})
		return
	}

	playerName := ""
	for i := range s.players {
		if s.players[i].ID == a.client.id {
			s.players[i].Score += answerPoints
			playerName = s.players[i].Name
			break
		}
	}

	s.stopTimer()
	s.phase = phaseRoundResolved

	s.broadcast(AnswerResultMessage{
		Type:       "answer-result",
		Correct:    true,
		PlayerName: playerName,
		Answer:     s.movie.Answer,
		Players:    s.roster(),
	})

	logf(cfg, "ROOMS: %q answered round %d of %s correctly", playerName, s.currentRound, s.code)

	s.scheduleResume(roundGapDelay)
}

func (s *Session) handleUnregister(cfg *Config, c *gameClient) {
	s.touch()

	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}

	if c.id == "" {
		return
	}

	logf(cfg, "ROOMS: Connection for player %s left %s", c.id, s.code)

	// Keep the roster spot for a grace period in case they reconnect.
	playerID := c.id
	time.AfterFunc(cfg.playerTimeout, func() {
		select {
		case s.removals <- playerID:
		case <-s.done:
		}
	})
}

// handleRemoval drops a player whose grace period expired without a
// reconnect.
func (s *Session) handleRemoval(cfg *Config, playerID string) {
	for c := range s.clients {
		if c.id == playerID {
			return
		}
	}

	dst := s.players[:0]
	changed := false
	for _, p := range s.players {
		if p.ID == playerID {
			changed = true
			logf(cfg, "ROOMS: Player %q removed from %s", p.Name, s.code)
			continue
		}
		dst = append(dst, p)
	}
	s.players = dst

	if !changed {
		return
	}

	s.touch()
	s.broadcastLobby()
}

// startTimer cancels any previous clock and begins a fresh per-second
// tick for the current round.
func (s *Session) startTimer() {
	s.stopTimer()

	s.timerGen++
	gen := s.timerGen
	stop := make(chan struct{})
	s.timerStop = stop

	go func() {
		ticker := time.NewTicker(s.tickEvery)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case s.timers <- timerEvent{gen: gen, kind: timerTick}:
				case <-stop:
					return
				case <-s.done:
					return
				}
			}
		}
	}()
}

// stopTimer halts the tick goroutine and invalidates every event it has
// already queued. Bumping the generation is what makes cancellation
// atomic from the run loop's point of view.
func (s *Session) stopTimer() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
	s.timerGen++
}

func (s *Session) scheduleResume(d time.Duration) {
	s.timerGen++
	gen := s.timerGen

	time.AfterFunc(d, func() {
		select {
		case s.timers <- timerEvent{gen: gen, kind: timerResume}:
		case <-s.done:
		}
	})
}

func (s *Session) roster() []Player {
	roster := make([]Player, len(s.players))
	copy(roster, s.players)
	return roster
}

// standings is the final leaderboard: descending score, ties keep join
// order.
func (s *Session) standings() []Player {
	standings := s.roster()
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

func (s *Session) broadcastLobby() {
	s.broadcast(LobbyUpdateMessage{
		Type:     "lobby-update",
		RoomCode: s.code,
		Players:  s.roster(),
		HostID:   s.hostID,
	})
}

func (s *Session) broadcast(msg any) {
	for client := range s.clients {
		select {
		case client.send <- msg:
		default:
			delete(s.clients, client)
			close(client.send)
		}
	}
}

func (s *Session) unicast(c *gameClient, msg any) {
	if !s.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(s.clients, c)
		close(c.send)
	}
}

// closeAll disconnects every client of this session (used by the reaper).
func (s *Session) closeAll() {
	for c := range s.clients {
		close(c.send)
		_ = c.close()
		delete(s.clients, c)
	}
}

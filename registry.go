package main

import (
	"sync"
	"time"
)

// Registry owns the map of room code to session. Sessions are created
// on demand by the first join and reaped after sitting idle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	results  *resultsPublisher
}

func newRegistry(cfg *Config, results *resultsPublisher) *Registry {
	rg := &Registry{
		sessions: make(map[string]*Session),
		results:  results,
	}
	if cfg.sessionTimeout > 0 {
		go rg.reaperLoop(cfg)
	}
	return rg
}

// join resolves the room code (assigning a fresh one for the AUTO
// sentinel), creates the session if needed, and hands the intent to the
// session's run loop.
func (rg *Registry) join(cfg *Config, c *gameClient, code string, player WirePlayer) {
	rg.mu.Lock()

	if code == autoRoomCode {
		code = rg.newRoomCodeLocked()
	}

	session, ok := rg.sessions[code]
	if !ok {
		session = newSession(cfg, code, rg.results)
		rg.sessions[code] = session
		go session.run(cfg)
		logf(cfg, "ROOMS: Created room %s", code)
	}

	rg.mu.Unlock()

	c.session = session
	session.postJoin(joinIntent{client: c, player: player})
}

func (rg *Registry) lookup(code string) *Session {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return rg.sessions[code]
}

// newRoomCode generates a code that does not collide with any live
// session.
func (rg *Registry) newRoomCode() string {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return rg.newRoomCodeLocked()
}

func (rg *Registry) newRoomCodeLocked() string {
	for {
		code := generateRoomCode()
		if _, exists := rg.sessions[code]; !exists {
			return code
		}
	}
}

// reaperLoop periodically ends sessions that have been idle longer than
// the configured timeout, shutting down their run loops.
func (rg *Registry) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-cfg.sessionTimeout)

		rg.mu.Lock()
		for code, session := range rg.sessions {
			if session.idle().Before(cutoff) {
				delete(rg.sessions, code)
				close(session.done)
				logf(cfg, "ROOMS: Reaped idle room %s", code)
			}
		}
		rg.mu.Unlock()
	}
}

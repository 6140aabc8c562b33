package main

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "scenebox_id"

// playerID returns the stable player id from the request cookie, or ""
// if the browser has none yet.
func playerID(r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	return ""
}

func playerCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// getOrSetPlayerID returns the stable player id for this browser,
// minting one if the cookie is missing.
func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if id := playerID(r); id != "" {
		return id
	}

	id := uuid.NewString()

	http.SetCookie(w, playerCookie(id))

	return id
}

type gameClient struct {
	conn    *websocket.Conn
	send    chan any
	id      string
	session *Session
}

func (c *gameClient) close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// serveWS upgrades the connection and pumps intents into the registry.
// A connection subscribes to exactly one room, chosen by its join-room
// intent.
func serveWS(cfg *Config, rg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Upgrade hijacks the connection and writes the 101 response
		// itself, so a fresh cookie has to travel in the handshake
		// headers rather than through the ResponseWriter.
		id := playerID(r)

		var handshake http.Header
		if id == "" {
			id = uuid.NewString()
			handshake = http.Header{"Set-Cookie": {playerCookie(id).String()}}
		}

		conn, err := upgrader.Upgrade(w, r, handshake)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &gameClient{
			conn: conn,
			send: make(chan any, 8),
			id:   id,
		}

		go client.writePump()
		client.readPump(cfg, rg)
	}
}

// readPump deserializes inbound intents and routes them to the
// addressed session. Malformed or unknown messages are dropped here,
// before they can reach any session.
func (c *gameClient) readPump(cfg *Config, rg *Registry) {
	defer func() {
		if c.session != nil {
			c.session.postUnregister(c)
		} else {
			close(c.send)
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "join-room":
			if c.session != nil || msg.Player == nil || msg.Player.Name == "" || msg.RoomCode == "" {
				continue
			}
			rg.join(cfg, c, msg.RoomCode, *msg.Player)

		case "start-game":
			if s := rg.lookup(msg.RoomCode); s != nil {
				s.postStart(c)
			}

		case "submit-answer":
			if s := rg.lookup(msg.RoomCode); s != nil {
				s.postAnswer(c, msg.Answer)
			}

		default:
			// ignore unknown types
		}
	}
}

func (c *gameClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// newRoomHandler (GET /rooms) hands out a fresh, collision-checked room
// code without creating the session; the room comes alive on the first
// join.
func newRoomHandler(cfg *Config, rg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := rg.newRoomCode()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(`{"roomCode":"` + code + `"}` + "\n"))

		logf(cfg, "ROOMS: Handed out room code %s to %s", code, realIP(r))
	}
}

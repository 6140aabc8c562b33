package main

import (
	"crypto/rand"
)

// autoRoomCode is the sentinel clients send to have a room code assigned.
const autoRoomCode = "AUTO"

const roomCodeLength = 4

// roomCodeAlphabet omits visually confusable characters (0/O, 1/I).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, roomCodeLength)
	for i := range out {
		out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}

	return string(out)
}

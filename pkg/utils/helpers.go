package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// codeAlphabet avoids characters players misread over voice chat.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCode generates a random shareable room code of length n.
func RoomCode(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

// RandomHex generates a random hexadecimal string of length n
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

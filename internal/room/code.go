package room

import (
	"math/rand"
	"time"
)

// Ambiguous letters (I, O) are left out of generated codes.
const codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewCode returns an n-letter uppercase room code. The engine itself accepts
// any non-empty id; this is only the convention for server-generated rooms.
func NewCode(n int) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, n)
	for i := range b {
		b[i] = codeLetters[r.Intn(len(codeLetters))]
	}
	return string(b)
}

// Package slug generates short public identifiers for published forms.
package slug

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Length of every generated slug. 62^8 identifiers make birthday
// collisions a non-issue; the DB unique constraint catches the rest.
const Length = 8

// New returns a fresh random slug. Uniqueness is the caller's problem:
// insert under a unique constraint and re-roll on violation.
func New() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

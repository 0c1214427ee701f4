package utils

import (
	"fmt"
	"strings"
)

// EventKey derives the storage key for an event identifier. The escaping is
// injective: two distinct event ids can never produce the same key, and the
// same id always produces the same key regardless of call site. Every
// component that addresses interest records must go through this function.
//
// Letters, digits and '-' pass through unchanged; every other byte (including
// '_', which is reserved as the escape introducer) is encoded as '_' followed
// by two uppercase hex digits.
func EventKey(eventID string) string {
	var b strings.Builder
	for i := 0; i < len(eventID); i++ {
		c := eventID[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("_%02X", c))
		}
	}
	return b.String()
}

// SortedPair returns the two user handles in ascending order.
func SortedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey maps an unordered pair of user handles to one canonical string:
// PairKey(a, b) == PairKey(b, a). Both matchId and chatId are derived with
// this function, so concurrent creators working from either side converge on
// the same document. Each handle is escaped with the EventKey encoding, which
// makes the single '_' separator unambiguous.
func PairKey(a, b string) string {
	lo, hi := SortedPair(a, b)
	return EventKey(lo) + "_" + EventKey(hi)
}

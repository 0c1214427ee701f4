package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventKeyPassesSafeCharacters(t *testing.T) {
	assert.Equal(t, "SalsaNight", EventKey("SalsaNight"))
	assert.Equal(t, "jazz-jam-2026", EventKey("jazz-jam-2026"))
}

func TestEventKeyEscapesUnsafeCharacters(t *testing.T) {
	assert.Equal(t, "salsa_20night", EventKey("salsa night"))
	assert.Equal(t, "a_2Fb", EventKey("a/b"))
	// '_' is the escape introducer and must itself be escaped
	assert.Equal(t, "a_5Fb", EventKey("a_b"))
}

func TestEventKeyIsInjective(t *testing.T) {
	// The pairs below collide under naive replace-with-underscore
	// sanitization; the hex escaping keeps them apart.
	inputs := []string{
		"a b", "a_b", "a/b", "a-b",
		"a_2Fb", // looks like an already-escaped id
		"salsa night", "salsa_night", "salsa.night",
	}
	seen := map[string]string{}
	for _, in := range inputs {
		key := EventKey(in)
		prev, dup := seen[key]
		assert.False(t, dup, "EventKey(%q) collides with EventKey(%q)", in, prev)
		seen[key] = in
	}
}

func TestEventKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, EventKey("Sálsa Night!"), EventKey("Sálsa Night!"))
}

func TestPairKeyIsSymmetric(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice_bob", PairKey("bob", "alice"))
}

func TestPairKeySeparatorIsUnambiguous(t *testing.T) {
	// ("a_b", "c") and ("a", "b_c") would collide if handles were joined
	// unescaped.
	assert.NotEqual(t, PairKey("a_b", "c"), PairKey("a", "b_c"))
}

func TestSortedPair(t *testing.T) {
	a, b := SortedPair("zoe", "adam")
	assert.Equal(t, "adam", a)
	assert.Equal(t, "zoe", b)

	a, b = SortedPair("adam", "zoe")
	assert.Equal(t, "adam", a)
	assert.Equal(t, "zoe", b)
}

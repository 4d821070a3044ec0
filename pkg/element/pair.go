package element

import (
	"encoding/json"
	"errors"
)

// Pair is an unordered pair of concept names stored in sorted order, which
// makes it usable as a commutative cache key.
type Pair [2]string

// NewPair sorts a and b lexicographically (byte-wise, case-sensitive).
func NewPair(a, b string) Pair {
	if b < a {
		return Pair{b, a}
	}
	return Pair{a, b}
}

// Key returns a flat string form of the pair suitable for map keys.
func (p Pair) Key() string {
	return p[0] + "|" + p[1]
}

// MarshalJSON encodes the pair as a two element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{p[0], p[1]})
}

// UnmarshalJSON decodes a two element array and re-sorts it so hand-edited
// blobs cannot break the sorted invariant.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	if len(names) != 2 {
		return errors.New("recipe inputs must hold exactly two names")
	}
	*p = NewPair(names[0], names[1])
	return nil
}

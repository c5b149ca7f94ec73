// Package simhash fingerprints article text so that near-duplicate stories
// (syndicated copies, the same wire piece on two sites) can be detected.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// shingleSize is the number of consecutive words hashed together.
const shingleSize = 2

// Fingerprint computes a 64-bit SimHash of text. Words are lowercased and
// stripped of punctuation, then hashed as overlapping word pairs with
// FNV-64a. Text with no words fingerprints to 0.
func Fingerprint(text string) uint64 {
	words := normalizeWords(text)
	if len(words) == 0 {
		return 0
	}

	features := makeShingles(words, shingleSize)
	if len(features) == 0 {
		features = words
	}

	var vector [64]int
	h := fnv.New64a()
	for _, f := range features {
		h.Reset()
		h.Write([]byte(f))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// normalizeWords lowercases text and splits it on anything that is not a
// letter or digit.
func normalizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// makeShingles creates n-word shingles. It returns nil for fewer than n words.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], " "))
	}
	return shingles
}

package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// separatorPattern strips the separators users decorate names with before
// linguistic analysis ("j_o.h-n" and "john" should score the same).
var separatorPattern = regexp.MustCompile(`[_.\-]`)

// nonLetterPattern reduces a username to its letters for vowel and bigram
// analysis.
var nonLetterPattern = regexp.MustCompile(`[^a-z]`)

// commonBigrams is a compact set of the highest-frequency English letter
// pairs. Real names and words are dense in these; keyboard mashing is not.
var commonBigrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true,
	"re": true, "ed": true, "on": true, "es": true, "st": true,
	"en": true, "at": true, "to": true, "nt": true, "ha": true,
	"nd": true, "ou": true, "ea": true, "ng": true, "as": true,
	"or": true, "ti": true, "is": true, "et": true, "it": true,
	"ar": true, "te": true, "se": true, "hi": true, "of": true,
}

// Gibberish tuning thresholds. A single odd-looking signal is tolerated
// (plenty of real names trip exactly one); two or more reject.
const (
	// maxDigits is the most digits a plausible personal username carries.
	maxDigits = 4

	// minVowelRatio is the minimum share of true vowels among the
	// letters. y earns no credit here, so all-consonant mash like
	// "xxyy" scores zero; it still breaks consonant runs below.
	minVowelRatio = 0.25

	// maxConsonantRun is the longest consonant run tolerated.
	maxConsonantRun = 5

	// minBigramRatio is the minimum share of common English bigrams
	// among the name's letter pairs.
	minBigramRatio = 0.15
)

// IsGibberish reports whether a username looks like keyboard mashing
// rather than a human handle, with a reason describing which heuristics
// fired. Purely local string analysis: no allocation-heavy machinery, no
// network, safe to call concurrently.
func IsGibberish(username string) (bool, string) {
	clean := separatorPattern.ReplaceAllString(strings.ToLower(username), "")
	letters := nonLetterPattern.ReplaceAllString(clean, "")

	if letters == "" {
		return true, "no letters"
	}

	digits := 0
	for _, c := range username {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits > maxDigits {
		return true, fmt.Sprintf("too many digits (%d)", digits)
	}

	var failed []string

	// Vowel ratio.
	vowels := 0
	for _, c := range letters {
		if strings.ContainsRune("aeiou", c) {
			vowels++
		}
	}
	vowelRatio := float64(vowels) / float64(len(letters))
	if vowelRatio < minVowelRatio {
		failed = append(failed, fmt.Sprintf("low vowel ratio (%.2f)", vowelRatio))
	}

	// Longest consonant run. y counts as a vowel here: it breaks runs
	// ("rhythm" reads fine).
	run, maxRun := 0, 0
	for _, c := range letters {
		if strings.ContainsRune("aeiouy", c) {
			run = 0
			continue
		}
		run++
		if run > maxRun {
			maxRun = run
		}
	}
	if maxRun >= maxConsonantRun {
		failed = append(failed, fmt.Sprintf("long consonant run (%d)", maxRun))
	}

	// Common-bigram density.
	if len(letters) >= 2 {
		common := 0
		total := len(letters) - 1
		for i := 0; i < total; i++ {
			if commonBigrams[letters[i:i+2]] {
				common++
			}
		}
		bigramRatio := float64(common) / float64(total)
		if bigramRatio < minBigramRatio {
			failed = append(failed, fmt.Sprintf("rare bigrams (%.2f)", bigramRatio))
		}
	}

	if len(failed) >= 2 {
		return true, strings.Join(failed, "; ")
	}
	return false, ""
}

package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// businessKeywords are substrings that mark commercial accounts. Matching
// is deliberately aggressive: a hit anywhere in the lowercased username
// counts, even mid-word.
var businessKeywords = []string{
	// Core trade terms.
	"hotel", "agency", "consult", "consulting", "yacht", "yachting", "yachter", "club", "clubs",
	"restaurant", "ristorante", "trattoria", "bistro", "bar", "grill", "cafe", "cafeteria",
	// Corporate suffixes and structures.
	"corp", "inc", "ltd", "llc", "co", "company", "enterprises", "enterprise",
	"group", "holdings", "partners", "capital", "ventures", "studio", "media",
	// Services.
	"marketing", "logistics", "shipping", "freight", "travel", "tour", "tours",
	"rentals", "rental", "resort", "spa", "salon", "nails", "boutique", "shop", "store",
	"management", "agencia", "agence", "consultoria", "agencja",
	// Hospitality.
	"hostel", "motel", "guesthouse", "inn", "lounge", "steakhouse", "canteen",
	"catering", "bakery", "pizzeria", "sushi", "kebab", "taverna", "pub", "brewery",
	// Professional services.
	"coach", "coaching", "trainer", "training", "services", "solutions",
}

// businessBrands are well-known hospitality and food chains whose names
// show up in franchise and fan accounts.
var businessBrands = []string{
	"marriott", "hilton", "hyatt", "accor", "ihg", "ritz", "sheraton", "fourseasons",
	"mcdonalds", "burgerking", "dominos", "kfc", "subway", "starbucks",
}

// fuzzyMisspellings maps frequent misspellings to the business term they
// stand for. Tokens close to a key (but not close enough to contain the
// real keyword) are still treated as commercial.
var fuzzyMisspellings = map[string]string{
	"yact":      "yacht",
	"restraunt": "restaurant",
	"resto":     "restaurant",
	"agance":    "agency",
}

// fuzzyKeys fixes the comparison order so ties resolve the same way on
// every run.
var fuzzyKeys = []string{"yact", "restraunt", "resto", "agance"}

const (
	// fuzzyThreshold is the minimum similarity (0-100) for a token to
	// count as a misspelled business term.
	fuzzyThreshold = 90

	// maxFuzzyTokenLen skips long tokens: similarity scores on long
	// strings drift high and produce junk matches.
	maxFuzzyTokenLen = 12
)

// tokenSplitPattern breaks a username into tokens for fuzzy matching.
var tokenSplitPattern = regexp.MustCompile(`[._\-|/\\\s]+`)

// levenshtein scores token similarity for the misspelling check. The
// metric holds only configuration, so sharing one instance across
// goroutines is safe.
var levenshtein = metrics.NewLevenshtein()

// IsBusiness reports whether a username looks like a commercial account
// rather than a personal one, with a reason naming the matched term.
func IsBusiness(username string) (bool, string) {
	lc := strings.ToLower(username)

	for _, kw := range businessKeywords {
		if strings.Contains(lc, kw) {
			return true, "business keyword: " + kw
		}
	}
	for _, brand := range businessBrands {
		if strings.Contains(lc, brand) {
			return true, "business keyword: " + brand
		}
	}

	for _, token := range tokenSplitPattern.Split(lc, -1) {
		if token == "" || len(token) > maxFuzzyTokenLen {
			continue
		}
		bestScore := 0.0
		bestKey := ""
		for _, key := range fuzzyKeys {
			if score := strutil.Similarity(token, key, levenshtein) * 100; score > bestScore {
				bestScore, bestKey = score, key
			}
		}
		if bestScore >= fuzzyThreshold {
			return true, fmt.Sprintf("fuzzy match: %s -> %s", token, fuzzyMisspellings[bestKey])
		}
	}
	return false, ""
}

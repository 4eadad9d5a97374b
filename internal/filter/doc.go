// Package filter screens usernames with cheap local heuristics before any
// network or AI spend. The checks run in fixed order, gibberish first,
// and the first hit wins.
package filter

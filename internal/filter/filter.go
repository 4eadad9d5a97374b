package filter

import "github.com/HansBhatia/genderscan/internal/model"

// Verdict is the outcome of screening one username.
type Verdict struct {
	// Accepted is true when no heuristic fired and the username should
	// continue to profile fetch.
	Accepted bool
	// Status is the rejection status when Accepted is false.
	Status model.Status
	// Reason describes which heuristic fired, empty when accepted.
	Reason string
}

// Classify screens a username. Order matters: the gibberish check runs
// before the business check, so a mashed-keyboard handle that happens to
// contain a trade term is reported as gibberish. Pure string analysis,
// safe for concurrent use.
func Classify(username string) Verdict {
	if gibberish, reason := IsGibberish(username); gibberish {
		return Verdict{Status: model.StatusRejectedGibberish, Reason: reason}
	}
	if business, reason := IsBusiness(username); business {
		return Verdict{Status: model.StatusRejectedBusiness, Reason: reason}
	}
	return Verdict{Accepted: true}
}

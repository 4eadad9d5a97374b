package classifier

import (
	"context"

	"github.com/HansBhatia/genderscan/internal/model"
)

// Request carries everything a classifier may use for one verdict. Avatar
// is optional; a request without image bytes is classified on the name
// alone.
type Request struct {
	// Username is the account's username.
	Username string

	// FullName is the display name from the profile. May be empty.
	FullName string

	// Avatar is the profile picture, or nil for name-only mode.
	Avatar []byte

	// AvatarMIME is the content type of Avatar ("image/jpeg").
	AvatarMIME string
}

// Classifier produces a gender verdict for one profile.
//
// Detect returns a Classification value, never an error: a failed call is
// a {Success: false} verdict so the caller can record it and move on. The
// classifier must be safe for concurrent use; the pipeline fans many
// detections out against one instance.
type Classifier interface {
	Detect(ctx context.Context, req Request) model.Classification
	Close() error
}

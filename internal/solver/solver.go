// Package solver decodes arithmetic CAPTCHA images through an external
// vision model and reduces the model's free-text reply to a signed integer.
package solver

import (
	"context"
	"regexp"

	"github.com/courtlens/casestatus-api/internal/court"
)

// Solver turns a captcha image into its numeric answer.
type Solver interface {
	// Name identifies the solver backend for logging.
	Name() string

	// Solve returns the captcha answer as decimal text (e.g. "11", "-3").
	// Failures are classified: KindSolverFailure when the oracle call itself
	// failed, KindAmbiguousAnswer when its reply held no parseable integer.
	Solve(ctx context.Context, image []byte) (string, error)
}

var signedIntRe = regexp.MustCompile(`-?\d+`)

// ParseAnswer extracts the first signed integer from a model reply. The
// captcha is always a two-term addition or subtraction, so one signed
// integer is the only acceptable shape; anything else is ambiguous and must
// not be replayed against the (single-use) image.
func ParseAnswer(reply string) (string, error) {
	m := signedIntRe.FindString(reply)
	if m == "" {
		return "", court.Errf(court.KindAmbiguousAnswer, "no numeric answer in solver reply %q", reply)
	}
	return m, nil
}

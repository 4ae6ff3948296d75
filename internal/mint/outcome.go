package mint

import (
	"errors"
	"net/http"

	"github.com/mbc20/clawmint/internal/moltbook"
)

// Outcome is the classification of a single mint attempt.
type Outcome int

const (
	// OutcomeSuccess means the post landed (HTTP 200/201 with a post body).
	OutcomeSuccess Outcome = iota
	// OutcomeRateLimited means the server answered 429.
	OutcomeRateLimited
	// OutcomeUnknown covers everything else, transport failures included.
	OutcomeUnknown
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Classify buckets a CreatePost result into an outcome. For rate-limited
// attempts the returned APIError carries any retry-after hints the server
// sent; it is nil otherwise.
func Classify(res *moltbook.PostResult, err error) (Outcome, *moltbook.APIError) {
	if err == nil && res != nil && (res.Success || res.Post != nil) {
		return OutcomeSuccess, nil
	}

	var apiErr *moltbook.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return OutcomeRateLimited, apiErr
	}

	return OutcomeUnknown, nil
}

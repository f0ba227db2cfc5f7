package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureCategory is the diagnostic class of a failed remote fetch.
type FailureCategory string

const (
	// FailureConnectivity covers unreachable hosts, refused connections and timeouts.
	FailureConnectivity FailureCategory = "connectivity"
	// FailureOther covers everything else: bad status codes, malformed payloads.
	FailureOther FailureCategory = "other"
)

// FetchFailure is the outcome of a remote merge that did not complete. It
// never aborts startup; the coordinator logs it and serves baseline data.
type FetchFailure struct {
	Category FailureCategory
	Err      error
}

func (f *FetchFailure) Error() string {
	return fmt.Sprintf("remote feed %s failure: %v", f.Category, f.Err)
}

func (f *FetchFailure) Unwrap() error { return f.Err }

// Classify wraps err in a FetchFailure with its diagnostic category.
func Classify(err error) *FetchFailure {
	if err == nil {
		return nil
	}
	return &FetchFailure{Category: categorize(err), Err: err}
}

func categorize(err error) FailureCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureConnectivity
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureConnectivity
	}
	return FailureOther
}

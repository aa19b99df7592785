package domain

import (
	"fmt"
	"strings"
)

// Result is the outcome of a step or of a single command: either success or
// a failure carrying its kind and a human readable detail.
type Result struct {
	failed bool
	Kind   FailureKind
	Detail string
}

// Success returns a successful result
func Success() Result {
	return Result{}
}

// Failure returns a failed result with the given kind and formatted detail
func Failure(kind FailureKind, format string, args ...any) Result {
	if kind == KindNone {
		kind = KindCommandFailed
	}
	return Result{failed: true, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// OK reports whether the result is a success
func (r Result) OK() bool {
	return !r.failed
}

// String renders the result for logs and reports
func (r Result) String() string {
	if r.OK() {
		return "ok"
	}
	if r.Detail == "" {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
}

// Join folds results into one. It succeeds only if every result succeeded;
// otherwise the kind of the first failure is kept and all failure details
// are joined in order.
func Join(results ...Result) Result {
	var kind FailureKind
	var details []string
	for _, r := range results {
		if r.OK() {
			continue
		}
		if kind == KindNone {
			kind = r.Kind
		}
		if r.Detail != "" {
			details = append(details, r.Detail)
		}
	}
	if kind == KindNone {
		return Success()
	}
	return Result{failed: true, Kind: kind, Detail: strings.Join(details, "; ")}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"errors"
	"fmt"
)

// QuotaUnknown is reported when a response carries no usable
// X-RateLimit-Remaining header.
const QuotaUnknown = -1

// ErrQuotaExhausted is matched by a QueryError of kind QuotaExhausted.
var ErrQuotaExhausted = errors.New("scopus weekly quota exhausted")

// ErrorKind distinguishes the ways a query can fail in-band.
type ErrorKind int

const (
	// Rejected means the API answered with an error placeholder entry
	// (typically "Result set was empty" or a syntax error).
	Rejected ErrorKind = iota

	// ParseFailure means the body was not the expected search-results shape.
	ParseFailure

	// QuotaExhausted means the request was refused with HTTP 429 and no
	// remaining quota. The query was never run.
	QuotaExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case ParseFailure:
		return "parse failure"
	case QuotaExhausted:
		return "quota exhausted"
	}
	return "rejected"
}

// QueryError is a query-level failure. It is a value the retrieval strategy
// reacts to, not a transport fault, and always carries the quota seen on the
// response that produced it.
type QueryError struct {
	Query      string
	Kind       ErrorKind
	Diagnostic string
	Quota      int
	Status     int
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("scopus query %q %s (HTTP %d): %s", e.Query, e.Kind, e.Status, e.Diagnostic)
}

// Unwrap lets errors.Is match ErrQuotaExhausted.
func (e *QueryError) Unwrap() error {
	if e.Kind == QuotaExhausted {
		return ErrQuotaExhausted
	}
	return nil
}

// AsQueryError unwraps err into a *QueryError.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// QuotaOf returns the quota carried by a QueryError, or QuotaUnknown.
func QuotaOf(err error) int {
	if qe, ok := AsQueryError(err); ok {
		return qe.Quota
	}
	return QuotaUnknown
}

package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUploadRequired signals that the plan demands an uploaded Pricing2Yaml
// document but none was supplied with the request.
var ErrUploadRequired = errors.New("a Pricing2Yaml upload is required to proceed; upload a document and retry")

// ErrNoPricingContext signals that a tool step was planned with no pricing
// URL or upload available at all.
var ErrNoPricingContext = errors.New("provide at least one pricing URL or Pricing2Yaml upload before calling tooling")

// ErrSpecUnavailable signals that the Pricing2Yaml specification resource
// could not be read from the tool server.
var ErrSpecUnavailable = errors.New("Pricing2Yaml specification is unavailable; ensure the specification resource is exposed by the tool server")

// PlanParseError reports a planning response that could not be interpreted.
type PlanParseError struct {
	Reason string
}

func (e *PlanParseError) Error() string { return e.Reason }

// PlanExhaustedError reports that the bounded correction loop ran out of
// attempts without obtaining a plan that satisfies the required actions.
type PlanExhaustedError struct {
	LastIssue string
}

func (e *PlanExhaustedError) Error() string {
	msg := "failed to obtain a planning response that satisfies tool requirements"
	if e.LastIssue != "" {
		msg += ": " + e.LastIssue
	}
	return msg
}

// UnknownReferenceError reports a pricing context reference that matches no
// known URL, upload alias, or URL shape.
type UnknownReferenceError struct {
	Reference string
	Known     []string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown pricing context %q; use one of: %s", e.Reference, strings.Join(e.Known, ", "))
}

// AmbiguousReferenceError reports that multiple pricing contexts exist and an
// action did not select one.
type AmbiguousReferenceError struct {
	Available []string
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("multiple pricing contexts detected; set pricing_url on each action to choose one of: %s", strings.Join(e.Available, ", "))
}

// TransportError wraps a completion-service transport failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "llm transport failure: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// Package stateful walks the link graph one step at a time: it builds a case,
// seeds it with values extracted from earlier responses, hands it to the
// transport, validates the response and records the result for later steps.
package stateful

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/json"
)

// Response is the transport's view of a received response.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the parsed JSON body tree. Populated by the stepper from
	// RawBody when the transport leaves it nil.
	Body any
	// RawBody is the body as received.
	RawBody []byte
}

// Transport sends a built case and returns the response. The engine never
// sends anything itself.
type Transport interface {
	Send(ctx context.Context, c *cases.Case) (*Response, error)
}

// parseBody decodes the raw body into a generic tree when the response
// carries JSON. Other formats are left unparsed.
func (r *Response) parseBody() {
	if r.Body != nil || len(r.RawBody) == 0 {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "json") {
		return
	}

	if v, err := json.DecodeAny(r.RawBody); err == nil {
		r.Body = v
	}
}

// StepResult is the output of one executed step. Owned by the scenario that
// produced it; transitions derived from it only reference it.
type StepResult struct {
	Case     *cases.Case
	Response *Response
	Elapsed  time.Duration

	// CheckFailures holds response conformance and criterion failures. A
	// failure does not stop subsequent steps by itself.
	CheckFailures []CheckFailure
}

// Failed reports whether any check failed for the step.
func (r *StepResult) Failed() bool {
	return len(r.CheckFailures) > 0
}

// CheckFailure is one failed response check.
type CheckFailure struct {
	// Selector is the response status selector the check ran against, empty
	// for checks not tied to a declared response.
	Selector string
	Err      error
}

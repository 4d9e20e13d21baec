package expression

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/jsonpointer"
	"github.com/apiprobe/apiprobe/sequencedmap"
)

const (
	// ErrExtraction is returned when an expression's target is absent from
	// the request/response it is evaluated against. It marks a failed
	// extraction, not a fatal failure of the step it belongs to.
	ErrExtraction = errors.Error("extraction failed")
)

// RequestData is the view of a sent request an expression evaluates against.
type RequestData struct {
	Method string
	URL    string
	Path   *sequencedmap.Map[string, any]
	Query  *sequencedmap.Map[string, any]
	Header *sequencedmap.Map[string, any]
	Cookie *sequencedmap.Map[string, any]
	Body   any
}

// ResponseData is the view of a received response an expression evaluates
// against. Body is the parsed JSON body tree, nil when the body was absent
// or not JSON.
type ResponseData struct {
	StatusCode int
	Header     http.Header
	Body       any
}

// Eval evaluates the expression against a request/response pair. Evaluation
// never mutates its inputs. Missing targets return an ErrExtraction wrap.
func (e Expression) Eval(req *RequestData, resp *ResponseData) (any, error) {
	typ, reference, parts, jp := e.GetParts()

	switch typ {
	case ExpressionTypeURL:
		if req == nil {
			return nil, ErrExtraction.Wrap(fmt.Errorf("no request available for %s", e))
		}
		return req.URL, nil
	case ExpressionTypeMethod:
		if req == nil {
			return nil, ErrExtraction.Wrap(fmt.Errorf("no request available for %s", e))
		}
		return req.Method, nil
	case ExpressionTypeStatusCode:
		if resp == nil {
			return nil, ErrExtraction.Wrap(fmt.Errorf("no response available for %s", e))
		}
		return strconv.Itoa(resp.StatusCode), nil
	case ExpressionTypeRequest:
		return e.evalRequest(req, reference, parts, jp)
	case ExpressionTypeResponse:
		return e.evalResponse(resp, reference, parts, jp)
	default:
		return nil, ErrExtraction.Wrap(fmt.Errorf("unsupported expression type %q in %s", typ, e))
	}
}

func (e Expression) evalRequest(req *RequestData, reference string, parts []string, jp jsonpointer.JSONPointer) (any, error) {
	if req == nil {
		return nil, ErrExtraction.Wrap(fmt.Errorf("no request available for %s", e))
	}

	switch reference {
	case ReferenceTypeBody:
		return e.evalBody(req.Body, jp)
	case ReferenceTypePath:
		return e.lookup(req.Path, parts)
	case ReferenceTypeQuery:
		return e.lookup(req.Query, parts)
	case ReferenceTypeHeader:
		return e.lookup(req.Header, parts)
	default:
		return nil, ErrExtraction.Wrap(fmt.Errorf("unsupported request reference %q in %s", reference, e))
	}
}

func (e Expression) evalResponse(resp *ResponseData, reference string, parts []string, jp jsonpointer.JSONPointer) (any, error) {
	if resp == nil {
		return nil, ErrExtraction.Wrap(fmt.Errorf("no response available for %s", e))
	}

	switch reference {
	case ReferenceTypeBody:
		return e.evalBody(resp.Body, jp)
	case ReferenceTypeHeader:
		if len(parts) != 1 {
			return nil, ErrExtraction.Wrap(fmt.Errorf("expected a header name in %s", e))
		}

		values := resp.Header.Values(parts[0])
		if len(values) == 0 {
			return nil, ErrExtraction.Wrap(fmt.Errorf("header %s not present in response for %s", parts[0], e))
		}
		return values[0], nil
	default:
		return nil, ErrExtraction.Wrap(fmt.Errorf("unsupported response reference %q in %s", reference, e))
	}
}

func (e Expression) evalBody(body any, jp jsonpointer.JSONPointer) (any, error) {
	if jp == "" {
		return body, nil
	}

	if body == nil {
		return nil, ErrExtraction.Wrap(fmt.Errorf("no body available for %s", e))
	}

	target, err := jsonpointer.GetTarget(body, jp)
	if err != nil {
		return nil, ErrExtraction.Wrap(fmt.Errorf("pointer %s: %w", jp, err))
	}

	return target, nil
}

func (e Expression) lookup(values *sequencedmap.Map[string, any], parts []string) (any, error) {
	if len(parts) != 1 {
		return nil, ErrExtraction.Wrap(fmt.Errorf("expected a single name in %s", e))
	}

	v, ok := values.Get(parts[0])
	if !ok {
		return nil, ErrExtraction.Wrap(fmt.Errorf("%s not present in request for %s", parts[0], e))
	}

	return v, nil
}

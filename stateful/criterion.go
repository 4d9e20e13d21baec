package stateful

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/apiprobe/apiprobe/cases"
	"github.com/apiprobe/apiprobe/errors"
	"github.com/apiprobe/apiprobe/expression"
	"github.com/apiprobe/apiprobe/jsonschema"
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath/config"
	"gopkg.in/yaml.v3"
)

const (
	// ErrCriterion is returned when a step's success criterion is not
	// satisfied.
	ErrCriterion = errors.Error("criterion not satisfied")
	// ErrInvalidCriterion is returned for a criterion that cannot be
	// evaluated at all.
	ErrInvalidCriterion = errors.Error("invalid criterion")
)

// CriterionType represents the kind of condition a criterion evaluates.
type CriterionType string

const (
	// CriterionTypeSimple evaluates a [expression] [operator] [value]
	// condition.
	CriterionTypeSimple CriterionType = "simple"
	// CriterionTypeRegex matches the context value against a regular
	// expression.
	CriterionTypeRegex CriterionType = "regex"
	// CriterionTypeJSONPath requires a JSONPath query over the context value
	// to select at least one node.
	CriterionTypeJSONPath CriterionType = "jsonpath"
)

// Criterion is one success condition evaluated against a step's
// request/response pair.
type Criterion struct {
	// Context is the expression to the value the condition runs against.
	// Required for regex and jsonpath criteria.
	Context expression.Expression
	// Condition is the condition to be evaluated.
	Condition string
	// Type is the kind of condition. Defaults to simple.
	Type CriterionType
}

// GetType returns the criterion's type, defaulting to simple.
func (c Criterion) GetType() CriterionType {
	if c.Type == "" {
		return CriterionTypeSimple
	}
	return c.Type
}

// Check evaluates the criterion. A failed condition returns an ErrCriterion
// wrap; a condition that cannot be evaluated returns ErrInvalidCriterion.
func (c Criterion) Check(req *expression.RequestData, resp *expression.ResponseData) error {
	switch c.GetType() {
	case CriterionTypeSimple:
		return c.checkSimple(req, resp)
	case CriterionTypeRegex:
		return c.checkRegex(req, resp)
	case CriterionTypeJSONPath:
		return c.checkJSONPath(req, resp)
	default:
		return ErrInvalidCriterion.Wrap(fmt.Errorf("unknown criterion type %q", c.Type))
	}
}

func (c Criterion) checkSimple(req *expression.RequestData, resp *expression.ResponseData) error {
	cond, err := parseCondition(c.Condition)
	if err != nil {
		return ErrInvalidCriterion.Wrap(err)
	}

	got, err := cond.expr.Eval(req, resp)
	if err != nil {
		return ErrCriterion.Wrap(err)
	}

	ok, err := compare(got, cond.operator, cond.value)
	if err != nil {
		return ErrInvalidCriterion.Wrap(err)
	}
	if !ok {
		return ErrCriterion.Wrap(fmt.Errorf("%s: got %s", c.Condition, cases.FormatValue(got)))
	}

	return nil
}

func (c Criterion) checkRegex(req *expression.RequestData, resp *expression.ResponseData) error {
	re, err := regexp.Compile(c.Condition)
	if err != nil {
		return ErrInvalidCriterion.Wrap(err)
	}

	got, err := c.Context.Eval(req, resp)
	if err != nil {
		return ErrCriterion.Wrap(err)
	}

	if !re.MatchString(cases.FormatValue(got)) {
		return ErrCriterion.Wrap(fmt.Errorf("%s does not match %s", cases.FormatValue(got), c.Condition))
	}

	return nil
}

func (c Criterion) checkJSONPath(req *expression.RequestData, resp *expression.ResponseData) error {
	path, err := jsonpath.NewPath(c.Condition, config.WithPropertyNameExtension())
	if err != nil {
		return ErrInvalidCriterion.Wrap(err)
	}

	context := c.Context
	if context == "" {
		context = "$response.body"
	}

	got, err := context.Eval(req, resp)
	if err != nil {
		return ErrCriterion.Wrap(err)
	}

	node, err := valueToNode(got)
	if err != nil {
		return ErrInvalidCriterion.Wrap(err)
	}

	if len(path.Query(node)) == 0 {
		return ErrCriterion.Wrap(fmt.Errorf("%s selected nothing", c.Condition))
	}

	return nil
}

// valueToNode converts an extracted value into a yaml node tree for JSONPath
// querying.
func valueToNode(v any) (*yaml.Node, error) {
	data, err := yaml.Marshal(jsonschema.Plain(v))
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return node.Content[0], nil
	}
	return &node, nil
}

type condition struct {
	expr     expression.Expression
	operator string
	value    string
}

// parseCondition splits a simple condition into its expression, operator and
// literal value, joining quoted literals back together.
func parseCondition(raw string) (*condition, error) {
	if !strings.HasPrefix(raw, "$") {
		return nil, fmt.Errorf("condition must start with an expression: %s", raw)
	}

	parts := strings.Split(raw, " ")
	parts = joinQuoted(parts, "'")
	parts = joinQuoted(parts, `"`)

	if len(parts) != 3 {
		return nil, fmt.Errorf("condition must be [expression] [operator] [value]: %s", raw)
	}

	expr := expression.Expression(parts[0])
	if err := expr.Validate(); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return nil, fmt.Errorf("unsupported operator %q in %s", parts[1], raw)
	}

	return &condition{
		expr:     expr,
		operator: parts[1],
		value:    unquote(parts[2]),
	}, nil
}

// joinQuoted rejoins a quoted literal value that spaces split apart.
func joinQuoted(parts []string, quote string) []string {
	if len(parts) > 3 && strings.HasPrefix(parts[2], quote) && strings.HasSuffix(parts[len(parts)-1], quote) {
		parts[2] = strings.Join(parts[2:], " ")
		return parts[:3]
	}
	return parts
}

func unquote(s string) string {
	for _, quote := range []string{"'", `"`} {
		if len(s) >= 2 && strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func compare(got any, operator, want string) (bool, error) {
	gotStr := cases.FormatValue(jsonschema.Plain(got))

	gotNum, gotErr := strconv.ParseFloat(gotStr, 64)
	wantNum, wantErr := strconv.ParseFloat(want, 64)
	numeric := gotErr == nil && wantErr == nil

	switch operator {
	case "==":
		if numeric {
			return gotNum == wantNum, nil
		}
		return gotStr == want, nil
	case "!=":
		if numeric {
			return gotNum != wantNum, nil
		}
		return gotStr != want, nil
	case "<", "<=", ">", ">=":
		if !numeric {
			return false, fmt.Errorf("operator %s requires numeric operands, got %q and %q", operator, gotStr, want)
		}
		switch operator {
		case "<":
			return gotNum < wantNum, nil
		case "<=":
			return gotNum <= wantNum, nil
		case ">":
			return gotNum > wantNum, nil
		default:
			return gotNum >= wantNum, nil
		}
	default:
		return false, fmt.Errorf("unsupported operator %q", operator)
	}
}

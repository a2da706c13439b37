package evaluator

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services"
	"github.com/expr-lang/expr"
	"go.uber.org/zap"
)

const (
	// DefaultMaxResultLength bounds the textual result size.
	DefaultMaxResultLength = 5000

	// TruncationMarker is appended to results cut at the length bound.
	TruncationMarker = "... [truncated]"

	// AutoCorrectPrefix marks results recovered from an
	// assignment-instead-of-expression snippet.
	AutoCorrectPrefix = "(auto-corrected) "

	// NoValueMessage is returned when a snippet runs without producing
	// any value, result variable or printed output.
	NoValueMessage = "snippet executed successfully but produced no value"
)

// deniedTerms is the static pre-check denylist: module/import access,
// file IO, process and OS access, reflection, network primitives and
// mutation keywords. This is defense in depth on top of the expression
// engine's own capability boundary, not the boundary itself; substring
// matching is knowingly coarse.
var deniedTerms = []string{
	"import", "require(", "module", "__",
	"open(", "file(", "read_csv", "to_csv", "pickle",
	"os.", "sys.", "exec", "eval(", "subprocess", "system", "popen", "shell", "input(",
	"reflect", "getattr", "setattr", "globals", "locals",
	"socket", "urllib", "requests", "http://", "https://",
	"write", "delete", "remove", "drop",
}

// assignmentPattern matches a single top-level assignment `name = expr`
// without matching comparison operators (==, !=, <=, >=).
var assignmentPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

// Service evaluates caller-supplied snippets against a dataset inside a
// restricted namespace. The calling agent is an LLM, so the service
// tolerates its common mistakes (assignments instead of expressions,
// multi-statement snippets) instead of failing them outright.
type Service struct {
	logger    *zap.Logger
	maxResult int
}

// Option configures the evaluator service.
type Option func(*Service)

// WithMaxResultLength overrides the result length bound.
func WithMaxResultLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResult = n
		}
	}
}

// NewService creates an evaluator service.
func NewService(logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		logger:    logger,
		maxResult: DefaultMaxResultLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Evaluate runs the snippet against the record set and returns a textual
// result. The returned error is non-nil only for pre-execution
// rejections (empty snippet, denylist hit); every runtime failure is
// caught and reported inside the result string so the caller never sees
// a fault from this subsystem.
func (s *Service) Evaluate(rs *models.RecordSet, snippet string) (result string, err error) {
	trimmed := strings.TrimSpace(snippet)
	if trimmed == "" {
		return "", services.NewDomainError(services.ErrorTypeValidation, "snippet cannot be empty", nil)
	}

	if term, hit := s.checkDenylist(trimmed); hit {
		s.logger.Warn("snippet rejected by security pre-check",
			zap.String("term", term))
		return "", services.NewDomainError(services.ErrorTypeSecurityViolation,
			fmt.Sprintf("snippet rejected: contains forbidden term %q", term), nil)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("snippet evaluation panicked", zap.Any("panic", r))
			result = fmt.Sprintf("evaluation error: %v", r)
			err = nil
		}
	}()

	var captured strings.Builder
	env := buildEnv(rs, &captured)

	// Auto-correction: the calling agent routinely writes
	// `total = table['x'].sum()` when it means the bare expression.
	if m := assignmentPattern.FindStringSubmatch(trimmed); m != nil && !strings.ContainsAny(trimmed, "\n;") {
		value, evalErr := evalExpression(strings.TrimSpace(m[2]), env)
		if evalErr != nil {
			return fmt.Sprintf("evaluation error: %v", evalErr), nil
		}
		if value == nil {
			return NoValueMessage, nil
		}
		return AutoCorrectPrefix + s.truncate(formatValue(value)), nil
	}

	// Primary path: the whole snippet as one expression.
	if value, evalErr := evalExpression(trimmed, env); evalErr == nil && value != nil {
		return s.truncate(formatValue(value)), nil
	}

	// Statement fallback: run line by line in the same namespace. The
	// capture buffer is reset so output from the failed primary attempt
	// is not double-counted.
	captured.Reset()
	return s.runStatements(trimmed, env, &captured), nil
}

// checkDenylist returns the first forbidden term contained in the snippet.
func (s *Service) checkDenylist(snippet string) (string, bool) {
	lower := strings.ToLower(snippet)
	for _, term := range deniedTerms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

// runStatements executes the snippet as a sequence of statements,
// splitting on newlines and semicolons. Assignments extend the
// namespace; the `result` variable, captured print output and the last
// expression value are consulted in that order.
func (s *Service) runStatements(snippet string, env map[string]any, captured *strings.Builder) string {
	var lastValue any
	resultSet := false

	for _, stmt := range splitStatements(snippet) {
		if m := assignmentPattern.FindStringSubmatch(stmt); m != nil {
			value, err := evalExpression(strings.TrimSpace(m[2]), env)
			if err != nil {
				return fmt.Sprintf("evaluation error: %v", err)
			}
			env[m[1]] = value
			if m[1] == "result" {
				resultSet = true
			}
			continue
		}

		value, err := evalExpression(stmt, env)
		if err != nil {
			return fmt.Sprintf("evaluation error: %v", err)
		}
		if value != nil {
			lastValue = value
		}
	}

	if resultSet {
		return s.truncate(formatValue(env["result"]))
	}
	if captured.Len() > 0 {
		return s.truncate(strings.TrimRight(captured.String(), "\n"))
	}
	if lastValue != nil {
		return s.truncate(formatValue(lastValue))
	}
	return NoValueMessage
}

// truncate cuts the result at the configured bound and appends a marker.
func (s *Service) truncate(text string) string {
	if len(text) <= s.maxResult {
		return text
	}
	return text[:s.maxResult] + TruncationMarker
}

// evalExpression compiles and runs one expression against the namespace.
func evalExpression(code string, env map[string]any) (any, error) {
	program, err := expr.Compile(code)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// splitStatements breaks a snippet into non-empty statements.
func splitStatements(snippet string) []string {
	raw := strings.FieldsFunc(snippet, func(r rune) bool {
		return r == '\n' || r == ';'
	})
	statements := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}
	return statements
}

// formatValue renders an evaluation result as text. Floats drop
// trailing zeros so aggregate sums read naturally; maps are rendered
// with sorted keys for deterministic output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]int:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %d", k, x[k])
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, formatValue(x[k]))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprintf("%v", x)
	}
}

package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/fascicolo/internal/queryir"
)

// table is the only source a worklist reads.
const table = "cases"

// SQLCompiler compiles worklist queries to parameterized SQL for SQLite.
//
// Every query selects the case body, orders by id with a binary collation
// and passes every value as a ? parameter.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Worklist:
		return c.compileWorklist(query)
	case *queryir.Worklist:
		return c.compileWorklist(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileWorklist(w queryir.Worklist) (string, []any, error) {
	var sb strings.Builder
	params := []any{}

	sb.WriteString("SELECT body FROM ")
	sb.WriteString(table)

	if w.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(w.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(filterSQL)
		params = append(params, filterParams...)
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(stableOrderKey)

	if w.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, int64(w.Limit))
	}

	return sb.String(), params, nil
}

// stableOrderKey is appended to every query.
const stableOrderKey = "id COLLATE BINARY ASC"

// compilePredicate compiles a predicate to a WHERE fragment.
// Values are never interpolated.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return fmt.Sprintf("%s = ?", eq.Field), []any{param}, nil
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	params := make([]any, 0, len(in.Values))
	for _, v := range in.Values {
		param, err := toParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", in.Field, err)
		}
		params = append(params, param)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, marks), params, nil
}

// compileJunction joins predicates with op. Each part is parenthesized
// so nested AND/OR keep their grouping.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	if len(preds) == 1 {
		return c.compilePredicate(preds[0])
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, pred := range preds {
		sql, p, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, op), params, nil
}

// toParam converts a literal to a database/sql parameter.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

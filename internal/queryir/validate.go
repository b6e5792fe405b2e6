package queryir

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks a query against the closed field set and value kinds.
// It returns nil or a *ValidationError listing every problem.
//
// Validate is a pure function with no side effects.
func Validate(query Query) error {
	v := &validator{}
	v.validateQuery(query)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Worklist:
		v.validateWorklist(query)
	case *Worklist:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateWorklist(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateWorklist(w Worklist) {
	if w.Limit < 0 {
		v.addProblem("negative limit %d", w.Limit)
	}
	if w.Filter != nil {
		v.validatePredicate(w.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.validateValue(pred.Field, pred.Value)
	case *Equals:
		v.validateValue(pred.Field, pred.Value)
	case In:
		v.validateIn(pred)
	case *In:
		v.validateIn(*pred)
	case And:
		v.validateAll(pred.Predicates)
	case *And:
		v.validateAll(pred.Predicates)
	case Or:
		v.validateAll(pred.Predicates)
	case *Or:
		v.validateAll(pred.Predicates)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateIn(in In) {
	if len(in.Values) == 0 {
		v.addProblem("field %q: empty IN list", in.Field)
		return
	}
	for _, val := range in.Values {
		v.validateValue(in.Field, val)
	}
}

func (v *validator) validateAll(preds []Predicate) {
	for _, p := range preds {
		v.validatePredicate(p)
	}
}

func (v *validator) validateValue(f Field, val any) {
	kind, ok := fieldKinds[f]
	if !ok {
		v.addProblem("unknown field %q", f)
		return
	}
	switch val.(type) {
	case string:
		if kind != kindText {
			v.addProblem("field %q: want integer, got string", f)
		}
	case int, int64:
		if kind != kindInt {
			v.addProblem("field %q: want string, got integer", f)
		}
	default:
		v.addProblem("field %q: unsupported value type %T", f, val)
	}
}

// internal/adapter/storage/predicates.go

package storage

import (
	"fmt"
	"strings"
)

// predicate is one AND-combined WHERE clause fragment. The expression
// uses $%d verbs, one per argument, which are resolved to sequential
// placeholders when the set is compiled.
type predicate struct {
	expr string
	args []interface{}
}

// predicateSet collects optional filter predicates. Both the row query
// and the count query of a search are compiled from the same set, so
// their placeholders and argument lists can never diverge.
type predicateSet struct {
	preds []predicate
}

func newPredicateSet() *predicateSet {
	return &predicateSet{}
}

// add appends a predicate. expr must contain exactly one $%d verb per
// argument, in argument order.
func (ps *predicateSet) add(expr string, args ...interface{}) {
	ps.preds = append(ps.preds, predicate{expr: expr, args: args})
}

// where compiles the set into a WHERE clause and its argument list.
// Placeholders are assigned sequentially starting at $1, in the order
// predicates were added. An empty set compiles to an empty clause.
func (ps *predicateSet) where() (string, []interface{}) {
	if len(ps.preds) == 0 {
		return "", nil
	}

	var clauses []string
	var args []interface{}
	index := 1

	for _, p := range ps.preds {
		verbs := make([]interface{}, len(p.args))
		for i := range p.args {
			verbs[i] = index
			index++
		}
		clauses = append(clauses, fmt.Sprintf(p.expr, verbs...))
		args = append(args, p.args...)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// nextIndex returns the placeholder index available after the compiled
// predicates, for LIMIT/OFFSET style suffixes appended by the caller.
func (ps *predicateSet) nextIndex() int {
	n := 1
	for _, p := range ps.preds {
		n += len(p.args)
	}
	return n
}

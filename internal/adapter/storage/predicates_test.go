// internal/adapter/storage/predicates_test.go

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateSetWhere(t *testing.T) {
	t.Run("empty set compiles to empty clause", func(t *testing.T) {
		ps := newPredicateSet()
		clause, args := ps.where()
		assert.Empty(t, clause)
		assert.Nil(t, args)
		assert.Equal(t, 1, ps.nextIndex())
	})

	t.Run("single predicate", func(t *testing.T) {
		ps := newPredicateSet()
		ps.add("e.start_time >= $%d", "2026-01-01")

		clause, args := ps.where()
		assert.Equal(t, "WHERE e.start_time >= $1", clause)
		assert.Equal(t, []interface{}{"2026-01-01"}, args)
		assert.Equal(t, 2, ps.nextIndex())
	})

	t.Run("placeholders are sequential across predicates", func(t *testing.T) {
		ps := newPredicateSet()
		ps.add("e.location IS NOT NULL")
		ps.add("ST_DWithin(e.location, ST_MakePoint($%d, $%d), $%d)", -74.0060, 40.7128, 10000.0)
		ps.add("e.start_time >= $%d", "2026-01-01")

		clause, args := ps.where()
		assert.Equal(t,
			"WHERE e.location IS NOT NULL AND ST_DWithin(e.location, ST_MakePoint($1, $2), $3) AND e.start_time >= $4",
			clause)
		assert.Equal(t, []interface{}{-74.0060, 40.7128, 10000.0, "2026-01-01"}, args)
		assert.Equal(t, 5, ps.nextIndex())
	})

	t.Run("compiling twice yields identical clause and args", func(t *testing.T) {
		ps := newPredicateSet()
		ps.add("a = $%d", 1)
		ps.add("b = $%d AND c = $%d", 2, 3)

		clause1, args1 := ps.where()
		clause2, args2 := ps.where()
		assert.Equal(t, clause1, clause2)
		assert.Equal(t, args1, args2)
	})
}

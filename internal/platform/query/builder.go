// Package query builds parameterized SQL statements from filter criteria.
// It encapsulates the filter pattern shared by the repositories so each
// access path composes WHERE clauses the same way.
package query

import (
	"fmt"
	"strings"
	"time"
)

// Builder accumulates WHERE clauses with positional arguments for a single
// table.
type Builder struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// New creates a Builder for the given table and column list.
func New(table, cols string) *Builder {
	return &Builder{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Where appends a raw clause fragment (without leading "AND"). The fragment
// must reference parameters via Idx().
func (b *Builder) Where(clause string, args ...interface{}) *Builder {
	b.where += " AND " + clause
	b.args = append(b.args, args...)
	b.idx += len(args)
	return b
}

// Idx returns the next available positional parameter index.
func (b *Builder) Idx() int { return b.idx }

// Eq adds an equality clause on the column.
func (b *Builder) Eq(column string, value interface{}) *Builder {
	b.where += fmt.Sprintf(" AND %s = $%d", column, b.idx)
	b.args = append(b.args, value)
	b.idx++
	return b
}

// Contains adds a case-insensitive substring clause on the column.
func (b *Builder) Contains(column, value string) *Builder {
	b.where += fmt.Sprintf(" AND %s ILIKE $%d", column, b.idx)
	b.args = append(b.args, "%"+value+"%")
	b.idx++
	return b
}

// OnDay constrains a timestamp column to a single calendar day.
func (b *Builder) OnDay(column string, day time.Time) *Builder {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	b.where += fmt.Sprintf(" AND %s >= $%d AND %s < $%d", column, b.idx, column, b.idx+1)
	b.args = append(b.args, start, end)
	b.idx += 2
	return b
}

// OrderBy sets the ORDER BY clause (column and direction, no keyword).
func (b *Builder) OrderBy(clause string) *Builder {
	b.orderBy = clause
	return b
}

func (b *Builder) whereSQL() string {
	if b.where == "" {
		return ""
	}
	return " WHERE " + strings.TrimPrefix(b.where, " AND ")
}

// CountSQL returns the COUNT statement for the accumulated filters.
func (b *Builder) CountSQL() string {
	return "SELECT COUNT(*) FROM " + b.table + b.whereSQL()
}

// CountArgs returns the arguments for CountSQL.
func (b *Builder) CountArgs() []interface{} {
	return b.args
}

// DataSQL returns the SELECT statement for the accumulated filters with
// pagination applied.
func (b *Builder) DataSQL(limit, offset int) string {
	sql := "SELECT " + b.cols + " FROM " + b.table + b.whereSQL()
	if b.orderBy != "" {
		sql += " ORDER BY " + b.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", b.idx, b.idx+1)
	return sql
}

// DataArgs returns the arguments for DataSQL.
func (b *Builder) DataArgs(limit, offset int) []interface{} {
	return append(append([]interface{}{}, b.args...), limit, offset)
}

// SQL returns the SELECT statement without pagination.
func (b *Builder) SQL() string {
	sql := "SELECT " + b.cols + " FROM " + b.table + b.whereSQL()
	if b.orderBy != "" {
		sql += " ORDER BY " + b.orderBy
	}
	return sql
}

// Args returns the arguments for SQL.
func (b *Builder) Args() []interface{} {
	return b.args
}

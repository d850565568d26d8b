// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package subset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geokey/geokey/internal/models"
)

// SQL renders the predicate as a parameterised WHERE clause over the
// observations table aliased "o". Field keys are embedded into JSON paths
// (they are validated against keyPattern at compile time); all values travel
// as query arguments.
//
// A predicate without rules yields a clause matching nothing, mirroring
// Matches.
func (p *Predicate) SQL() (string, []interface{}) {
	if len(p.rules) == 0 {
		return "(1 = 0)", nil
	}

	clauses := make([]string, 0, len(p.rules))
	var args []interface{}

	for _, rule := range p.rules {
		clause, ruleArgs := rule.sql()
		clauses = append(clauses, clause)
		args = append(args, ruleArgs...)
	}

	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func (r *compiledRule) sql() (string, []interface{}) {
	clauses := []string{"(o.category_id = ?)"}
	args := []interface{}{r.categoryID}

	if r.minDate != nil {
		clauses = append(clauses, "(o.created_at >= ?)")
		args = append(args, r.minDate.UTC())
	}
	if r.maxDate != nil {
		clauses = append(clauses, "(o.created_at <= ?)")
		args = append(args, r.maxDate.UTC())
	}

	for _, cond := range r.conditions {
		clause, condArgs := cond.sql()
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
	}

	return "(" + strings.Join(clauses, " AND ") + ")", args
}

// jsonValue renders the DuckDB expression extracting a property as text.
func jsonValue(key string) string {
	return fmt.Sprintf("json_extract_string(o.properties, '$.%s')", key)
}

func (c *textCondition) sql() (string, []interface{}) {
	return fmt.Sprintf("(lower(%s) LIKE ?)", jsonValue(c.key)),
		[]interface{}{"%" + c.needle + "%"}
}

func (c *numericRangeCondition) sql() (string, []interface{}) {
	expr := fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", jsonValue(c.key))
	return rangeSQL(expr, floatArg(c.min), floatArg(c.max))
}

func (c *temporalRangeCondition) sql() (string, []interface{}) {
	// Time-of-day values keep their HH:MM form and compare lexically; dates
	// and timestamps are cast so mixed precision still orders correctly.
	expr := jsonValue(c.key)
	var min, max interface{}
	if c.fieldType == models.FieldTime {
		min, max = boundArg(c.min), boundArg(c.max)
	} else {
		expr = fmt.Sprintf("TRY_CAST(%s AS TIMESTAMP)", expr)
		min, max = timestampArg(c.min), timestampArg(c.max)
	}
	return rangeSQL(expr, min, max)
}

func (c *boolCondition) sql() (string, []interface{}) {
	return fmt.Sprintf("(TRY_CAST(%s AS BOOLEAN) = ?)", jsonValue(c.key)),
		[]interface{}{c.want}
}

func (c *lookupCondition) sql() (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(c.ids)), ", ")
	args := make([]interface{}, len(c.ids))
	for i, id := range c.ids {
		args[i] = id
	}
	return fmt.Sprintf("(TRY_CAST(%s AS BIGINT) IN (%s))", jsonValue(c.key), placeholders), args
}

func (c *multiLookupCondition) sql() (string, []interface{}) {
	clauses := make([]string, len(c.ids))
	args := make([]interface{}, len(c.ids))
	for i, id := range c.ids {
		clauses[i] = fmt.Sprintf("json_contains(json_extract(o.properties, '$.%s'), ?)", c.key)
		args[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// rangeSQL combines optional inclusive bounds over one expression.
func rangeSQL(expr string, min, max interface{}) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if min != nil {
		clauses = append(clauses, fmt.Sprintf("(%s >= ?)", expr))
		args = append(args, min)
	}
	if max != nil {
		clauses = append(clauses, fmt.Sprintf("(%s <= ?)", expr))
		args = append(args, max)
	}

	if len(clauses) == 1 {
		return clauses[0], args
	}
	return "(" + strings.Join(clauses, " AND ") + ")", args
}

func boundArg(bound *string) interface{} {
	if bound == nil {
		return nil
	}
	return *bound
}

func floatArg(bound *float64) interface{} {
	if bound == nil {
		return nil
	}
	return *bound
}

// timestampArg parses a canonical temporal string into a time.Time argument
// so the driver binds it as a TIMESTAMP.
func timestampArg(bound *string) interface{} {
	if bound == nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, *bound); err == nil {
			return parsed.UTC()
		}
	}
	return *bound
}

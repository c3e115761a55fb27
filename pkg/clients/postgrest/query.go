package postgrest

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Op is a PostgREST comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIs  Op = "is"
)

// Filter is one `column=op.value` predicate. Filters are kept as an ordered
// list so several bounds on the same column coexist; all of them are ANDed.
type Filter struct {
	Column string
	Op     Op
	Value  string
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%s.%s", f.Column, f.Op, f.Value)
}

// Eq matches rows where column equals v.
func Eq(column string, v any) Filter { return Filter{Column: column, Op: OpEq, Value: FormatValue(v)} }

// Neq matches rows where column differs from v.
func Neq(column string, v any) Filter { return Filter{Column: column, Op: OpNeq, Value: FormatValue(v)} }

// Gt matches rows where column is greater than v.
func Gt(column string, v any) Filter { return Filter{Column: column, Op: OpGt, Value: FormatValue(v)} }

// Gte matches rows where column is greater than or equal to v.
func Gte(column string, v any) Filter { return Filter{Column: column, Op: OpGte, Value: FormatValue(v)} }

// Lt matches rows where column is less than v.
func Lt(column string, v any) Filter { return Filter{Column: column, Op: OpLt, Value: FormatValue(v)} }

// Lte matches rows where column is less than or equal to v.
func Lte(column string, v any) Filter { return Filter{Column: column, Op: OpLte, Value: FormatValue(v)} }

// Query describes a read: predicates plus select/order/limit/offset modifiers.
type Query struct {
	Filters []Filter
	Select  string
	Order   string
	Limit   int
	Offset  int
}

// Where appends predicates and returns the query for chaining.
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

// Values renders the query as URL parameters, preserving filter order.
func (q Query) Values() url.Values {
	values := filterValues(q.Filters)
	if q.Select != "" {
		values.Set("select", q.Select)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values
}

func filterValues(filters []Filter) url.Values {
	values := url.Values{}
	for _, f := range filters {
		values.Add(f.Column, fmt.Sprintf("%s.%s", f.Op, f.Value))
	}
	return values
}

// FormatValue renders v the way PostgREST expects it inside a filter.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

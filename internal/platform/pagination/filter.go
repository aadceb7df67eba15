package pagination

import (
	"fmt"
	"strings"

	"sns_backend/internal/shared/apperror"
)

// Operator is the closed set of predicates a where__ key can ask for.
type Operator int

const (
	OpEqual Operator = iota
	OpMoreThan
	OpLessThan
	OpMoreThanOrEqual
	OpLessThanOrEqual
	OpLike
	OpILike
	OpIn
	OpNot
	OpIsNull
	OpBetween
	OpAny
	OpRaw
)

var operatorNames = map[string]Operator{
	"equal":              OpEqual,
	"more_than":          OpMoreThan,
	"less_than":          OpLessThan,
	"more_than_or_equal": OpMoreThanOrEqual,
	"less_than_or_equal": OpLessThanOrEqual,
	"like":               OpLike,
	"ilike":              OpILike,
	"in":                 OpIn,
	"not":                OpNot,
	"is_null":            OpIsNull,
	"between":            OpBetween,
	"any":                OpAny,
	"raw":                OpRaw,
	// older clients send the _to spelling
	"more_than_or_equal_to": OpMoreThanOrEqual,
	"less_than_or_equal_to": OpLessThanOrEqual,
}

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpMoreThan:
		return "more_than"
	case OpLessThan:
		return "less_than"
	case OpMoreThanOrEqual:
		return "more_than_or_equal"
	case OpLessThanOrEqual:
		return "less_than_or_equal"
	case OpLike:
		return "like"
	case OpILike:
		return "ilike"
	case OpIn:
		return "in"
	case OpNot:
		return "not"
	case OpIsNull:
		return "is_null"
	case OpBetween:
		return "between"
	case OpAny:
		return "any"
	case OpRaw:
		return "raw"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// LookupOperator resolves an operator segment of a where__ key.
func LookupOperator(name string) (Operator, bool) {
	op, ok := operatorNames[name]
	return op, ok
}

// Direction is an ordering direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// Clause is one typed predicate on a field.
// Values holds one entry, two for between, a list for in/not/any, and none for is_null.
type Clause struct {
	Field  string
	Op     Operator
	Values []string
}

// OrderBy is one ordering entry.
type OrderBy struct {
	Field string
	Dir   Direction
}

// Filter is the conjunction of Where clauses plus the ordering in encounter order.
type Filter struct {
	Where []Clause
	Order []OrderBy
}

const (
	wherePrefix = "where__"
	orderPrefix = "order__"
	separator   = "__"

	// IDField is the identity column used by cursor pagination.
	IDField = "id"
	// CreatedAtField is the creation-time field that decides the cursor direction.
	CreatedAtField = "createdAt"

	// KeyIDMoreThan and KeyIDLessThan are the cursor bounds.
	KeyIDMoreThan = "where__id_more_than"
	KeyIDLessThan = "where__id_less_than"
)

// Translate turns where__/order__ params into a Filter. Other keys are ignored.
// The cursor bound keys are read as id more_than / less_than clauses.
func Translate(params Params) (Filter, error) {
	var f Filter
	for _, p := range params {
		switch {
		case p.Key == KeyIDMoreThan:
			f.Where = append(f.Where, Clause{Field: IDField, Op: OpMoreThan, Values: []string{p.Value}})
		case p.Key == KeyIDLessThan:
			f.Where = append(f.Where, Clause{Field: IDField, Op: OpLessThan, Values: []string{p.Value}})
		case strings.HasPrefix(p.Key, wherePrefix):
			c, err := parseWhere(p.Key, p.Value)
			if err != nil {
				return Filter{}, err
			}
			f.Where = append(f.Where, c)
		case strings.HasPrefix(p.Key, orderPrefix):
			o, err := parseOrder(p.Key, p.Value)
			if err != nil {
				return Filter{}, err
			}
			f.Order = append(f.Order, o)
		}
	}
	return f, nil
}

func parseWhere(key, value string) (Clause, error) {
	parts := strings.Split(key, separator)
	if len(parts) != 2 && len(parts) != 3 {
		return Clause{}, apperror.Validation(fmt.Sprintf("invalid where filter: %s", key))
	}
	field := parts[1]
	if field == "" {
		return Clause{}, apperror.Validation(fmt.Sprintf("invalid where filter: %s", key))
	}
	if len(parts) == 2 {
		return Clause{Field: field, Op: OpEqual, Values: []string{value}}, nil
	}

	op, ok := LookupOperator(parts[2])
	if !ok {
		return Clause{}, apperror.Validation(fmt.Sprintf("unknown filter operator: %s", parts[2]))
	}

	c := Clause{Field: field, Op: op}
	switch op {
	case OpIsNull:
	case OpBetween:
		bounds := strings.Split(value, ",")
		if len(bounds) != 2 {
			return Clause{}, apperror.Validation(fmt.Sprintf("between filter needs two comma separated bounds: %s", key))
		}
		c.Values = bounds
	case OpIn, OpNot, OpAny:
		c.Values = strings.Split(value, ",")
	default:
		c.Values = []string{value}
	}
	return c, nil
}

func parseOrder(key, value string) (OrderBy, error) {
	parts := strings.Split(key, separator)
	if len(parts) != 2 || parts[1] == "" {
		return OrderBy{}, apperror.Validation(fmt.Sprintf("invalid order filter: %s", key))
	}
	dir := Direction(strings.ToUpper(value))
	if dir != ASC && dir != DESC {
		return OrderBy{}, apperror.Validation(fmt.Sprintf("invalid order direction: %s", value))
	}
	return OrderBy{Field: parts[1], Dir: dir}, nil
}

// CreatedAtDirection returns the direction given for the creation-time field, if any.
func (f Filter) CreatedAtDirection() (Direction, bool) {
	for _, o := range f.Order {
		if sameField(o.Field, CreatedAtField) {
			return o.Dir, true
		}
	}
	return "", false
}

func (f Filter) orders(field string) bool {
	for _, o := range f.Order {
		if sameField(o.Field, field) {
			return true
		}
	}
	return false
}

// sameField compares createdAt, created_at and CreatedAt as equal.
func sameField(a, b string) bool {
	norm := func(s string) string { return strings.ToLower(strings.ReplaceAll(s, "_", "")) }
	return norm(a) == norm(b)
}

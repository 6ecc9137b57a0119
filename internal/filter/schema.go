package filter

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-items/internal/domain"
)

// Schema maps the JSON field names a filter may reference onto typed table
// columns, and lists the relations that may be included. Anything outside
// the schema is rejected, so caller input never reaches SQL as an identifier,
// and where values are converted to the column's type before binding.
type Schema struct {
	columns   map[string]string
	kinds     map[string]Kind
	relations map[string]bool
}

// Field describes the column behind a JSON field name.
type Field struct {
	Column string
	Kind   Kind
}

// NewSchema builds a schema from a field map and relation names.
func NewSchema(fields map[string]Field, relations ...string) Schema {
	s := Schema{
		columns:   make(map[string]string, len(fields)),
		kinds:     make(map[string]Kind, len(fields)),
		relations: make(map[string]bool, len(relations)),
	}
	for name, f := range fields {
		s.columns[name] = f.Column
		s.kinds[name] = f.Kind
	}
	for _, r := range relations {
		s.relations[r] = true
	}
	return s
}

// Column returns the column backing a JSON field name.
func (s Schema) Column(field string) (string, bool) {
	col, ok := s.columns[field]
	return col, ok
}

// Validate checks every field, operator and relation referenced by f
// against the schema. Scope filters are not checked here: they belong to
// the related entity's schema.
func (s Schema) Validate(f *Filter) error {
	if f == nil {
		return nil
	}
	if _, err := s.Conditions(f.Where); err != nil {
		return err
	}
	if _, err := s.OrderBy(f.Order); err != nil {
		return err
	}
	if _, err := s.Select(f.Fields); err != nil {
		return err
	}
	for i, inc := range f.Include {
		if !s.relations[inc.Relation] {
			return &domain.FilterError{
				Path:   fmt.Sprintf("filter.include[%d].relation", i),
				Reason: fmt.Sprintf("relation %q is not defined", inc.Relation),
			}
		}
	}
	return nil
}

// Apply adds the where, order and field projection of f to db. required
// lists columns that are always selected when a projection is in effect.
// Pagination is left to Paginate.
func (s Schema) Apply(db *gorm.DB, f *Filter, required ...string) (*gorm.DB, error) {
	if f == nil {
		return db, nil
	}

	cond, err := s.Conditions(f.Where)
	if err != nil {
		return nil, err
	}
	if cond != nil {
		db = db.Where(cond)
	}

	order, err := s.OrderBy(f.Order)
	if err != nil {
		return nil, err
	}
	for _, o := range order {
		db = db.Order(o)
	}

	cols, err := s.Select(f.Fields)
	if err != nil {
		return nil, err
	}
	if cols != nil {
		db = db.Select(mergeColumns(cols, required))
	}
	return db, nil
}

// Paginate applies limit and skip.
func Paginate(db *gorm.DB, f *Filter) *gorm.DB {
	if f == nil {
		return db
	}
	if f.Limit != nil {
		db = db.Limit(*f.Limit)
	}
	if f.Skip != nil {
		db = db.Offset(*f.Skip)
	}
	return db
}

// Conditions compiles a where clause. It returns nil for an empty clause.
func (s Schema) Conditions(w Where) (clause.Expression, error) {
	if len(w) == 0 {
		return nil, nil
	}
	exprs, err := s.compileWhere(w, "filter.where")
	if err != nil {
		return nil, err
	}
	return clause.And(exprs...), nil
}

// OrderBy compiles order specs of the form "field [ASC|DESC]".
func (s Schema) OrderBy(order []string) ([]clause.OrderByColumn, error) {
	if len(order) == 0 {
		return nil, nil
	}
	out := make([]clause.OrderByColumn, 0, len(order))
	for i, spec := range order {
		path := fmt.Sprintf("filter.order[%d]", i)
		parts := strings.Fields(spec)
		if len(parts) == 0 || len(parts) > 2 {
			return nil, &domain.FilterError{Path: path, Reason: fmt.Sprintf("malformed order %q", spec)}
		}
		col, ok := s.columns[parts[0]]
		if !ok {
			return nil, &domain.FilterError{Path: path, Reason: fmt.Sprintf("unknown field %q", parts[0])}
		}
		desc := false
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				desc = true
			default:
				return nil, &domain.FilterError{Path: path, Reason: fmt.Sprintf("unknown direction %q", parts[1])}
			}
		}
		out = append(out, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	}
	return out, nil
}

// Select resolves a projection into columns. It returns nil when every
// column is selected.
func (s Schema) Select(fields Fields) ([]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	for name := range fields {
		if _, ok := s.columns[name]; !ok {
			return nil, &domain.FilterError{Path: "filter.fields." + name, Reason: "unknown field"}
		}
	}

	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		if fields.Keep(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, s.columns[name])
	}
	return cols, nil
}

func mergeColumns(cols, required []string) []string {
	seen := make(map[string]bool, len(cols)+len(required))
	out := make([]string, 0, len(cols)+len(required))
	for _, c := range append(append([]string{}, required...), cols...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (s Schema) compileWhere(w Where, path string) ([]clause.Expression, error) {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]clause.Expression, 0, len(keys))
	for _, key := range keys {
		val := w[key]
		keyPath := path + "." + key

		switch key {
		case "and", "or":
			list, ok := val.([]any)
			if !ok || len(list) == 0 {
				return nil, &domain.FilterError{Path: keyPath, Reason: "must be a non-empty array of objects"}
			}
			branches := make([]clause.Expression, 0, len(list))
			for i, elem := range list {
				sub, ok := elem.(map[string]any)
				if !ok || len(sub) == 0 {
					return nil, &domain.FilterError{Path: fmt.Sprintf("%s[%d]", keyPath, i), Reason: "must be a non-empty object"}
				}
				subExprs, err := s.compileWhere(sub, fmt.Sprintf("%s[%d]", keyPath, i))
				if err != nil {
					return nil, err
				}
				branches = append(branches, clause.And(subExprs...))
			}
			if key == "and" {
				exprs = append(exprs, clause.And(branches...))
			} else {
				exprs = append(exprs, clause.Or(branches...))
			}

		default:
			col, ok := s.columns[key]
			if !ok {
				return nil, &domain.FilterError{Path: keyPath, Reason: "unknown field"}
			}
			expr, err := compileCondition(clause.Column{Name: col}, s.kinds[key], val, keyPath)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
	}
	return exprs, nil
}

func compileCondition(col clause.Column, kind Kind, val any, path string) (clause.Expression, error) {
	ops, ok := val.(map[string]any)
	if !ok {
		if _, isList := val.([]any); isList {
			return nil, &domain.FilterError{Path: path, Reason: "use inq for lists"}
		}
		if val == nil {
			return clause.Eq{Column: col, Value: nil}, nil
		}
		v, err := kind.convert(val, path)
		if err != nil {
			return nil, err
		}
		return clause.Eq{Column: col, Value: v}, nil
	}
	if len(ops) == 0 {
		return nil, &domain.FilterError{Path: path, Reason: "empty operator object"}
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)

	exprs := make([]clause.Expression, 0, len(names))
	for _, op := range names {
		arg := ops[op]
		opPath := path + "." + op

		var expr clause.Expression
		switch op {
		case "eq", "neq":
			v, err := operand(kind, arg, opPath, true)
			if err != nil {
				return nil, err
			}
			if op == "eq" {
				expr = clause.Eq{Column: col, Value: v}
			} else {
				expr = clause.Neq{Column: col, Value: v}
			}
		case "gt", "gte", "lt", "lte":
			v, err := operand(kind, arg, opPath, false)
			if err != nil {
				return nil, err
			}
			switch op {
			case "gt":
				expr = clause.Gt{Column: col, Value: v}
			case "gte":
				expr = clause.Gte{Column: col, Value: v}
			case "lt":
				expr = clause.Lt{Column: col, Value: v}
			default:
				expr = clause.Lte{Column: col, Value: v}
			}
		case "like", "nlike":
			if kind != Text {
				return nil, &domain.FilterError{Path: opPath, Reason: "only supported on text fields"}
			}
			v, err := operand(kind, arg, opPath, false)
			if err != nil {
				return nil, err
			}
			expr = clause.Like{Column: col, Value: v}
			if op == "nlike" {
				expr = clause.Not(expr)
			}
		case "inq", "nin":
			values, err := list(kind, arg, opPath)
			if err != nil {
				return nil, err
			}
			expr = clause.IN{Column: col, Values: values}
			if op == "nin" {
				expr = clause.Not(expr)
			}
		case "between":
			values, err := list(kind, arg, opPath)
			if err != nil {
				return nil, err
			}
			if len(values) != 2 {
				return nil, &domain.FilterError{Path: opPath, Reason: "needs exactly two values"}
			}
			expr = clause.And(
				clause.Gte{Column: col, Value: values[0]},
				clause.Lte{Column: col, Value: values[1]},
			)
		default:
			return nil, &domain.FilterError{Path: opPath, Reason: "unknown operator"}
		}
		exprs = append(exprs, expr)
	}
	return clause.And(exprs...), nil
}

// operand converts the argument of a single-value operator. Only eq and neq
// accept null.
func operand(kind Kind, arg any, path string, nullable bool) (any, error) {
	switch arg.(type) {
	case map[string]any:
		return nil, &domain.FilterError{Path: path, Reason: "nested objects are not allowed"}
	case []any:
		return nil, &domain.FilterError{Path: path, Reason: "must be a single value"}
	case nil:
		if nullable {
			return nil, nil
		}
		return nil, &domain.FilterError{Path: path, Reason: "must not be null"}
	}
	return kind.convert(arg, path)
}

func list(kind Kind, v any, path string) ([]any, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, &domain.FilterError{Path: path, Reason: "must be an array"}
	}
	out := make([]any, 0, len(raw))
	for i, elem := range raw {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		if elem == nil {
			return nil, &domain.FilterError{Path: elemPath, Reason: "must not be null"}
		}
		if _, nested := elem.(map[string]any); nested {
			return nil, &domain.FilterError{Path: elemPath, Reason: "must be a scalar"}
		}
		if _, nested := elem.([]any); nested {
			return nil, &domain.FilterError{Path: elemPath, Reason: "must be a scalar"}
		}
		converted, err := kind.convert(elem, elemPath)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

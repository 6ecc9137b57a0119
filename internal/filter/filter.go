// Package filter implements the query filter accepted by the list and fetch
// endpoints: a where clause, ordering, pagination, field projection and
// relation inclusion. Filters arrive as JSON in the "filter" query parameter.
//
//	{
//	  "where":   {"status": "ACTIVE", "createdAt": {"gt": "2025-03-14T00:00:00Z"}},
//	  "order":   ["createdAt DESC"],
//	  "limit":   10,
//	  "skip":    0,
//	  "fields":  {"id": true, "title": true},
//	  "include": [{"relation": "items", "scope": {"where": {"isCompleted": true}}}]
//	}
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tomlord1122/todo-items/internal/domain"
)

// Filter is a parsed query filter. Include is nil when the caller did not
// mention relations at all and empty when it explicitly asked for none.
type Filter struct {
	Where   Where
	Order   []string
	Limit   *int
	Skip    *int
	Fields  Fields
	Include []Inclusion
}

// Where holds the decoded where clause. Numbers are kept as json.Number until
// the clause is compiled against a Schema.
type Where map[string]any

// Inclusion names a relation to attach to each result, optionally narrowed
// by a scope filter applied to the related records.
type Inclusion struct {
	Relation string
	Scope    *Filter
}

// Fields is a projection. When any field is true only the true fields are
// returned; otherwise every field except the false ones is returned.
type Fields map[string]bool

// Keep reports whether the JSON key survives the projection.
func (f Fields) Keep(key string) bool {
	if len(f) == 0 {
		return true
	}
	if f.inclusive() {
		return f[key]
	}
	keep, listed := f[key]
	return !listed || keep
}

func (f Fields) inclusive() bool {
	for _, v := range f {
		if v {
			return true
		}
	}
	return false
}

// Parse decodes a JSON filter. An empty string yields a nil filter.
func Parse(raw string) (*Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return decode([]byte(raw), "filter")
}

// WithDefaultInclude returns a copy of f that includes relation when the
// caller did not supply an include list. An explicit empty list is kept, so
// the caller can opt out of the relation. f itself is never modified.
func WithDefaultInclude(f *Filter, relation string) *Filter {
	var merged Filter
	if f != nil {
		merged = *f
	}
	if merged.Include == nil {
		merged.Include = []Inclusion{{Relation: relation}}
	}
	return &merged
}

// WithConstraint returns a copy of f whose where clause is AND-ed with w.
// The constraint is kept as a separate branch, so keys in the caller's where
// clause cannot override it.
func WithConstraint(f *Filter, w Where) *Filter {
	var merged Filter
	if f != nil {
		merged = *f
	}
	if len(merged.Where) == 0 {
		merged.Where = w
	} else {
		merged.Where = Where{"and": []any{map[string]any(merged.Where), map[string]any(w)}}
	}
	return &merged
}

// WithoutWhere rejects filters carrying a where clause. Fetch-by-id endpoints
// accept every other filter property.
func WithoutWhere(f *Filter) error {
	if f != nil && f.Where != nil {
		return &domain.FilterError{Path: "filter.where", Reason: "not allowed on this endpoint"}
	}
	return nil
}

// IncludeScope returns the inclusion for relation and whether it was requested.
func (f *Filter) IncludeScope(relation string) (*Filter, bool) {
	if f == nil {
		return nil, false
	}
	for _, inc := range f.Include {
		if inc.Relation == relation {
			return inc.Scope, true
		}
	}
	return nil, false
}

type rawFilter struct {
	Where   json.RawMessage `json:"where"`
	Order   json.RawMessage `json:"order"`
	Limit   json.RawMessage `json:"limit"`
	Skip    json.RawMessage `json:"skip"`
	Offset  json.RawMessage `json:"offset"`
	Fields  json.RawMessage `json:"fields"`
	Include json.RawMessage `json:"include"`
}

func decode(data []byte, path string) (*Filter, error) {
	var raw rawFilter
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: err.Error()}
	}

	f := &Filter{}
	var err error
	if f.Where, err = decodeWhere(raw.Where, path+".where"); err != nil {
		return nil, err
	}
	if f.Order, err = decodeOrder(raw.Order, path+".order"); err != nil {
		return nil, err
	}
	if f.Limit, err = decodeCount(raw.Limit, path+".limit"); err != nil {
		return nil, err
	}
	skip := raw.Skip
	if isAbsent(skip) {
		skip = raw.Offset
	}
	if f.Skip, err = decodeCount(skip, path+".skip"); err != nil {
		return nil, err
	}
	if f.Fields, err = decodeFields(raw.Fields, path+".fields"); err != nil {
		return nil, err
	}
	if f.Include, err = decodeInclude(raw.Include, path+".include"); err != nil {
		return nil, err
	}
	return f, nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeWhere(raw json.RawMessage, path string) (Where, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var w map[string]any
	if err := dec.Decode(&w); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: "must be an object"}
	}
	return Where(w), nil
}

func decodeOrder(raw json.RawMessage, path string) ([]string, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: "must be a string or an array of strings"}
	}
	return list, nil
}

func decodeCount(raw json.RawMessage, path string) (*int, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: "must be an integer"}
	}
	if n < 0 {
		return nil, &domain.FilterError{Path: path, Reason: "must not be negative"}
	}
	return &n, nil
}

func decodeFields(raw json.RawMessage, path string) (Fields, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err == nil {
		return Fields(m), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: "must be an object of booleans or an array of names"}
	}
	fields := make(Fields, len(list))
	for _, name := range list {
		fields[name] = true
	}
	return fields, nil
}

func decodeInclude(raw json.RawMessage, path string) ([]Inclusion, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &domain.FilterError{Path: path, Reason: "must be an array"}
	}

	include := make([]Inclusion, 0, len(elems))
	for i, elem := range elems {
		elemPath := fmt.Sprintf("%s[%d]", path, i)

		var name string
		if err := json.Unmarshal(elem, &name); err == nil {
			include = append(include, Inclusion{Relation: name})
			continue
		}

		var obj struct {
			Relation string          `json:"relation"`
			Scope    json.RawMessage `json:"scope"`
		}
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&obj); err != nil {
			return nil, &domain.FilterError{Path: elemPath, Reason: "must be a relation name or {relation, scope}"}
		}
		if obj.Relation == "" {
			return nil, &domain.FilterError{Path: elemPath + ".relation", Reason: "is required"}
		}

		inc := Inclusion{Relation: obj.Relation}
		if !isAbsent(obj.Scope) {
			scope, err := decode(obj.Scope, elemPath+".scope")
			if err != nil {
				return nil, err
			}
			inc.Scope = scope
		}
		include = append(include, inc)
	}
	return include, nil
}

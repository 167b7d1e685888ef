// Copyright 2019 Tamás Gulácsi
//
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

// Package schema holds the table and field metadata the form parser
// resolves field names against.
package schema

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// RelationshipType is the cardinality of a relationship.
type RelationshipType string

const (
	OneToMany  RelationshipType = "one-to-many"
	ManyToOne  RelationshipType = "many-to-one"
	OneToOne   RelationshipType = "one-to-one"
	ManyToMany RelationshipType = "many-to-many"
	ZeroToOne  RelationshipType = "zero-to-one"
)

// ToMany reports whether the relationship points at a collection.
func (t RelationshipType) ToMany() bool {
	return t == OneToMany || t == ManyToMany
}

// Field describes a literal field or a relationship of a table.
type Field struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // java.lang.String, java.lang.Boolean, text, ...
	Length      int    `json:"length,omitempty"`
	PickList    string `json:"pickList,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	Virtual     bool   `json:"virtual,omitempty"`

	IsRelationship   bool             `json:"isRelationship,omitempty"`
	RelationshipType RelationshipType `json:"relationshipType,omitempty"`
	RelatedTable     string           `json:"relatedTable,omitempty"`
	OtherSideName    string           `json:"otherSideName,omitempty"`
	Dependent        bool             `json:"dependent,omitempty"`
}

// Table describes a table of the data model.
type Table struct {
	Name          string  `json:"name"`
	Label         string  `json:"label,omitempty"`
	ClassName     string  `json:"className,omitempty"`
	IDFieldName   string  `json:"idFieldName,omitempty"`
	Description   string  `json:"description,omitempty"`
	Fields        []Field `json:"fields"`
	Relationships []Field `json:"relationships,omitempty"`

	indexOnce sync.Once
	index     map[string]int
}

// Field returns the literal field or relationship with the given name,
// case-insensitively.
func (t *Table) Field(name string) (*Field, bool) {
	if t == nil {
		return nil, false
	}
	t.indexOnce.Do(t.buildIndex)
	i, ok := t.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	if i < len(t.Fields) {
		return &t.Fields[i], true
	}
	return &t.Relationships[i-len(t.Fields)], true
}

// AllFields returns the literal fields followed by the relationships.
func (t *Table) AllFields() []Field {
	all := make([]Field, 0, len(t.Fields)+len(t.Relationships))
	all = append(all, t.Fields...)
	return append(all, t.Relationships...)
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Fields)+len(t.Relationships))
	for i, f := range t.Fields {
		t.index[strings.ToLower(f.Name)] = i
	}
	for i, f := range t.Relationships {
		t.index[strings.ToLower(f.Name)] = len(t.Fields) + i
	}
}

// Registry stores table definitions by name.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Register adds or replaces a table definition.
// The table's fields must not change afterwards.
func (r *Registry) Register(t *Table) {
	t.indexOnce.Do(t.buildIndex)
	r.mu.Lock()
	r.tables[strings.ToLower(t.Name)] = t
	r.mu.Unlock()
}

// Get returns the table by name, case-insensitively.
func (r *Registry) Get(name string) (*Table, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	t, ok := r.tables[strings.ToLower(name)]
	r.mu.RUnlock()
	return t, ok
}

// List returns the tables sorted by name.
func (r *Registry) List() []*Table {
	r.mu.RLock()
	list := make([]*Table, 0, len(r.tables))
	for _, t := range r.tables {
		list = append(list, t)
	}
	r.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// ErrUnknownField is returned by ResolvePath.
var ErrUnknownField = errors.New("unknown field")

// ResolvePath walks a dotted field path starting at table, following
// relationships. The returned slice has one element per path segment.
func (r *Registry) ResolvePath(table *Table, path string) ([]*Field, error) {
	if table == nil {
		return nil, errors.Wrap(ErrUnknownField, path)
	}
	parts := strings.Split(path, ".")
	fields := make([]*Field, 0, len(parts))
	current := table
	for i, part := range parts {
		if current == nil {
			return fields, errors.Wrapf(ErrUnknownField, "%s: %q is not a relationship", path, parts[i-1])
		}
		f, ok := current.Field(part)
		if !ok {
			return fields, errors.Wrapf(ErrUnknownField, "%s.%s", current.Name, part)
		}
		fields = append(fields, f)
		current = nil
		if f.IsRelationship {
			current, _ = r.Get(f.RelatedTable)
		}
	}
	return fields, nil
}

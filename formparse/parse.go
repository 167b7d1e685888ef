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

// Package formparse turns XML view definitions into renderer-agnostic
// grids of typed cells.
package formparse

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/UNO-SOFT/formparse/localize"
	"github.com/UNO-SOFT/formparse/logger"
	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/xmlnode"
)

var (
	ErrNoColumnDefinition = errors.New("no column definition")
	ErrNoClass            = errors.New("viewdef has no class")
	ErrUnknownTable       = errors.New("unknown table")
	ErrNoViewDefinitions  = errors.New("view has no viewdefs")
	ErrNoMatchingAltView  = errors.New("no altView for form type")
	ErrViewNotFound       = errors.New("view not found")
)

// Parser holds what the parsing needs besides the XML itself.
// The zero value works with an empty registry.
type Parser struct {
	Tables   *schema.Registry
	Localize localize.Func
	Logger   *logger.Logger
	// StrictFormType makes ResolveView fail when no alt-view has the
	// requested form type, instead of using the first candidate.
	StrictFormType bool
	// GeneratedForms makes LoadView always auto-generate.
	GeneratedForms bool
}

func (P *Parser) localize(s string) string {
	if s == "" || P.Localize == nil {
		return s
	}
	return P.Localize(s)
}

func (P *Parser) log() *logger.Logger {
	if P.Logger == nil {
		return logger.Default()
	}
	return P.Logger
}

var emptyRegistry = schema.NewRegistry()

func (P *Parser) registry() *schema.Registry {
	if P.Tables == nil {
		return emptyRegistry
	}
	return P.Tables
}

// ParseFormDefinition parses the <viewdef> element into a post-processed
// grid. With several <rows> blocks the unconditional one is returned.
func (P *Parser) ParseFormDefinition(viewDef *xmlnode.Node, table *schema.Table) (ParsedFormDefinition, error) {
	defs, err := P.ParseConditionalDefinitions(viewDef, table)
	if err != nil {
		return ParsedFormDefinition{}, err
	}
	return mainDefinition(defs), nil
}

// ConditionalFormDefinition is one <rows> block and its condition
// (nil means always).
type ConditionalFormDefinition struct {
	Condition  *Condition           `json:"condition"`
	Definition ParsedFormDefinition `json:"definition"`
}

// Condition is a "field=value" test on the record being displayed.
type Condition struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func parseCondition(s string) *Condition {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "always") {
		return nil
	}
	field, value, _ := strings.Cut(s, "=")
	return &Condition{Field: strings.TrimSpace(field), Value: strings.TrimSpace(value)}
}

// Matches reports whether the record values satisfy the condition.
// A nil condition always matches.
func (c *Condition) Matches(values map[string]string) bool {
	if c == nil {
		return true
	}
	for k, v := range values {
		if strings.EqualFold(k, c.Field) {
			return v == c.Value
		}
	}
	return false
}

// Select returns the definition of the first block matching values,
// falling back to the unconditional one.
func Select(defs []ConditionalFormDefinition, values map[string]string) (ParsedFormDefinition, bool) {
	var fallback *ParsedFormDefinition
	for i, d := range defs {
		if d.Condition == nil {
			if fallback == nil {
				fallback = &defs[i].Definition
			}
			continue
		}
		if d.Condition.Matches(values) {
			return d.Definition, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ParsedFormDefinition{}, false
}

// ParseConditionalDefinitions returns one definition per <rows> block,
// all sharing the viewdef's columns.
func (P *Parser) ParseConditionalDefinitions(viewDef *xmlnode.Node, table *schema.Table) ([]ConditionalFormDefinition, error) {
	columns, err := columnDefinition(viewDef)
	if err != nil {
		return nil, err
	}
	blocks := viewDef.ChildrenNamed("rows")
	if len(blocks) == 0 {
		return []ConditionalFormDefinition{{Definition: PostProcess(columns, nil, table)}}, nil
	}
	defs := make([]ConditionalFormDefinition, 0, len(blocks))
	for _, rows := range blocks {
		defs = append(defs, ConditionalFormDefinition{
			Condition:  parseCondition(rows.Attr("condition")),
			Definition: PostProcess(columns, P.parseRows(rows, table), table),
		})
	}
	return defs, nil
}

// parseGrid parses an element carrying its own columns and a single
// <rows> block (a viewdef or a panel cell).
func (P *Parser) parseGrid(n *xmlnode.Node, table *schema.Table) (ParsedFormDefinition, error) {
	columns, err := columnDefinition(n)
	if err != nil {
		return ParsedFormDefinition{}, err
	}
	return PostProcess(columns, P.parseRows(n.Child("rows"), table), table), nil
}

func (P *Parser) parseRows(rows *xmlnode.Node, table *schema.Table) [][]Cell {
	var grid [][]Cell
	for _, row := range rows.ChildrenNamed("row") {
		cells := make([]Cell, 0, len(row.Children))
		for _, cell := range row.ChildrenNamed("cell") {
			cells = append(cells, P.ParseCell(table, cell))
		}
		grid = append(grid, cells)
	}
	return grid
}

// columnDefinition reads <columnDef os="lnx">, then the first
// <columnDef>, then the colDef attribute.
func columnDefinition(n *xmlnode.Node) ([]*int, error) {
	defs := n.ChildrenNamed("columndef")
	for _, d := range defs {
		if strings.EqualFold(d.Attr("os"), "lnx") {
			return ProcessColumnDefinition(d.Text), nil
		}
	}
	if len(defs) != 0 {
		return ProcessColumnDefinition(defs[0].Text), nil
	}
	if s, ok := n.LookupAttr("coldef"); ok {
		return ProcessColumnDefinition(s), nil
	}
	return nil, errors.Wrap(ErrNoColumnDefinition, n.Attr("name"))
}

// tableNameOf returns the table name of a Java class name.
func tableNameOf(class string) string {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		class = class[i+1:]
	}
	if class == "ObjectAttachmentIFace" {
		return "Attachment"
	}
	return class
}

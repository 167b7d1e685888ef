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

package formparse

import (
	"sort"

	"github.com/UNO-SOFT/formparse/schema"
)

// separatorThreshold is the field count from which the generated form
// gets Fields and Relationships separators.
const separatorThreshold = 10

// FieldsToShow returns the fields an auto-generated form displays,
// required ones first.
//
// Literal fields must be visible, writable and not virtual; relationships
// are shown only when required or dependent (and never to-many ones in a
// table). Should nothing pass, every field is shown.
func FieldsToShow(table *schema.Table, formType FormType) []*schema.Field {
	var shown, all []*schema.Field
	for _, f := range tableFields(table) {
		all = append(all, f)
		if f.Hidden || f.Virtual {
			continue
		}
		if !f.IsRelationship {
			if !f.ReadOnly {
				shown = append(shown, f)
			}
			continue
		}
		if formType == FormTypeTable && f.RelationshipType.ToMany() {
			continue
		}
		if f.Required || f.Dependent {
			shown = append(shown, f)
		}
	}
	if len(shown) == 0 {
		shown = all
	}
	sort.SliceStable(shown, func(i, j int) bool { return shown[i].Required && !shown[j].Required })
	return shown
}

// AutoGenerate builds a definition for table without any viewdef.
// fieldNames overrides FieldsToShow; unknown names are skipped.
func (P *Parser) AutoGenerate(table *schema.Table, formType FormType, mode Mode, fieldNames []string) ViewDescription {
	var fields []*schema.Field
	for _, name := range fieldNames {
		if f, ok := table.Field(name); ok {
			fields = append(fields, f)
		} else {
			P.log().Warnw("unknown field", "table", table.Name, "field", name)
		}
	}
	if len(fields) == 0 {
		fields = FieldsToShow(table, formType)
	}

	var def ParsedFormDefinition
	if formType == FormTypeTable {
		def = P.generateFormTable(table, fields, mode)
	} else {
		def = P.generateForm(table, fields, mode)
	}
	return ViewDescription{
		ParsedFormDefinition: def,
		FormType:             formType,
		Mode:                 mode,
		Table:                table.Name,
		Generated:            true,
	}
}

func tableFields(table *schema.Table) []*schema.Field {
	fields := make([]*schema.Field, 0, len(table.Fields)+len(table.Relationships))
	for i := range table.Fields {
		fields = append(fields, &table.Fields[i])
	}
	for i := range table.Relationships {
		fields = append(fields, &table.Relationships[i])
	}
	return fields
}

func (P *Parser) generateForm(table *schema.Table, fields []*schema.Field, mode Mode) ParsedFormDefinition {
	var literals, relationships []*schema.Field
	for _, f := range fields {
		if f.IsRelationship {
			relationships = append(relationships, f)
		} else {
			literals = append(literals, f)
		}
	}
	separators := len(fields) >= separatorThreshold && len(literals) != 0 && len(relationships) != 0

	var rows [][]Cell
	group := func(title string, fields []*schema.Field) {
		if separators {
			rows = append(rows, []Cell{{
				Kind: KindSeparator, ColSpan: 2, Align: AlignLeft, Visible: true,
				Separator: &SeparatorCell{Label: P.localize(title)},
			}})
		}
		for _, f := range fields {
			c := P.generatedCell(table, f, mode)
			rows = append(rows, []Cell{{
				Kind: KindLabel, ColSpan: 1, Align: AlignRight, Visible: true,
				Label: &LabelCell{Text: f.Label, LabelForCellID: c.ID, FieldNames: []string{f.Name}, Fields: []*schema.Field{f}},
			}, c})
		}
	}
	group("Fields", literals)
	group("Relationships", relationships)
	return PostProcess([]*int{nil, nil}, rows, table)
}

func (P *Parser) generateFormTable(table *schema.Table, fields []*schema.Field, mode Mode) ParsedFormDefinition {
	row := make([]Cell, 0, len(fields))
	for _, f := range fields {
		c := P.generatedCell(table, f, mode)
		c.Align = AlignCenter
		c.AriaLabel = firstNonEmpty(f.Label, f.Name)
		row = append(row, c)
	}
	var rows [][]Cell
	if len(row) != 0 {
		rows = append(rows, row)
	}
	return PostProcess(make([]*int, len(row)), rows, table)
}

func (P *Parser) generatedCell(table *schema.Table, f *schema.Field, mode Mode) Cell {
	c := Cell{ID: f.Name, ColSpan: 1, Align: AlignLeft, Visible: true}
	fields := []*schema.Field{f}
	if f.IsRelationship && f.RelationshipType.ToMany() {
		sortField := "id"
		if related, ok := P.registry().Get(f.RelatedTable); ok && related.IDFieldName != "" {
			sortField = related.IDFieldName
		}
		c.Kind = KindSubView
		c.SubView = &SubViewCell{
			FieldNames: []string{f.Name},
			Fields:     fields,
			FormType:   FormTypeTable,
			IsButton:   true,
			SortField:  sortField,
		}
		return c
	}
	readOnly := mode == ModeView || (mode != ModeSearch && f.ReadOnly)
	c.Kind = KindField
	c.Field = &FieldCell{
		FieldNames: []string{f.Name},
		Fields:     fields,
		IsRequired: f.Required && mode != ModeSearch,
		ReadOnly:   readOnly,
		Definition: generatedDefinition(f),
	}
	return c
}

func generatedDefinition(f *schema.Field) FieldDefinition {
	switch {
	case f.IsRelationship:
		return FieldDefinition{Kind: FieldQueryComboBox}
	case f.Type == "java.lang.Boolean" || f.Type == "boolean":
		return FieldDefinition{Kind: FieldCheckbox}
	case f.PickList != "":
		return FieldDefinition{Kind: FieldComboBox, PickList: f.PickList}
	case f.Type == "text" || f.Length > 255:
		return FieldDefinition{Kind: FieldTextArea, Rows: 4}
	}
	return FieldDefinition{Kind: FieldText}
}

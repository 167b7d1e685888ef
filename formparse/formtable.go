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
	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/xmlnode"
)

// ParseFormTableDefinition parses viewDef as a table: every visible field
// and subview becomes one centered column of a single row. Labels are
// dropped; their text lives on as the column's aria-label.
func (P *Parser) ParseFormTableDefinition(viewDef *xmlnode.Node, table *schema.Table) (ParsedFormDefinition, error) {
	def, err := P.ParseFormDefinition(viewDef, table)
	if err != nil {
		return def, err
	}
	return flattenFormTable(def), nil
}

func flattenFormTable(def ParsedFormDefinition) ParsedFormDefinition {
	var row []Cell
	for _, cells := range def.Rows {
		for _, c := range cells {
			if !c.Visible || (c.Kind != KindField && c.Kind != KindSubView) {
				continue
			}
			c.ColSpan = 1
			c.Align = AlignCenter
			if c.Kind == KindField && c.Field.Definition.Kind == FieldCheckbox && c.Field.Definition.Label != "" {
				fc := *c.Field
				if c.AriaLabel == "" {
					c.AriaLabel = fc.Definition.Label
				}
				fc.Definition.Label = ""
				c.Field = &fc
			}
			row = append(row, c)
		}
	}
	out := ParsedFormDefinition{Columns: make([]*int, len(row)), Rows: [][]Cell{}}
	if len(row) != 0 {
		out.Rows = append(out.Rows, row)
	}
	return out
}

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
	"strings"

	"github.com/UNO-SOFT/formparse/schema"
)

// PostProcess associates labels with fields, fills in label texts and
// aria-labels, and pads the grid to a rectangle: every row spans exactly
// len(Columns) columns. The input is not modified, and applying
// PostProcess to its own output changes nothing.
func PostProcess(columns []*int, rows [][]Cell, table *schema.Table) ParsedFormDefinition {
	grid := copyRows(rows)
	cols := make([]*int, len(columns))
	copy(cols, columns)

	index := indexFieldCells(grid)
	associateLabels(grid, len(cols))
	resolveLabelText(grid, index, table)
	if downgradeEmptyLabels(grid) {
		// The downgraded labels released their claims.
		associateLabels(grid, len(cols))
		resolveLabelText(grid, index, table)
	}
	cols = rectangularize(cols, grid)
	// Clear the redundant inline labels first, so those checkboxes get
	// their aria-label from the external label.
	dedupeCheckboxLabels(grid)
	synthesizeAriaLabels(grid, index)

	return ParsedFormDefinition{Columns: cols, Rows: grid}
}

func copyRows(rows [][]Cell) [][]Cell {
	grid := make([][]Cell, len(rows))
	for i, row := range rows {
		grid[i] = make([]Cell, len(row))
		copy(grid[i], row)
	}
	return grid
}

type fieldInfo struct {
	FieldName     string
	CheckboxLabel string
	SchemaLabel   string
}

func indexFieldCells(grid [][]Cell) map[string]fieldInfo {
	index := make(map[string]fieldInfo)
	for _, row := range grid {
		for _, c := range row {
			if c.ID == "" {
				continue
			}
			switch c.Kind {
			case KindField:
				info := fieldInfo{FieldName: strings.Join(c.Field.FieldNames, ".")}
				if c.Field.Definition.Kind == FieldCheckbox {
					info.CheckboxLabel = c.Field.Definition.Label
				}
				if f := lastField(c.Field.Fields); f != nil {
					info.SchemaLabel = f.Label
				}
				index[c.ID] = info
			case KindSubView:
				info := fieldInfo{FieldName: strings.Join(c.SubView.FieldNames, ".")}
				if f := lastField(c.SubView.Fields); f != nil {
					info.SchemaLabel = f.Label
				}
				index[c.ID] = info
			}
		}
	}
	return index
}

// rendersOwnLabel reports cells that never get an adjacent label.
func rendersOwnLabel(c Cell) bool {
	if c.Kind != KindField {
		return false
	}
	k := c.Field.Definition.Kind
	return k == FieldPlugin || k == FieldCheckbox
}

func associateLabels(grid [][]Cell, columnCount int) {
	claimed := make(map[string]bool)
	for _, row := range grid {
		for _, c := range row {
			if c.Kind == KindLabel && c.Label.LabelForCellID != "" {
				claimed[c.Label.LabelForCellID] = true
			}
		}
	}
	for r, row := range grid {
		for i := range row {
			c := &row[i]
			if c.Kind != KindLabel || c.Label.LabelForCellID != "" {
				continue
			}
			var target string
			if i+1 < len(row) {
				if next := row[i+1]; next.ID != "" && !rendersOwnLabel(next) && !claimed[next.ID] {
					target = next.ID
				}
			}
			if target == "" && columnCount == 1 && r+1 < len(grid) {
				if below := cellAt(grid[r+1], spanBefore(row, i)); below != nil && below.ID != "" && !claimed[below.ID] {
					target = below.ID
				}
			}
			if target == "" {
				continue
			}
			claimed[target] = true
			l := *c.Label
			l.LabelForCellID = target
			c.Label = &l
		}
	}
}

func spanBefore(row []Cell, i int) int {
	var n int
	for _, c := range row[:i] {
		n += c.ColSpan
	}
	return n
}

// cellAt returns the cell starting at column offset.
func cellAt(row []Cell, offset int) *Cell {
	var n int
	for i := range row {
		if n == offset {
			return &row[i]
		}
		if n > offset {
			break
		}
		n += row[i].ColSpan
	}
	return nil
}

func resolveLabelText(grid [][]Cell, index map[string]fieldInfo, table *schema.Table) {
	for _, row := range grid {
		for i := range row {
			c := &row[i]
			if c.Kind != KindLabel {
				continue
			}
			l := *c.Label
			var info fieldInfo
			if l.LabelForCellID != "" {
				info = index[l.LabelForCellID]
			}
			text := firstNonEmpty(info.CheckboxLabel, l.Text)
			// divisionCBX is labelled on some forms but is no field.
			if text == "" && l.LabelForCellID == "divisionCBX" && table != nil {
				if f, ok := table.Field("division"); ok {
					text = f.Label
				}
			}
			if text == "" {
				text = info.SchemaLabel
			}
			if f := lastField(l.Fields); text == "" && f != nil {
				text = f.Label
			}
			l.Text = text
			c.Label = &l
		}
	}
}

func downgradeEmptyLabels(grid [][]Cell) bool {
	var downgraded bool
	for _, row := range grid {
		for i, c := range row {
			if c.Kind == KindLabel && c.Label.Text == "" {
				row[i] = Cell{ID: c.ID, Kind: KindBlank, ColSpan: c.ColSpan, Align: c.Align}
				downgraded = true
			}
		}
	}
	return downgraded
}

func rowSpan(row []Cell) int {
	return spanBefore(row, len(row))
}

func rectangularize(cols []*int, grid [][]Cell) []*int {
	width := len(cols)
	for _, row := range grid {
		if n := rowSpan(row); n > width {
			width = n
		}
	}
	for len(cols) < width {
		cols = append(cols, nil)
	}
	for r, row := range grid {
		if n := rowSpan(row); n < width {
			grid[r] = append(row, Cell{Kind: KindBlank, ColSpan: width - n, Align: AlignLeft})
		}
	}
	return cols
}

func labelTexts(grid [][]Cell) map[string]string {
	texts := make(map[string]string)
	for _, row := range grid {
		for _, c := range row {
			if c.Kind == KindLabel && c.Label.LabelForCellID != "" {
				if _, ok := texts[c.Label.LabelForCellID]; !ok {
					texts[c.Label.LabelForCellID] = c.Label.Text
				}
			}
		}
	}
	return texts
}

func dedupeCheckboxLabels(grid [][]Cell) {
	labelled := labelTexts(grid)
	for _, row := range grid {
		for i := range row {
			c := &row[i]
			if c.Kind != KindField || c.ID == "" || c.Field.Definition.Kind != FieldCheckbox || c.Field.Definition.Label == "" {
				continue
			}
			if _, ok := labelled[c.ID]; !ok {
				continue
			}
			fc := *c.Field
			fc.Definition.Label = ""
			c.Field = &fc
		}
	}
}

func synthesizeAriaLabels(grid [][]Cell, index map[string]fieldInfo) {
	texts := labelTexts(grid)
	for _, row := range grid {
		for i := range row {
			c := &row[i]
			if c.AriaLabel != "" {
				continue
			}
			var names []string
			switch c.Kind {
			case KindField:
				if c.Field.Definition.Kind == FieldCheckbox && c.Field.Definition.Label != "" {
					continue
				}
				names = c.Field.FieldNames
			case KindSubView:
				names = c.SubView.FieldNames
			default:
				continue
			}
			var info fieldInfo
			if c.ID != "" {
				info = index[c.ID]
			}
			c.AriaLabel = firstNonEmpty(texts[c.ID], info.SchemaLabel, cellSchemaLabel(*c), strings.Join(names, "."))
		}
	}
}

func cellSchemaLabel(c Cell) string {
	var f *schema.Field
	switch c.Kind {
	case KindField:
		f = lastField(c.Field.Fields)
	case KindSubView:
		f = lastField(c.SubView.Fields)
	}
	if f == nil {
		return ""
	}
	return f.Label
}

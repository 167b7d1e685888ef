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
	"strconv"
	"strings"

	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/xmlnode"
)

// ParseCell translates one <cell> element. It never fails: problems
// yield an Unsupported cell and a warning.
func (P *Parser) ParseCell(table *schema.Table, cell *xmlnode.Node) Cell {
	rawType := cell.Attr("type")
	props := ParseProperties(cell.Attr("initialize"))
	kind, ok := cellKinds[strings.ToLower(rawType)]
	if !ok {
		kind = KindUnsupported
	}
	c := Cell{
		ID:        cell.Attr("id"),
		Kind:      kind,
		ColSpan:   colSpan(cell),
		Visible:   !cell.BoolAttr("invisible"),
		AriaLabel: firstNonEmpty(props.Get("arialabel"), props.Get("title")),
	}
	if a, ok := parseAlign(props.Get("align")); ok {
		c.Align = a
	} else if kind == KindLabel {
		c.Align = AlignRight
	} else {
		c.Align = AlignLeft
	}

	switch kind {
	case KindField:
		fc, reason := P.parseField(table, cell, props)
		if fc == nil {
			return P.unsupported(c, table, "field", reason)
		}
		c.Field = fc
	case KindLabel:
		c.Label = P.parseLabel(table, cell)
	case KindSeparator:
		c.Separator = P.parseSeparator(cell)
	case KindSubView:
		sv, reason := P.parseSubView(table, cell, props)
		if sv == nil {
			return P.unsupported(c, table, "subview", reason)
		}
		c.SubView = sv
	case KindPanel:
		pc, err := P.parsePanel(table, cell)
		if err != nil {
			return P.unsupported(c, table, "panel", err.Error())
		}
		c.Panel = pc
	case KindCommand:
		name := cell.Attr("name")
		c.Command = &CommandCell{
			Name:        name,
			Label:       P.localize(firstNonEmpty(cell.Attr("label"), name)),
			CommandType: cell.Attr("commandtype"),
		}
	case KindBlank:
	default:
		return P.unsupported(c, table, rawType, "unknown cell type")
	}
	return c
}

func (P *Parser) unsupported(c Cell, table *schema.Table, cellType, reason string) Cell {
	tableName := ""
	if table != nil {
		tableName = table.Name
	}
	P.log().Warnw("unsupported cell", "table", tableName, "cell", c.ID, "type", cellType, "reason", reason)
	return Cell{
		ID:          c.ID,
		Kind:        KindUnsupported,
		ColSpan:     c.ColSpan,
		Align:       c.Align,
		Visible:     c.Visible,
		AriaLabel:   c.AriaLabel,
		Unsupported: &UnsupportedCell{CellType: cellType, Reason: reason},
	}
}

// colSpan halves the legacy gap-inclusive span, rounding up.
func colSpan(cell *xmlnode.Node) int {
	n, ok := cell.IntAttr("colspan")
	if !ok || n < 1 {
		return 1
	}
	return (n + 1) / 2
}

func (P *Parser) parseLabel(table *schema.Table, cell *xmlnode.Node) *LabelCell {
	l := &LabelCell{
		Text:           P.localize(cell.Attr("label")),
		LabelForCellID: cell.Attr("labelfor"),
	}
	if name := cell.Attr("name"); name != "" && name != "this" {
		if fields, err := P.resolveFields(table, name); err != nil {
			P.log().Debugw("label field", "name", name, "error", err)
		} else {
			l.Fields = fields
			l.FieldNames = fieldNames(fields)
		}
	}
	return l
}

func (P *Parser) parseSeparator(cell *xmlnode.Node) *SeparatorCell {
	s := &SeparatorCell{
		Label:    P.localize(cell.Attr("label")),
		Icon:     cell.Attr("icon"),
		ForClass: cell.Attr("forclass"),
	}
	if s.Label == "" && s.ForClass != "" {
		if t, ok := P.Tables.Get(tableNameOf(s.ForClass)); ok {
			s.Label = t.Label
		}
	}
	return s
}

func (P *Parser) parseSubView(table *schema.Table, cell *xmlnode.Node, props Properties) (*SubViewCell, string) {
	name := cell.Attr("name")
	if name == "" {
		return nil, "subview without name"
	}
	fields, err := P.resolveFields(table, name)
	if err != nil {
		return nil, err.Error()
	}
	if f := lastField(fields); !f.IsRelationship {
		return nil, name + " is not a relationship"
	}
	ft := FormTypeForm
	if strings.EqualFold(cell.Attr("defaulttype"), "table") {
		ft = FormTypeTable
	}
	return &SubViewCell{
		FieldNames:  fieldNames(fields),
		Fields:      fields,
		ViewName:    cell.Attr("viewname"),
		FormType:    ft,
		IsButton:    props.Bool("btn"),
		Icon:        props.Get("icon"),
		SortField:   props.Get("sortfield"),
		IsCollapsed: props.Bool("collapse"),
	}, ""
}

func (P *Parser) parsePanel(table *schema.Table, cell *xmlnode.Node) (*PanelCell, error) {
	def, err := P.parseGrid(cell, table)
	if err != nil {
		return nil, err
	}
	pt := "panel"
	if strings.EqualFold(cell.Attr("paneltype"), "buttonbar") {
		pt = "buttonBar"
	}
	return &PanelCell{Name: cell.Attr("name"), PanelType: pt, Definition: def}, nil
}

// pluginFields maps plugin names (lower-cased) to the property naming
// their field. An empty property means the plugin works on the record
// itself.
var pluginFields = map[string]string{
	"partialdateui":                "df",
	"hosttaxonplugin":              "relname",
	"collectionrelonetomanyplugin": "relname",
	"latlonui":                     "",
	"localitygoogleearth":          "",
	"localitygeoref":               "",
}

func (P *Parser) parseField(table *schema.Table, cell *xmlnode.Node, props Properties) (*FieldCell, string) {
	uiType := strings.ToLower(cell.Attr("uitype"))
	def := P.parseFieldDefinition(uiType, cell, props)

	name := cell.Attr("name")
	needsField := true
	switch {
	case def.Kind == FieldPlugin:
		if prop, ok := pluginFields[strings.ToLower(def.Plugin.Name)]; ok {
			if prop == "" {
				needsField = false
			} else if v := props.Get(prop); v != "" {
				name = v
			}
		}
	case def.Kind == FieldCheckbox && strings.EqualFold(name, "printOnSave"):
		def.PrintOnSave = true
		needsField = false
	}
	if name == "this" {
		needsField = false
	}

	fc := &FieldCell{
		IsRequired:   cell.BoolAttr("isrequired"),
		ReadOnly:     cell.BoolAttr("readonly") || readOnlyUIType(uiType),
		DefaultValue: cell.Attr("default"),
		Definition:   def,
	}
	if !needsField {
		return fc, ""
	}
	if name == "" {
		return nil, "field without name"
	}
	fields, err := P.resolveFields(table, name)
	if err != nil {
		return nil, err.Error()
	}
	fc.Fields = fields
	fc.FieldNames = fieldNames(fields)
	if f := lastField(fields); f.Required {
		fc.IsRequired = true
	}
	return fc, ""
}

func readOnlyUIType(uiType string) bool {
	switch uiType {
	case "dsptextfield", "label", "textfieldinfo":
		return true
	}
	return false
}

func (P *Parser) parseFieldDefinition(uiType string, cell *xmlnode.Node, props Properties) FieldDefinition {
	switch uiType {
	case "", "text", "textfield", "formattedtext", "dsptextfield", "label", "textfieldinfo":
		return FieldDefinition{
			Kind:   FieldText,
			Format: firstNonEmpty(cell.Attr("uifieldformatter"), cell.Attr("formatname")),
		}
	case "spinner":
		step := 1.0
		d := FieldDefinition{Kind: FieldText, Min: parseFloat(props.Get("min")), Max: parseFloat(props.Get("max")), Step: &step}
		if s := parseFloat(props.Get("step")); s != nil {
			d.Step = s
		}
		return d
	case "checkbox", "tristate":
		return FieldDefinition{
			Kind:  FieldCheckbox,
			Label: P.localize(firstNonEmpty(cell.Attr("label"), props.Get("label"))),
		}
	case "combobox":
		return FieldDefinition{Kind: FieldComboBox, PickList: cell.Attr("picklist")}
	case "textarea":
		rows, ok := cell.IntAttr("rows")
		if !ok || rows < 1 {
			rows = 4
		}
		return FieldDefinition{Kind: FieldTextArea, Rows: rows}
	case "textareabrief":
		return FieldDefinition{Kind: FieldTextArea, Rows: 1}
	case "querycbx":
		return FieldDefinition{
			Kind:           FieldQueryComboBox,
			TypeSearch:     props.Get("name"),
			SearchView:     props.Get("searchview"),
			HasCloneButton: props.Bool("clonebtn"),
		}
	case "plugin":
		return FieldDefinition{
			Kind:   FieldPlugin,
			Plugin: &PluginDefinition{Name: props.Get("name"), Properties: props},
		}
	case "browse":
		return FieldDefinition{Kind: FieldFilePicker}
	}
	return FieldDefinition{Kind: FieldUnsupported, UIType: uiType}
}

// resolveFields resolves a dotted name on table. A leading segment naming
// the table itself is dropped, unless it is also a field.
func (P *Parser) resolveFields(table *schema.Table, name string) ([]*schema.Field, error) {
	if table != nil {
		if first, rest, ok := strings.Cut(name, "."); ok && strings.EqualFold(first, table.Name) {
			if _, isField := table.Field(first); !isField {
				name = rest
			}
		}
	}
	return P.registry().ResolvePath(table, name)
}

func fieldNames(fields []*schema.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

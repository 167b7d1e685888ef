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

// CellKind tags a Cell.
type CellKind string

const (
	KindField       CellKind = "Field"
	KindLabel       CellKind = "Label"
	KindSeparator   CellKind = "Separator"
	KindSubView     CellKind = "SubView"
	KindPanel       CellKind = "Panel"
	KindCommand     CellKind = "Command"
	KindBlank       CellKind = "Blank"
	KindUnsupported CellKind = "Unsupported"
)

// cellKinds translates the lower-cased type attribute.
var cellKinds = map[string]CellKind{
	"field":     KindField,
	"label":     KindLabel,
	"separator": KindSeparator,
	"subview":   KindSubView,
	"panel":     KindPanel,
	"command":   KindCommand,
	"blank":     KindBlank,
}

// FieldKind is the widget of a Field cell.
type FieldKind string

const (
	FieldText          FieldKind = "Text"
	FieldCheckbox      FieldKind = "Checkbox"
	FieldComboBox      FieldKind = "ComboBox"
	FieldTextArea      FieldKind = "TextArea"
	FieldQueryComboBox FieldKind = "QueryComboBox"
	FieldPlugin        FieldKind = "Plugin"
	FieldFilePicker    FieldKind = "FilePicker"
	FieldUnsupported   FieldKind = "Unsupported"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

func parseAlign(s string) (Align, bool) {
	switch a := Align(strings.ToLower(s)); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a, true
	}
	return "", false
}

// FormType selects between a label/field grid and a row-per-record table.
type FormType string

const (
	FormTypeForm  FormType = "form"
	FormTypeTable FormType = "formTable"
)

// ParseFormType accepts form, formtable and table, case-insensitively.
func ParseFormType(s string) (FormType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "form":
		return FormTypeForm, true
	case "formtable", "table":
		return FormTypeTable, true
	}
	return FormTypeForm, false
}

type Mode string

const (
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
	ModeSearch Mode = "search"
)

// ParseMode accepts edit, view and search, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeEdit, ModeView, ModeSearch:
		return m, true
	}
	return ModeView, false
}

// ParsedFormDefinition is a rectangular grid of cells. A nil column width
// means auto-size.
type ParsedFormDefinition struct {
	Columns []*int   `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// Cell is one grid unit. Exactly the payload matching Kind is set
// (Blank has none).
type Cell struct {
	ID        string   `json:"id,omitempty"`
	Kind      CellKind `json:"type"`
	ColSpan   int      `json:"colSpan"`
	Align     Align    `json:"align"`
	Visible   bool     `json:"visible"`
	AriaLabel string   `json:"ariaLabel,omitempty"`

	Field       *FieldCell       `json:"field,omitempty"`
	Label       *LabelCell       `json:"label,omitempty"`
	Separator   *SeparatorCell   `json:"separator,omitempty"`
	SubView     *SubViewCell     `json:"subView,omitempty"`
	Panel       *PanelCell       `json:"panel,omitempty"`
	Command     *CommandCell     `json:"command,omitempty"`
	Unsupported *UnsupportedCell `json:"unsupported,omitempty"`
}

type FieldCell struct {
	// FieldNames is the resolved path; empty for the record itself.
	FieldNames   []string        `json:"fieldNames,omitempty"`
	IsRequired   bool            `json:"isRequired,omitempty"`
	ReadOnly     bool            `json:"readOnly,omitempty"`
	DefaultValue string          `json:"defaultValue,omitempty"`
	Definition   FieldDefinition `json:"definition"`

	Fields []*schema.Field `json:"-"`
}

// FieldDefinition is the widget configuration, tagged by Kind.
type FieldDefinition struct {
	Kind FieldKind `json:"type"`

	// Text
	Format string   `json:"format,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Step   *float64 `json:"step,omitempty"`
	// Checkbox
	Label       string `json:"label,omitempty"`
	PrintOnSave bool   `json:"printOnSave,omitempty"`
	// ComboBox
	PickList string `json:"pickList,omitempty"`
	// TextArea
	Rows int `json:"rows,omitempty"`
	// QueryComboBox
	TypeSearch     string `json:"typeSearch,omitempty"`
	SearchView     string `json:"searchView,omitempty"`
	HasCloneButton bool   `json:"hasCloneButton,omitempty"`
	// Plugin
	Plugin *PluginDefinition `json:"plugin,omitempty"`
	// Unsupported
	UIType string `json:"uiType,omitempty"`
}

type PluginDefinition struct {
	Name       string     `json:"name"`
	Properties Properties `json:"properties,omitempty"`
}

type LabelCell struct {
	Text           string   `json:"text"`
	LabelForCellID string   `json:"labelForCellId,omitempty"`
	FieldNames     []string `json:"fieldNames,omitempty"`

	Fields []*schema.Field `json:"-"`
}

type SeparatorCell struct {
	Label    string `json:"label,omitempty"`
	Icon     string `json:"icon,omitempty"`
	ForClass string `json:"forClass,omitempty"`
}

type SubViewCell struct {
	FieldNames  []string `json:"fieldNames"`
	ViewName    string   `json:"viewName,omitempty"`
	FormType    FormType `json:"formType"`
	IsButton    bool     `json:"isButton,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	SortField   string   `json:"sortField,omitempty"` // "-" prefix means descending
	IsCollapsed bool     `json:"isCollapsed,omitempty"`

	Fields []*schema.Field `json:"-"`
}

type PanelCell struct {
	Name       string               `json:"name,omitempty"`
	PanelType  string               `json:"panelType"` // panel or buttonBar
	Definition ParsedFormDefinition `json:"definition"`
}

type CommandCell struct {
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	CommandType string `json:"commandType,omitempty"`
}

// UnsupportedCell keeps the raw type for diagnostics.
type UnsupportedCell struct {
	CellType string `json:"cellType"`
	Reason   string `json:"reason,omitempty"`
}

// ViewDescription is a resolved, parsed view ready for rendering.
type ViewDescription struct {
	ParsedFormDefinition
	FormType    FormType                    `json:"formType"`
	Mode        Mode                        `json:"mode"`
	Table       string                      `json:"table"`
	ViewName    string                      `json:"viewName,omitempty"`
	ViewSetID   *int                        `json:"viewSetId,omitempty"`
	Generated   bool                        `json:"generated,omitempty"`
	Conditional []ConditionalFormDefinition `json:"conditional,omitempty"`
}

// lastField returns the leaf of a resolved path.
func lastField(fields []*schema.Field) *schema.Field {
	if len(fields) == 0 {
		return nil
	}
	return fields[len(fields)-1]
}

package formparse_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/schema"
)

func names(fields []*schema.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestFieldsToShow(t *testing.T) {
	P := newParser(t)
	co := table(t, P, "CollectionObject")

	assert.Equal(t,
		[]string{"catalogNumber", "collection", "remarks", "yesNo1", "countAmt", "determinations"},
		names(formparse.FieldsToShow(co, formparse.FormTypeForm)))
	assert.Equal(t,
		[]string{"catalogNumber", "collection", "remarks", "yesNo1", "countAmt"},
		names(formparse.FieldsToShow(co, formparse.FormTypeTable)))

	hidden := &schema.Table{Name: "Hidden", Fields: []schema.Field{
		{Name: "a", Hidden: true}, {Name: "b", ReadOnly: true, Required: true},
	}}
	assert.Equal(t, []string{"b", "a"}, names(formparse.FieldsToShow(hidden, formparse.FormTypeForm)))
}

func rowSpans(t *testing.T, def formparse.ParsedFormDefinition) {
	t.Helper()
	for i, row := range def.Rows {
		var n int
		for _, c := range row {
			n += c.ColSpan
		}
		assert.Equal(t, len(def.Columns), n, "row %d", i)
	}
}

func TestAutoGenerateForm(t *testing.T) {
	P := newParser(t)
	co := table(t, P, "CollectionObject")

	d := P.AutoGenerate(co, formparse.FormTypeForm, formparse.ModeEdit, nil)
	assert.True(t, d.Generated)
	assert.Equal(t, "CollectionObject", d.Table)
	assert.Equal(t, formparse.ModeEdit, d.Mode)
	assert.Len(t, d.Columns, 2)
	require.Len(t, d.Rows, 6)
	rowSpans(t, d.ParsedFormDefinition)

	r0 := d.Rows[0]
	assert.Equal(t, formparse.KindLabel, r0[0].Kind)
	assert.Equal(t, "Catalog #", r0[0].Label.Text)
	assert.Equal(t, "catalogNumber", r0[0].Label.LabelForCellID)
	assert.Equal(t, formparse.FieldText, r0[1].Field.Definition.Kind)
	assert.True(t, r0[1].Field.IsRequired)
	assert.Equal(t, "Catalog #", r0[1].AriaLabel)

	kinds := map[string]formparse.FieldKind{}
	for _, row := range d.Rows {
		if c := row[1]; c.Kind == formparse.KindField {
			kinds[c.ID] = c.Field.Definition.Kind
		}
	}
	assert.Equal(t, map[string]formparse.FieldKind{
		"catalogNumber": formparse.FieldText,
		"collection":    formparse.FieldQueryComboBox,
		"remarks":       formparse.FieldTextArea,
		"yesNo1":        formparse.FieldCheckbox,
		"countAmt":      formparse.FieldText,
	}, kinds)

	sv := d.Rows[5][1]
	require.Equal(t, formparse.KindSubView, sv.Kind)
	assert.True(t, sv.SubView.IsButton)
	assert.Equal(t, "determinationId", sv.SubView.SortField)
	assert.Equal(t, []string{"determinations"}, sv.SubView.FieldNames)
}

func TestAutoGenerateSeparators(t *testing.T) {
	P := newParser(t)
	tbl := &schema.Table{Name: "Wide", Label: "Wide"}
	for i := 0; i < 9; i++ {
		tbl.Fields = append(tbl.Fields, schema.Field{Name: fmt.Sprintf("f%d", i), Label: fmt.Sprintf("F%d", i)})
	}
	tbl.Relationships = []schema.Field{{
		Name: "agent", Label: "Agent", IsRelationship: true, Required: true,
		RelationshipType: schema.ManyToOne, RelatedTable: "Agent",
	}}
	P.Tables.Register(tbl)

	d := P.AutoGenerate(tbl, formparse.FormTypeForm, formparse.ModeEdit, nil)
	require.Len(t, d.Rows, 12)
	rowSpans(t, d.ParsedFormDefinition)
	assert.Equal(t, formparse.KindSeparator, d.Rows[0][0].Kind)
	assert.Equal(t, 2, d.Rows[0][0].ColSpan)
	assert.Equal(t, "Fields", d.Rows[0][0].Separator.Label)
	assert.Equal(t, "f0", d.Rows[1][1].ID)
	assert.Equal(t, "Relationships", d.Rows[10][0].Separator.Label)
	assert.Equal(t, "agent", d.Rows[11][1].ID)
	assert.Equal(t, formparse.FieldQueryComboBox, d.Rows[11][1].Field.Definition.Kind)

	tbl.Fields = tbl.Fields[:8]
	d = P.AutoGenerate(tbl, formparse.FormTypeForm, formparse.ModeEdit, nil)
	for _, row := range d.Rows {
		assert.NotEqual(t, formparse.KindSeparator, row[0].Kind)
	}
}

func TestAutoGenerateFormTable(t *testing.T) {
	P := newParser(t)
	co := table(t, P, "CollectionObject")

	d := P.AutoGenerate(co, formparse.FormTypeTable, formparse.ModeView, nil)
	assert.Equal(t, formparse.FormTypeTable, d.FormType)
	require.Len(t, d.Rows, 1)
	assert.Len(t, d.Columns, len(d.Rows[0]))
	for _, c := range d.Rows[0] {
		assert.NotEqual(t, formparse.KindLabel, c.Kind)
		assert.Equal(t, formparse.AlignCenter, c.Align)
		assert.NotEmpty(t, c.AriaLabel)
		if c.Kind == formparse.KindField {
			assert.True(t, c.Field.ReadOnly, c.ID)
		}
	}
	assert.Equal(t, "Catalog #", d.Rows[0][0].AriaLabel)
}

func TestAutoGenerateModes(t *testing.T) {
	P := newParser(t)
	co := table(t, P, "CollectionObject")

	d := P.AutoGenerate(co, formparse.FormTypeForm, formparse.ModeSearch, []string{"timestampCreated", "catalogNumber", "nope"})
	require.Len(t, d.Rows, 2)
	for _, row := range d.Rows {
		f := row[1].Field
		assert.False(t, f.ReadOnly)
		assert.False(t, f.IsRequired)
	}

	d = P.AutoGenerate(co, formparse.FormTypeForm, formparse.ModeEdit, []string{"timestampCreated"})
	require.Len(t, d.Rows, 1)
	assert.True(t, d.Rows[0][1].Field.ReadOnly)

	empty := &schema.Table{Name: "Empty"}
	d = P.AutoGenerate(empty, formparse.FormTypeForm, formparse.ModeEdit, nil)
	assert.Empty(t, d.Rows)
	assert.Len(t, d.Columns, 2)
}

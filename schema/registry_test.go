package schema_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/formparse/schema"
)

const dataModel = `[
 {"classname": "edu.ku.brc.specify.datamodel.CollectionObject", "table": "collectionobject",
  "tableId": 1, "idFieldName": "collectionObjectId",
  "fields": [
   {"name": "catalogNumber", "type": "java.lang.String", "length": 32, "isRequired": true},
   {"name": "remarks", "type": "text"},
   {"name": "timestampCreated", "type": "java.sql.Timestamp", "readOnly": true}
  ],
  "relationships": [
   {"name": "cataloger", "type": "many-to-one", "relatedModelName": "Agent"},
   {"name": "determinations", "type": "one-to-many", "dependent": true, "relatedModelName": "Determination", "otherSideName": "collectionObject"}
  ]},
 {"classname": "edu.ku.brc.specify.datamodel.Agent", "table": "agent", "tableId": 5, "idFieldName": "agentId",
  "fields": [{"name": "lastName", "type": "java.lang.String"}],
  "relationships": [{"name": "division", "type": "many-to-one", "relatedModelName": "Division"}]},
 {"classname": "edu.ku.brc.specify.datamodel.Division", "table": "division", "tableId": 96, "idFieldName": "divisionId",
  "fields": [{"name": "name", "type": "java.lang.String"}], "relationships": []}
]`

const localization = `{
 "collectionobject": {"name": "Collection Object", "desc": "An object", "items": {
   "catalognumber": {"name": "Cat #", "desc": "Catalog number", "picklistname": null},
   "remarks": {"name": "Remarks", "ishidden": true}
 }},
 "agent": {"name": "Agent", "items": {"lastname": {"name": "Last Name", "picklistname": "Names"}}}
}`

func load(t *testing.T) *schema.Registry {
	t.Helper()
	tables, err := schema.ReadDataModel(strings.NewReader(dataModel))
	require.NoError(t, err)
	loc, err := schema.ReadLocalization(strings.NewReader(localization))
	require.NoError(t, err)
	r := schema.NewRegistry()
	r.AddDataModel(tables, loc)
	return r
}

func TestAddDataModel(t *testing.T) {
	r := load(t)

	co, ok := r.Get("collectionobject")
	require.True(t, ok)
	assert.Equal(t, "CollectionObject", co.Name)
	assert.Equal(t, "Collection Object", co.Label)
	assert.Equal(t, "collectionObjectId", co.IDFieldName)

	cn, ok := co.Field("CATALOGNUMBER")
	require.True(t, ok)
	assert.Equal(t, "Cat #", cn.Label)
	assert.Equal(t, "Catalog number", cn.Description)
	assert.True(t, cn.Required)
	assert.Equal(t, "", cn.PickList)

	rm, _ := co.Field("remarks")
	assert.True(t, rm.Hidden)

	ts, _ := co.Field("timestampCreated")
	assert.Equal(t, "timestampCreated", ts.Label)
	assert.True(t, ts.ReadOnly)

	dets, ok := co.Field("determinations")
	require.True(t, ok)
	assert.True(t, dets.IsRelationship)
	assert.True(t, dets.RelationshipType.ToMany())
	assert.True(t, dets.Dependent)

	agent, _ := r.Get("Agent")
	ln, _ := agent.Field("lastName")
	assert.Equal(t, "Names", ln.PickList)

	names := make([]string, 0, 3)
	for _, tbl := range r.List() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"Agent", "CollectionObject", "Division"}, names)
}

func TestResolvePath(t *testing.T) {
	r := load(t)
	co, _ := r.Get("CollectionObject")

	fields, err := r.ResolvePath(co, "cataloger.division.name")
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "name", fields[2].Name)

	_, err = r.ResolvePath(co, "cataloger.nope")
	assert.Equal(t, schema.ErrUnknownField, errors.Cause(err))

	_, err = r.ResolvePath(co, "catalogNumber.length")
	assert.Equal(t, schema.ErrUnknownField, errors.Cause(err))
}

func TestTableFieldConcurrent(t *testing.T) {
	tbl := &schema.Table{
		Name:          "Agent",
		Fields:        []schema.Field{{Name: "lastName"}},
		Relationships: []schema.Field{{Name: "division", IsRelationship: true, RelationshipType: schema.ManyToOne}},
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, ok := tbl.Field("LASTNAME")
			assert.True(t, ok)
			assert.Equal(t, "lastName", f.Name)
			_, ok = tbl.Field("division")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

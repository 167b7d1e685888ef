package formparse_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/UNO-SOFT/formparse/formparse"
	"github.com/UNO-SOFT/formparse/logger"
	"github.com/UNO-SOFT/formparse/schema"
	"github.com/UNO-SOFT/formparse/xmlnode"
)

func newRegistry() *schema.Registry {
	r := schema.NewRegistry()
	r.Register(&schema.Table{
		Name: "CollectionObject", Label: "Collection Object", IDFieldName: "collectionObjectId",
		ClassName: "edu.ku.brc.specify.datamodel.CollectionObject",
		Fields: []schema.Field{
			{Name: "catalogNumber", Label: "Catalog #", Type: "java.lang.String", Length: 32, Required: true},
			{Name: "remarks", Label: "Remarks", Type: "text"},
			{Name: "yesNo1", Label: "Yes/No 1", Type: "java.lang.Boolean"},
			{Name: "timestampCreated", Label: "Created", Type: "java.sql.Timestamp", ReadOnly: true},
			{Name: "text1", Label: "Text 1", Type: "java.lang.String", Hidden: true},
			{Name: "countAmt", Label: "Count", Type: "java.lang.Integer"},
		},
		Relationships: []schema.Field{
			{Name: "cataloger", Label: "Cataloger", IsRelationship: true, RelationshipType: schema.ManyToOne, RelatedTable: "Agent"},
			{Name: "collection", Label: "Collection", IsRelationship: true, RelationshipType: schema.ManyToOne, RelatedTable: "Collection", Required: true},
			{Name: "determinations", Label: "Determinations", IsRelationship: true, RelationshipType: schema.OneToMany, RelatedTable: "Determination", Dependent: true},
			{Name: "division", Label: "Division", IsRelationship: true, RelationshipType: schema.ManyToOne, RelatedTable: "Division", Hidden: true},
		},
	})
	r.Register(&schema.Table{
		Name: "Agent", Label: "Agent", IDFieldName: "agentId",
		Fields: []schema.Field{
			{Name: "lastName", Label: "Last Name", Type: "java.lang.String", Required: true},
			{Name: "firstName", Label: "First Name", Type: "java.lang.String"},
		},
	})
	r.Register(&schema.Table{
		Name: "Determination", Label: "Determination", IDFieldName: "determinationId",
		Fields: []schema.Field{
			{Name: "isCurrent", Label: "Current", Type: "java.lang.Boolean"},
		},
	})
	r.Register(&schema.Table{
		Name: "Collection", Label: "Collection", IDFieldName: "collectionId",
		Fields: []schema.Field{{Name: "collectionName", Label: "Name", Type: "java.lang.String"}},
	})
	r.Register(&schema.Table{
		Name: "Attachment", Label: "Attachment", IDFieldName: "attachmentId",
		Fields: []schema.Field{{Name: "title", Label: "Title", Type: "java.lang.String"}},
	})
	return r
}

func newParser(t *testing.T) *formparse.Parser {
	t.Helper()
	return &formparse.Parser{
		Tables: newRegistry(),
		Logger: &logger.Logger{SugaredLogger: zaptest.NewLogger(t).Sugar()},
	}
}

func table(t *testing.T, P *formparse.Parser, name string) *schema.Table {
	t.Helper()
	tbl, ok := P.Tables.Get(name)
	require.True(t, ok, name)
	return tbl
}

func node(t *testing.T, s string) *xmlnode.Node {
	t.Helper()
	n, err := xmlnode.ParseString(s)
	require.NoError(t, err)
	return n
}

func intp(i int) *int { return &i }

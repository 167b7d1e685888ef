package localize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/formparse/localize"
)

func TestDictionary(t *testing.T) {
	d, err := localize.Read(strings.NewReader(`{"CAT_NUM": "Catalog Number", "Remarks": "Notes"}`))
	require.NoError(t, err)

	assert.Equal(t, "Catalog Number", d.Localize("CAT_NUM"))
	assert.Equal(t, "Notes", d.Localize(" Remarks "))
	assert.Equal(t, "Unknown", d.Localize("Unknown"))
	assert.Equal(t, "", d.Localize(""))

	var f localize.Func = d.Localize
	assert.Equal(t, "Notes", f("Remarks"))

	_, err = localize.Read(strings.NewReader(`[]`))
	assert.Error(t, err)
}

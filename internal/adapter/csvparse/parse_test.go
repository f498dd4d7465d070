package csvparse

import (
	"testing"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	table, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Rows)
}

func TestParse_HeaderOnly(t *testing.T) {
	table, err := Parse("Country,State,1/22/20\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Country", "State", "1/22/20"}, table.Header)
	assert.Empty(t, table.Rows)
}

func TestParse_Rows(t *testing.T) {
	text := "Country,State,Population\nGermany,,100\nB,X,2"

	table, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "State", "Population"}, table.Header)
	assert.Equal(t, []domain.RawRow{
		{"Country": "Germany", "State": "", "Population": "100"},
		{"Country": "B", "State": "X", "Population": "2"},
	}, table.Rows)
}

func TestParse_QuotedField(t *testing.T) {
	text := "UID,Province_State,Country_Region,Combined_Key,Population\n" +
		`3601,Australian Capital Territory,Australia,"Australian Capital Territory, Australia",0`

	table, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Australian Capital Territory, Australia", table.Rows[0]["Combined_Key"])
}

func TestParse_ByteOrderMark(t *testing.T) {
	table, err := Parse("\ufeffCountry\nA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Country"}, table.Header)
}

func TestParse_FieldCountMismatch(t *testing.T) {
	_, err := Parse("Country,State\nA,B,C")
	require.ErrorIs(t, err, csvutil.ErrFieldCount)
	assert.Contains(t, err.Error(), "line 2")

	_, err = Parse("Country,State\nA,B\nC")
	require.ErrorIs(t, err, csvutil.ErrFieldCount)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParser_ImplementsParse(t *testing.T) {
	table, err := New().Parse("Country\nA")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

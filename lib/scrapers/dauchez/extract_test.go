package dauchez

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"05/03/2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"31/12/1999", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		{" 01/01/2024 ", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, test := range testCases {
		date, err := ParseDate(test.input)
		require.NoError(t, err)
		require.Equal(t, test.expected, date)
		require.Equal(t, time.UTC, date.Location())
	}

	_, err := ParseDate("2021-03-05")
	require.Error(t, err)
	_, err = ParseDate("")
	require.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
	}{
		{"1 234,56", 1234.56},
		{"0,00", 0},
		{"845,30", 845.3},
		{"-45,30", -45.3},
		// the extranet renders thousands separators as non-breaking
		// spaces
		{"12 345,67", 12345.67},
		{" 987,10 ", 987.1},
	}

	for _, test := range testCases {
		amount, err := ParseAmount(test.input)
		require.NoError(t, err)
		require.Equal(t, test.expected, amount)
	}

	_, err := ParseAmount("n/a")
	require.Error(t, err)
}

func TestFilename(t *testing.T) {
	date := time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC)

	require.Equal(t, "2021-03-05_dauchez_845.30€.pdf", Filename(date, 845.3, ""))
	require.Equal(t, "2021-03-05_dauchez_845.30€_REF42.pdf", Filename(date, 845.3, "REF42"))

	// deterministic for identical inputs
	require.Equal(t, Filename(date, 1234.56, ""), Filename(date, 1234.56, ""))
}

const listingFixture = `
<table class="table">
<tbody>
<tr><th>Date</th><th></th><th>Libellé</th><th>Débit</th><th></th><th></th></tr>
<tr>
  <td>05/03/2021</td><td>F2021-03</td><td>Loyer mars 2021</td><td>845,30</td><td></td>
  <td><span><a href="/Extranet/Compte/document/123">PDF</a></span></td>
</tr>
<tr>
  <td>05/04/2021</td><td>F2021-04</td><td>Loyer avril 2021</td><td>1 245,30</td><td></td>
  <td><span><a href="/Extranet/Compte/document/124">PDF</a></span></td>
</tr>
<tr>
  <td>12/04/2021</td><td>R2021-04</td><td>Régularisation charges</td><td>0,00</td><td></td>
  <td></td>
</tr>
<tr><td colspan="4">Total</td><td></td><td>2 090,60</td></tr>
</tbody>
</table>
`

func TestExtractBills(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingFixture))
	require.NoError(t, err)

	bills, err := ExtractBills(doc)
	require.NoError(t, err)

	expected := []Bill{
		{
			Date:    time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC),
			Title:   "Loyer mars 2021",
			Amount:  845.3,
			FileUrl: "/Extranet/Compte/document/123",
		},
		{
			Date:    time.Date(2021, 4, 5, 0, 0, 0, 0, time.UTC),
			Title:   "Loyer avril 2021",
			Amount:  1245.3,
			FileUrl: "/Extranet/Compte/document/124",
		},
		{
			Date:    time.Date(2021, 4, 12, 0, 0, 0, 0, time.UTC),
			Title:   "Régularisation charges",
			Amount:  0,
			FileUrl: "",
		},
	}
	if diff := cmp.Diff(expected, bills); diff != "" {
		t.Fatalf("extracted bills mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractBillsMalformedRow(t *testing.T) {
	fixture := `
<table><tbody>
<tr><th>Date</th></tr>
<tr><td>not a date</td><td></td><td>x</td><td>1,00</td><td></td><td></td></tr>
<tr><td>Total</td></tr>
</tbody></table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	_, err = ExtractBills(doc)
	require.Error(t, err)
}

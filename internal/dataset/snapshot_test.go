package dataset

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefault(t *testing.T) *Snapshot {
	t.Helper()
	snapshot, err := Default()
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	return snapshot
}

func TestDefaultSnapshotFirstStageIsSignups(t *testing.T) {
	snapshot := loadDefault(t)
	for _, month := range snapshot.Months() {
		for _, country := range Countries {
			stages := snapshot.Funnel(month, country)
			require.NotEmpty(t, stages, "%s/%s", month, country)
			assert.Equal(t, "signups", stages[0].Stage)
			assert.Equal(t, float64(100), stages[0].Percentage)
		}
	}
}

func TestErrorCodesScenario(t *testing.T) {
	snapshot := loadDefault(t)
	records := snapshot.ErrorCodes(Key{Month: "2025-11", Country: CountryGlobal, TxnType: TxnEC})
	require.NotEmpty(t, records)
	assert.Equal(t, ErrorCodeRecord{Code: "#", Count: 9790}, records[0])
}

func TestLoginPageURLsScenario(t *testing.T) {
	snapshot := loadDefault(t)
	records := snapshot.LoginPageURLs(Key{Month: "2025-11", Country: CountryUS}, "2_login")
	require.NotEmpty(t, records)
	assert.Equal(t, "https://www.paypal.com/mep/dashboard", records[0].PageURL)
	assert.Equal(t, int64(4361), records[0].Count)
}

func TestMissingSlicesResolveEmpty(t *testing.T) {
	snapshot := loadDefault(t)
	missing := Key{Month: "1999-01", Country: CountryGlobal, TxnType: TxnEC}

	assert.NotNil(t, snapshot.ErrorCodes(missing))
	assert.Empty(t, snapshot.ErrorCodes(missing))
	assert.Empty(t, snapshot.FailureReasons(missing))
	assert.Empty(t, snapshot.LoginPageURLs(missing, "2_login"))
	assert.Empty(t, snapshot.LoginPageURLs(Key{Month: "2025-11", Country: CountryUS}, "9_login"))
	assert.Nil(t, snapshot.Funnel("1999-01", CountryUS))

	var nilSnapshot *Snapshot
	assert.Empty(t, nilSnapshot.ErrorCodes(missing))
	assert.Empty(t, nilSnapshot.Months())
}

func TestBreakdownKeepsDocumentOrder(t *testing.T) {
	snapshot, err := Parse([]byte(`
funnels:
  "2025-01":
    global:
      - stage: login
        label: Login
        count: 10
        percentage: 100
        breakdown:
          "z_bucket": {label: Z, count: 1, percentage: 10}
          "a_bucket": {label: A, count: 2, percentage: 20, has_page_urls: true}
          "m_bucket": {label: M, count: 3, percentage: 30}
`))
	require.NoError(t, err)

	stage := snapshot.Funnel("2025-01", CountryGlobal)[0]
	assert.Equal(t, []string{"z_bucket", "a_bucket", "m_bucket"}, stage.Breakdown.Keys())

	children := stage.Children()
	require.Len(t, children, 3)
	assert.Equal(t, "a_bucket", children[1].ID)
	assert.True(t, children[1].Entry.HasPageURLs)

	encoded, err := json.Marshal(stage.Breakdown)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(encoded), "z_bucket") < strings.Index(string(encoded), "a_bucket"))
}

func TestChildrenFromSubCategory(t *testing.T) {
	stage := FunnelStage{
		Stage: "receive",
		SubCategory: []FunnelStage{
			{Stage: "ec", Label: "EC", Count: 5, HasErrorCodes: true},
			{Label: "Unnamed", Count: 2},
		},
	}

	assert.True(t, stage.Expandable())
	children := stage.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "ec", children[0].ID)
	assert.True(t, children[0].Entry.HasErrorCodes)
	assert.Equal(t, "Unnamed", children[1].ID)

	_, ok := stage.Child("missing")
	assert.False(t, ok)
}

func TestSubCategoryWinsOverBreakdown(t *testing.T) {
	stage := FunnelStage{
		Stage: "mixed",
		SubCategory: []FunnelStage{
			{Stage: "a", Count: 3},
			{Stage: "b", Count: 4},
		},
		Breakdown: NewBreakdown().Set("c", BreakdownEntry{Label: "C", Count: 9}),
	}

	children := stage.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "a", children[0].ID)
	assert.Equal(t, "b", children[1].ID)

	_, ok := stage.Child("c")
	assert.False(t, ok)
}

func TestNonExpandableStage(t *testing.T) {
	stage := FunnelStage{Stage: "signups", Breakdown: NewBreakdown()}
	assert.False(t, stage.Expandable())
	assert.Empty(t, stage.Children())
}

func TestInferTxnType(t *testing.T) {
	assert.Equal(t, TxnInvoice, InferTxnType(Child{ID: "invoice_txn_attempted_30d"}))
	assert.Equal(t, TxnInvoice, InferTxnType(Child{ID: "x", Entry: BreakdownEntry{Label: "Invoice Txn"}}))
	assert.Equal(t, TxnEC, InferTxnType(Child{ID: "ec_txn_attempted_30d"}))
	assert.Equal(t, TxnInvoice, InferTxnType(Child{ID: "ec", Entry: BreakdownEntry{TxnType: TxnInvoice}}))
}

func TestMonthsNewestFirstAndTrend(t *testing.T) {
	snapshot := loadDefault(t)
	assert.Equal(t, []string{"2025-11", "2025-10"}, snapshot.Months())
	assert.Equal(t, "2025-11", snapshot.LatestMonth())
	assert.True(t, snapshot.HasMonth("2025-10"))

	trend := snapshot.Trend(CountryUS, "signups")
	assert.Equal(t, []TrendPoint{{Month: "2025-10", Count: 61877}, {Month: "2025-11", Count: 64120}}, trend)

	// Stage absent in 2025-10/us reports zero rather than being skipped.
	trend = snapshot.Trend(CountryUS, "first_txn_success")
	require.Len(t, trend, 2)
	assert.Equal(t, int64(0), trend[0].Count)
	assert.Equal(t, int64(12981), trend[1].Count)
}

func TestParseCountryAndTxnType(t *testing.T) {
	country, err := ParseCountry(" US ")
	require.NoError(t, err)
	assert.Equal(t, CountryUS, country)

	_, err = ParseCountry("fr")
	assert.Error(t, err)

	txn, err := ParseTxnType("Invoice")
	require.NoError(t, err)
	assert.Equal(t, TxnInvoice, txn)
	assert.Equal(t, "Invoice", txn.Label())

	_, err = ParseTxnType("wire")
	assert.Error(t, err)
}

func TestKeyString(t *testing.T) {
	key := Key{Month: "2025-11", Country: CountryGlobal}
	assert.Equal(t, "2025-11/global", key.String())
	assert.Equal(t, "2025-11/global/ec", key.WithTxn(TxnEC).String())
	assert.Equal(t, TxnNone, key.TxnType)
}

func TestLoadEmptyDocument(t *testing.T) {
	snapshot, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Months())
}

func TestLoadRejectsMalformedBreakdown(t *testing.T) {
	_, err := Parse([]byte(`
funnels:
  "2025-01":
    global:
      - stage: login
        breakdown: [1, 2]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breakdown")
}

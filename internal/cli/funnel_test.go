package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/funnelscope/internal/config"
	"github.com/seuros/funnelscope/internal/dataset"
	"github.com/seuros/funnelscope/internal/navigator"
)

func testEnv(t *testing.T, country dataset.Country) *commandEnv {
	t.Helper()
	return &commandEnv{
		cfg:      &config.Config{TopN: 10, DefaultCountry: dataset.CountryGlobal},
		snapshot: defaultSnapshot(t),
		key:      dataset.Key{Month: "2025-11", Country: country},
		format:   formatJSON,
	}
}

func drillFrame(t *testing.T, env *commandEnv, f drillFlags) navigator.Frame {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, runDrill(&out, env, f))
	var frame navigator.Frame
	require.NoError(t, json.Unmarshal(out.Bytes(), &frame))
	return frame
}

func TestResolveKey(t *testing.T) {
	snapshot := defaultSnapshot(t)
	cfg := &config.Config{DefaultCountry: dataset.CountryUS}

	key, err := resolveKey(snapshot, cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, dataset.Key{Month: "2025-11", Country: dataset.CountryUS}, key)

	cfg.DefaultMonth = "2025-10"
	key, err = resolveKey(snapshot, cfg, "", "Global")
	require.NoError(t, err)
	assert.Equal(t, dataset.Key{Month: "2025-10", Country: dataset.CountryGlobal}, key)

	cfg.DefaultMonth = "2019-01"
	key, err = resolveKey(snapshot, cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-11", key.Month)

	key, err = resolveKey(snapshot, cfg, "2030-01", "")
	require.NoError(t, err)
	assert.Equal(t, "2030-01", key.Month, "explicit months are kept even when absent")

	_, err = resolveKey(snapshot, cfg, "", "mars")
	assert.Error(t, err)
}

func TestRunDrillToFailureReasons(t *testing.T) {
	frame := drillFrame(t, testEnv(t, dataset.CountryGlobal), drillFlags{
		stage: "receive_txn_30d",
		entry: "invoice_txn_attempted_30d",
		code:  "CANNOT_PAY_SELF",
	})

	assert.Equal(t, navigator.KindFailureReasons, frame.View)
	assert.Equal(t, dataset.TxnInvoice, frame.Key.TxnType)
	require.NotNil(t, frame.FailureReasons)
	assert.Equal(t, "Invoice", frame.FailureReasons.TxnLabel)
	assert.Len(t, frame.Path, 4)
}

func TestRunDrillBack(t *testing.T) {
	frame := drillFrame(t, testEnv(t, dataset.CountryGlobal), drillFlags{
		stage: "receive_txn_30d",
		entry: "ec_txn_attempted_30d",
		back:  1,
	})
	assert.Equal(t, navigator.KindStageBreakdown, frame.View)

	frame = drillFrame(t, testEnv(t, dataset.CountryGlobal), drillFlags{stage: "login_30d", back: 5})
	assert.Equal(t, navigator.KindRoot, frame.View)
}

func TestRunDrillLoginBucket(t *testing.T) {
	frame := drillFrame(t, testEnv(t, dataset.CountryUS), drillFlags{stage: "login_30d", entry: "2_login"})
	assert.Equal(t, navigator.KindLoginPageURLList, frame.View)
	require.NotNil(t, frame.PageURLs)
	assert.Len(t, frame.PageURLs.Summary.All, 5)
}

func TestRunDrillTrend(t *testing.T) {
	frame := drillFrame(t, testEnv(t, dataset.CountryUS), drillFlags{trend: "signups"})
	assert.Equal(t, navigator.KindTrend, frame.View)
	require.NotNil(t, frame.Trend)
	require.Len(t, frame.Trend.Points, 2)
	assert.Equal(t, "2025-10", frame.Trend.Points[0].Month)
}

func TestRunDrillRejectsInertClicks(t *testing.T) {
	tests := []struct {
		name  string
		flags drillFlags
		err   string
	}{
		{"inert stage", drillFlags{stage: "signups"}, `stage "signups" has no breakdown`},
		{"unknown stage", drillFlags{stage: "nope"}, `stage "nope" has no breakdown`},
		{"inert entry", drillFlags{stage: "receive_txn_30d", entry: "no_txn_attempted_30d"}, "has no drill-down"},
		{"entry without stage", drillFlags{entry: "2_login"}, "--entry requires --stage"},
		{"code without entry", drillFlags{stage: "receive_txn_30d", code: "X"}, "--code requires --entry"},
		{"trend with stage", drillFlags{trend: "signups", stage: "login_30d"}, "--trend cannot be combined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runDrill(&bytes.Buffer{}, testEnv(t, dataset.CountryGlobal), tt.flags)
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestWriteMonths(t *testing.T) {
	snapshot := defaultSnapshot(t)

	var out bytes.Buffer
	require.NoError(t, writeMonths(&out, snapshot, formatJSON))
	var months []string
	require.NoError(t, json.Unmarshal(out.Bytes(), &months))
	assert.Equal(t, []string{"2025-11", "2025-10"}, months)

	out.Reset()
	require.NoError(t, writeMonths(&out, snapshot, formatCSV))
	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"MONTH", "SIGNUPS_global", "SIGNUPS_us"}, records[0])
	assert.Equal(t, "2025-11", records[1][0])
	assert.Equal(t, "182450", records[1][1])
}

func TestStageCountEmpty(t *testing.T) {
	assert.Zero(t, stageCount(nil))
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const request = `{
	"task_id": "usd",
	"anchor": "2024-01-15",
	"deposits": [{"tenor": "3M", "rate": 0.05, "day_count": "ACT/360"}],
	"swaps": [{"tenor": "1Y", "rate": 0.048}, {"tenor": "2Y", "rate": 0.046}, {"tenor": "5Y", "rate": 0.044}],
	"fixed_leg": {"frequency": "ANNUAL", "day_count": "30E/360", "calendar": "WEEKEND", "convention": "MF"},
	"query_times": [0.5, 1, 3],
	"query_dates": ["2029-01-15"],
	"trades": [
		{"swap_tenor": "2Y", "fixed_rate": 0.046, "notional": 1000000},
		{"forward_tenor": "1Y", "swap_tenor": "1Y", "fixed_rate": 0.05, "notional": 1000000, "direction": "REC"}
	]
}`

func TestRun(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(request), &stdout, &stderr)
	require.Equal(t, 0, code, stdout.String())

	var out curveOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "usd", out.TaskID)
	assert.Equal(t, "LOG_LINEAR_DF", out.Scheme)
	assert.Len(t, out.Nodes, 4)
	require.Len(t, out.Points, 4)

	for i, p := range out.Points {
		assert.Greater(t, p.DF, 0.0)
		assert.Less(t, p.DF, 1.0)
		if i > 0 {
			assert.Less(t, p.DF, out.Points[i-1].DF)
		}
	}
	// first forward is measured from the anchor
	assert.InDelta(t, out.Points[0].Zero, out.Points[0].Forward, 1e-12)

	require.Len(t, out.Trades, 2)
	assert.InDelta(t, 0.046, out.Trades[0].ParRate, 1e-10)
	assert.InDelta(t, 0, out.Trades[0].NPV, 1e-4)
	assert.Greater(t, out.Trades[0].PV01, 0.0)

	fwd := out.Trades[1]
	assert.Equal(t, "2025-01-15", fwd.EffectiveDate)
	assert.Less(t, fwd.ParRate, 0.05)
	assert.Greater(t, fwd.NPV, 0.0)
}

func TestRunReportsBadQuotes(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(`[{"task_id": "x", "swaps": [{"tenor": "1Y", "rate": 0.05}]}]`), &stdout, &stderr)
	assert.Equal(t, 1, code)

	var outs []curveOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &outs))
	require.Len(t, outs, 1)
	assert.Contains(t, outs[0].Error, "anchor")
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleRequest = `{
	"task_id": "aapl",
	"issue_date": "2012-05-13",
	"maturity_date": "2022-05-13",
	"settlement_date": "2017-07-21",
	"coupon": 0.027,
	"frequency": "SEMI_ANNUAL",
	"day_count": "30E/360-ISDA",
	"face": 100,
	"currency": "USD",
	"convention": "US_TREASURY",
	"clean_price": 101.581564,
	"ror": {"sell_date": "2018-07-20", "sell_ytm": 0.025}
}`

func TestRunSingleBond(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(appleRequest), &stdout, &stderr)
	require.Equal(t, 0, code, stdout.String())

	var out bondOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "aapl", out.TaskID)
	assert.Equal(t, "US_TREASURY", out.Convention)
	assert.InDelta(t, 0.0235, out.YTM, 5e-5)
	assert.Equal(t, "USD 0.51", out.AccruedInterest)
	assert.Equal(t, 68, out.AccruedDays)
	assert.InDelta(t, 101.581564, out.CleanPrice, 1e-12)
	require.NotNil(t, out.ROR)
	assert.NotZero(t, out.ROR.IRR)
}

func TestRunBatchWithFailure(t *testing.T) {
	t.Parallel()
	zero := `{
		"issue_date": "2022-07-25",
		"maturity_date": "2022-10-24",
		"settlement_date": "2022-08-08",
		"issue_price": 99.641,
		"face": 1000000,
		"clean_price": 99.6504,
		"key_rates": true
	}`
	bad := `{"issue_date": "2012-05-13", "maturity_date": "2022-05-13", "settlement_date": "2017-07-21",
		"coupon": 0.027, "frequency": "SEMI_ANNUAL", "day_count": "30E/360-ISDA"}`
	in := "[" + appleRequest + "," + zero + "," + bad + "]"

	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(in), &stdout, &stderr)
	assert.Equal(t, 1, code)

	var outs []bondOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &outs))
	require.Len(t, outs, 3)
	assert.Empty(t, outs[0].Error)

	assert.Empty(t, outs[1].Error)
	assert.Equal(t, "ZERO", outs[1].Convention)
	assert.InDelta(t, 0.013997, outs[1].YTM, 2e-6)
	assert.NotEmpty(t, outs[1].TaskID)
	assert.Greater(t, outs[1].Convexity, 0.0)
	require.Len(t, outs[1].KeyRates, 13)
	// the bill matures before the first 3M node
	assert.InDelta(t, outs[1].ModifiedDuration, outs[1].KeyRates[0].Duration, 5e-3)
	assert.Zero(t, outs[1].KeyRates[1].Duration)

	assert.Contains(t, outs[2].Error, "clean_price")
}

func TestRunRejectsBadJSON(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	code := run(nil, strings.NewReader(`{"frequency": "FORTNIGHTLY"}`), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "parse JSON")
}

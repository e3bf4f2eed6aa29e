package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/internal/cli"
	"github.com/meenmo/fixedincome/internal/marketdata"
)

type curveInput struct {
	TaskID string `json:"task_id,omitempty"`
	marketdata.CurveQuotes
	// QueryTimes are years from the anchor; QueryDates are converted on ACT/365F.
	QueryTimes []float64    `json:"query_times"`
	QueryDates []date.Date  `json:"query_dates"`
	Trades     []tradeInput `json:"trades"`
}

// tradeInput is a swap on the fixed leg conventions of the curve quotes,
// starting ForwardTenor after the anchor.
type tradeInput struct {
	ForwardTenor string  `json:"forward_tenor"`
	SwapTenor    string  `json:"swap_tenor"`
	FixedRate    float64 `json:"fixed_rate"`
	Notional     float64 `json:"notional"`
	// Direction is PAY (pay fixed) or REC.
	Direction string `json:"direction"`
}

type tradeOutput struct {
	EffectiveDate string  `json:"effective_date"`
	MaturityDate  string  `json:"maturity_date"`
	ParRate       float64 `json:"par_rate"`
	NPV           float64 `json:"npv"`
	PV01          float64 `json:"pv01"`
}

type nodeOutput struct {
	Time float64 `json:"time"`
	DF   float64 `json:"df"`
}

type pointOutput struct {
	Time float64 `json:"time"`
	DF   float64 `json:"df"`
	Zero float64 `json:"zero_rate"`
	// Forward is the continuously compounded rate from the previous query point.
	Forward float64 `json:"forward_rate"`
}

type curveOutput struct {
	TaskID string        `json:"task_id"`
	Anchor string        `json:"anchor,omitempty"`
	Scheme string        `json:"scheme,omitempty"`
	Nodes  []nodeOutput  `json:"nodes,omitempty"`
	Points []pointOutput `json:"points,omitempty"`
	Trades []tradeOutput `json:"trades,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ratecurve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (reads stdin if omitted)")
	configPath := fs.String("config", "", "YAML config path")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" && cli.IsTerminal(stdin) {
		usage(stderr)
		return 2
	}

	cfg, log, err := cli.Setup(*configPath)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("config: %v", err))
	}
	defer log.Sync() //nolint:errcheck

	raw, err := cli.ReadInput(stdin, path)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("read input: %v", err))
	}
	inputs, isArray, err := cli.ParseInputs[curveInput](raw)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]curveOutput, 0, len(inputs))
	for _, in := range inputs {
		in.TaskID = cli.TaskID(in.TaskID)
		out, err := process(in, cfg, log)
		if err != nil {
			hadError = true
			log.Warn("curve build failed", zap.String("task_id", in.TaskID), zap.Error(err))
			outputs = append(outputs, curveOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}
	cli.WriteOutputs(stdout, outputs, isArray)

	if hadError {
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ratecurve [-config cfg.yaml] -input <path>")
	fmt.Fprintln(w, "Bootstrap a discount curve from deposits and par swaps and report")
	fmt.Fprintln(w, "discount factors, zero rates and forward rates at the query points, and")
	fmt.Fprintln(w, "the par rate, NPV and PV01 of any spot or forward starting trades.")
}

func process(in curveInput, cfg *config.Config, log *zap.Logger) (*curveOutput, error) {
	opts, err := cfg.CurveOptions()
	if err != nil {
		return nil, err
	}
	c, err := in.Build(opts...)
	if err != nil {
		return nil, err
	}
	log.Info("curve built",
		zap.String("task_id", in.TaskID),
		zap.Stringer("anchor", c.Anchor()),
		zap.Stringer("scheme", c.Scheme()),
		zap.Int("nodes", len(c.Times())),
	)

	out := &curveOutput{TaskID: in.TaskID, Anchor: c.Anchor().String(), Scheme: c.Scheme().String()}
	dfs := c.DFs()
	for i, t := range c.Times() {
		out.Nodes = append(out.Nodes, nodeOutput{Time: t, DF: dfs[i]})
	}

	times := append([]float64(nil), in.QueryTimes...)
	for _, d := range in.QueryDates {
		times = append(times, c.TimeOf(d))
	}
	prev := 0.0
	for _, t := range times {
		if t <= 0 {
			return nil, fmt.Errorf("query time %g must be after the anchor", t)
		}
		p := pointOutput{Time: t, DF: c.DF(t), Zero: c.ZeroRate(t)}
		from := prev
		if t <= prev {
			from = 0
		}
		if p.Forward, err = c.ForwardRate(from, t); err != nil {
			return nil, err
		}
		out.Points = append(out.Points, p)
		prev = t
	}

	conv, err := in.SwapConvention()
	if err != nil {
		return nil, err
	}
	for _, tr := range in.Trades {
		res, err := priceTrade(tr, in.Anchor, conv, c)
		if err != nil {
			return nil, err
		}
		out.Trades = append(out.Trades, res)
	}
	return out, nil
}

func priceTrade(tr tradeInput, anchor date.Date, conv curve.SwapConvention, c *curve.Curve) (tradeOutput, error) {
	start := anchor
	if tr.ForwardTenor != "" {
		d, err := anchor.AddTenor(tr.ForwardTenor)
		if err != nil {
			return tradeOutput{}, fmt.Errorf("trade forward_tenor: %w", err)
		}
		start = calendar.Adjust(conv.Calendar, d, conv.Convention)
	}
	s, err := curve.ParSwap(start, tr.SwapTenor, tr.FixedRate, conv)
	if err != nil {
		return tradeOutput{}, fmt.Errorf("trade: %w", err)
	}
	s.Notional = tr.Notional
	switch strings.ToUpper(strings.TrimSpace(tr.Direction)) {
	case "", "PAY":
		s.Direction = curve.Pay
	case "REC", "RECEIVE":
		s.Direction = curve.Receive
	default:
		return tradeOutput{}, fmt.Errorf("trade: unknown direction %q", tr.Direction)
	}

	par, err := s.ParRate(c)
	if err != nil {
		return tradeOutput{}, err
	}
	npv, err := s.Value(c)
	if err != nil {
		return tradeOutput{}, err
	}
	pv01, err := s.PV01(c)
	if err != nil {
		return tradeOutput{}, err
	}
	end, err := s.End()
	if err != nil {
		return tradeOutput{}, err
	}
	return tradeOutput{
		EffectiveDate: s.Start.String(),
		MaturityDate:  end.String(),
		ParRate:       par,
		NPV:           npv,
		PV01:          pv01,
	}, nil
}

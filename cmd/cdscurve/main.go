package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/credit"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/internal/cli"
	"github.com/meenmo/fixedincome/internal/marketdata"
)

// spreadTenors are the CSV columns after the ticker, in months.
var spreadTenors = []int{36, 60, 84, 120}

type curveRequest struct {
	// Valuation defaults to the discount curve anchor.
	Valuation date.Date              `json:"valuation_date"`
	Discount  marketdata.CurveQuotes `json:"discount"`
}

type spreadRow struct {
	Ticker   string
	Spreads  []float64 // decimals
	Recovery float64
}

type nodeOutput struct {
	Maturity    string  `json:"maturity"`
	Time        float64 `json:"time"`
	Survival    float64 `json:"survival"`
	HazardRate  float64 `json:"hazard_rate"`
	ParSpreadBP float64 `json:"par_spread_bp"`
}

type issuerOutput struct {
	Ticker   string       `json:"ticker"`
	Recovery float64      `json:"recovery"`
	Nodes    []nodeOutput `json:"nodes,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cdscurve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON discount curve path (reads stdin if omitted)")
	spreadsPath := fs.String("spreads", "", "CSV of ticker,3Y,5Y,7Y,10Y,recovery (spreads in bp)")
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
	if strings.TrimSpace(*spreadsPath) == "" {
		usage(stderr)
		return 2
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
	var req curveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("parse JSON: %v", err))
	}

	f, err := os.Open(*spreadsPath)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("read spreads: %v", err))
	}
	defer f.Close()
	rows, err := readSpreads(f)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("parse spreads: %v", err))
	}

	outputs, err := buildCurves(context.Background(), req, rows, cfg, log)
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	cli.WriteOutputs(stdout, outputs, true)

	for _, out := range outputs {
		if out.Error != "" {
			return 1
		}
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: cdscurve [-config cfg.yaml] -spreads spreads.csv -input discount.json")
	fmt.Fprintln(w, "Bootstrap one survival curve per issuer row from 3Y/5Y/7Y/10Y CDS spreads")
	fmt.Fprintln(w, "against a shared discount curve.")
}

// readSpreads parses the issuer CSV. A header row is skipped.
func readSpreads(r io.Reader) ([]spreadRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(spreadTenors) + 2
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	var rows []spreadRow
	for i, rec := range records {
		if i == 0 {
			if _, err := strconv.ParseFloat(rec[1], 64); err != nil {
				continue
			}
		}
		row := spreadRow{Ticker: strings.TrimSpace(rec[0])}
		for _, field := range rec[1 : len(rec)-1] {
			bp, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			row.Spreads = append(row.Spreads, bp/10000.0)
		}
		recovery, err := strconv.ParseFloat(strings.TrimSpace(rec[len(rec)-1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: recovery: %w", i+1, err)
		}
		row.Recovery = recovery
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.New("no issuer rows")
	}
	return rows, nil
}

// buildCurves bootstraps the discount curve once and then the issuer curves
// concurrently. An issuer that fails to calibrate reports its error in place.
func buildCurves(ctx context.Context, req curveRequest, rows []spreadRow, cfg *config.Config, log *zap.Logger) ([]issuerOutput, error) {
	opts, err := cfg.CurveOptions()
	if err != nil {
		return nil, err
	}
	discount, err := req.Discount.Build(append(opts, curve.WithLogger(log))...)
	if err != nil {
		return nil, fmt.Errorf("discount curve: %w", err)
	}
	valuation := req.Valuation
	if valuation.IsZero() {
		valuation = discount.Anchor()
	}

	outputs := make([]issuerOutput, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Workers)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := buildIssuer(valuation, row, discount, cfg, log)
			if err != nil {
				log.Warn("issuer curve failed", zap.String("ticker", row.Ticker), zap.Error(err))
				out = issuerOutput{Ticker: row.Ticker, Recovery: row.Recovery, Error: err.Error()}
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func buildIssuer(valuation date.Date, row spreadRow, discount *curve.Curve, cfg *config.Config, log *zap.Logger) (issuerOutput, error) {
	contracts := make([]credit.CDS, len(spreadTenors))
	for j, months := range spreadTenors {
		contracts[j] = credit.Standard(valuation, valuation.NextCDSDate(months), row.Spreads[j])
	}
	cv, err := credit.Bootstrap(valuation, contracts, discount, row.Recovery,
		credit.WithSolverConfig(cfg.SolverConfig().WithTolerance(cfg.Curve.Tolerance)),
		credit.WithLogger(log.With(zap.String("ticker", row.Ticker))),
	)
	if err != nil {
		return issuerOutput{}, err
	}

	out := issuerOutput{Ticker: row.Ticker, Recovery: row.Recovery}
	for _, c := range contracts {
		par, err := c.ParSpread(cv)
		if err != nil {
			return issuerOutput{}, err
		}
		t := cv.TimeOf(c.Maturity)
		out.Nodes = append(out.Nodes, nodeOutput{
			Maturity:    c.Maturity.String(),
			Time:        t,
			Survival:    cv.SurvivalProbability(t),
			HazardRate:  cv.HazardRate(t),
			ParSpreadBP: par * 10000,
		})
	}
	return out, nil
}

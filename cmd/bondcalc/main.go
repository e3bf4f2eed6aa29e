package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/fixedincome/amount"
	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/internal/cli"
	"github.com/meenmo/fixedincome/schedule"
)

// bondInput is one pricing request. Rates are decimals (0.027 = 2.7%),
// prices are per 100 par. Exactly one of clean_price and ytm is required.
type bondInput struct {
	TaskID     string              `json:"task_id,omitempty"`
	Issue      date.Date           `json:"issue_date"`
	Maturity   date.Date           `json:"maturity_date"`
	Settlement date.Date           `json:"settlement_date"`
	Coupon     float64             `json:"coupon"`
	Frequency  schedule.Frequency  `json:"frequency"`
	DayCount   daycount.Convention `json:"day_count"`
	Face       float64             `json:"face"`
	ExDivDays  int                 `json:"ex_div_days"`
	Currency   string              `json:"currency"`
	// IssuePrice marks a zero coupon bond when positive.
	IssuePrice float64          `json:"issue_price"`
	Convention bond.YTMCalcType `json:"convention"`
	CleanPrice *float64         `json:"clean_price,omitempty"`
	YTM        *float64         `json:"ytm,omitempty"`
	KeyRates   bool             `json:"key_rates"`
	Futures    *futuresInput    `json:"futures,omitempty"`
	ROR        *rorInput        `json:"ror,omitempty"`
}

type futuresInput struct {
	Delivery         date.Date `json:"delivery_date"`
	Price            float64   `json:"futures_price"`
	ConversionFactor float64   `json:"conversion_factor"`
}

type rorInput struct {
	Sell      date.Date `json:"sell_date"`
	SellYield float64   `json:"sell_ytm"`
}

type keyRateOutput struct {
	Tenor    float64 `json:"tenor"`
	Duration float64 `json:"duration"`
}

type futuresOutput struct {
	ForwardYield    float64 `json:"forward_yield"`
	InvoicePrice    float64 `json:"invoice_price"`
	AccruedInterest float64 `json:"accrued_interest"`
}

type rorOutput struct {
	Simple float64 `json:"simple"`
	IRR    float64 `json:"irr"`
	PnL    float64 `json:"pnl"`
}

type bondOutput struct {
	TaskID           string          `json:"task_id"`
	SettlementDate   string          `json:"settlement_date,omitempty"`
	Convention       string          `json:"convention,omitempty"`
	YTM              float64         `json:"ytm"`
	CleanPrice       float64         `json:"clean_price"`
	FullPrice        float64         `json:"full_price"`
	AccruedInterest  string          `json:"accrued_interest,omitempty"`
	AccruedDays      int             `json:"accrued_days"`
	CurrentYield     float64         `json:"current_yield,omitempty"`
	DollarDuration   float64         `json:"dollar_duration,omitempty"`
	ModifiedDuration float64         `json:"modified_duration"`
	MacauleyDuration float64         `json:"macauley_duration,omitempty"`
	Convexity        float64         `json:"convexity,omitempty"`
	KeyRates         []keyRateOutput `json:"key_rates,omitempty"`
	Futures          *futuresOutput  `json:"futures,omitempty"`
	ROR              *rorOutput      `json:"ror,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bondcalc", flag.ContinueOnError)
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
	inputs, isArray, err := cli.ParseInputs[bondInput](raw)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("parse JSON: %v", err))
	}

	hadError := false
	outputs := make([]bondOutput, 0, len(inputs))
	for _, in := range inputs {
		in.TaskID = cli.TaskID(in.TaskID)
		out, err := process(in, cfg)
		if err != nil {
			hadError = true
			log.Warn("bond request failed", zap.String("task_id", in.TaskID), zap.Error(err))
			outputs = append(outputs, bondOutput{TaskID: in.TaskID, Error: err.Error()})
			continue
		}
		log.Debug("bond priced", zap.String("task_id", in.TaskID), zap.Float64("ytm", out.YTM))
		outputs = append(outputs, *out)
	}
	cli.WriteOutputs(stdout, outputs, isArray)

	if hadError {
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bondcalc [-config cfg.yaml] -input <path>")
	fmt.Fprintln(w, "Price/yield, accrued interest, durations, convexity, key-rate durations,")
	fmt.Fprintln(w, "futures forward yield and rate of return for fixed and zero coupon bonds.")
}

func process(in bondInput, cfg *config.Config) (*bondOutput, error) {
	if (in.CleanPrice == nil) == (in.YTM == nil) {
		return nil, fmt.Errorf("exactly one of clean_price and ytm is required")
	}
	ccy, err := amount.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if in.IssuePrice > 0 {
		return processZero(in, cfg, ccy)
	}

	conv := in.Convention
	if conv == 0 {
		conv = bond.UKDMO
	}
	b, err := bond.New(in.Issue, in.Maturity, in.Coupon, in.Frequency, in.DayCount, in.Face)
	if err != nil {
		return nil, err
	}
	b.ExDivDays = in.ExDivDays

	out := &bondOutput{TaskID: in.TaskID, SettlementDate: in.Settlement.String(), Convention: conv.String()}
	if in.YTM != nil {
		out.YTM = *in.YTM
		if out.CleanPrice, err = b.CleanPriceFromYTM(in.Settlement, out.YTM, conv); err != nil {
			return nil, err
		}
	} else {
		out.CleanPrice = *in.CleanPrice
		if out.YTM, err = b.YieldToMaturity(in.Settlement, out.CleanPrice, conv); err != nil {
			return nil, err
		}
	}
	if out.FullPrice, err = b.FullPriceFromYTM(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	ai, err := b.CalcAccruedInterest(in.Settlement)
	if err != nil {
		return nil, err
	}
	out.AccruedInterest = amount.New(ai.Amount, ccy).String()
	out.AccruedDays = ai.Days
	out.CurrentYield = b.CurrentYield(out.CleanPrice)

	if out.DollarDuration, err = b.DollarDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.ModifiedDuration, err = b.ModifiedDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.MacauleyDuration, err = b.MacauleyDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.Convexity, err = b.ConvexityFromYTM(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}

	if in.KeyRates {
		if out.KeyRates, err = keyRates(b, in, out.YTM, conv, cfg); err != nil {
			return nil, err
		}
	}
	if in.Futures != nil {
		res, err := b.ForwardYield(in.Futures.Delivery, in.Futures.Price, in.Futures.ConversionFactor, conv)
		if err != nil {
			return nil, err
		}
		out.Futures = &futuresOutput{ForwardYield: res.ForwardYield, InvoicePrice: res.InvoicePrice, AccruedInterest: res.AccruedInterest}
	}
	if in.ROR != nil {
		res, err := b.CalcROR(in.Settlement, in.ROR.Sell, out.YTM, in.ROR.SellYield, conv)
		if err != nil {
			return nil, err
		}
		out.ROR = &rorOutput{Simple: res.Simple, IRR: res.IRR, PnL: res.PnL}
	}
	return out, nil
}

type keyRater interface {
	KeyRateDurations(settle date.Date, ytm float64, opts bond.KeyRateOptions) (bond.KeyRates, error)
}

func keyRates(kr keyRater, in bondInput, ytm float64, conv bond.YTMCalcType, cfg *config.Config) ([]keyRateOutput, error) {
	opts, err := cfg.KeyRateOptions()
	if err != nil {
		return nil, err
	}
	opts.Conv = conv
	krd, err := kr.KeyRateDurations(in.Settlement, ytm, opts)
	if err != nil {
		return nil, err
	}
	out := make([]keyRateOutput, len(krd.Tenors))
	for i, tenor := range krd.Tenors {
		out[i] = keyRateOutput{Tenor: tenor, Duration: krd.Durations[i]}
	}
	return out, nil
}

func processZero(in bondInput, cfg *config.Config, ccy amount.Currency) (*bondOutput, error) {
	z := &bond.ZeroBond{IssueDate: in.Issue, MaturityDate: in.Maturity, IssuePrice: in.IssuePrice, Face: in.Face}
	conv := bond.Zero
	out := &bondOutput{TaskID: in.TaskID, SettlementDate: in.Settlement.String(), Convention: conv.String()}

	var err error
	if in.YTM != nil {
		out.YTM = *in.YTM
		if out.CleanPrice, err = z.CleanPriceFromYTM(in.Settlement, out.YTM, conv); err != nil {
			return nil, err
		}
	} else {
		out.CleanPrice = *in.CleanPrice
		if out.YTM, err = z.YieldToMaturity(in.Settlement, out.CleanPrice, conv); err != nil {
			return nil, err
		}
	}
	if out.FullPrice, err = z.FullPriceFromYTM(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	ai, err := z.CalcAccruedInterest(in.Settlement)
	if err != nil {
		return nil, err
	}
	out.AccruedInterest = amount.New(ai.Amount, ccy).String()
	out.AccruedDays = ai.Days
	if out.DollarDuration, err = z.DollarDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.ModifiedDuration, err = z.ModifiedDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.MacauleyDuration, err = z.MacauleyDuration(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if out.Convexity, err = z.ConvexityFromYTM(in.Settlement, out.YTM, conv); err != nil {
		return nil, err
	}
	if in.KeyRates {
		if out.KeyRates, err = keyRates(z, in, out.YTM, conv, cfg); err != nil {
			return nil, err
		}
	}
	if in.ROR != nil {
		res, err := z.CalcROR(in.Settlement, in.ROR.Sell, out.YTM, in.ROR.SellYield, conv)
		if err != nil {
			return nil, err
		}
		out.ROR = &rorOutput{Simple: res.Simple, IRR: res.IRR, PnL: res.PnL}
	}
	return out, nil
}

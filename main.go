package main

import (
	"fmt"

	"github.com/meenmo/fixedincome/amount"
	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/logger"
	"github.com/meenmo/fixedincome/schedule"
)

func main() {
	log := logger.Get()
	defer logger.Sync()

	settle := date.MustNew(21, 7, 2017)
	conv := curve.SwapConvention{
		Frequency:  schedule.SemiAnnual,
		DayCount:   daycount.ThirtyE360ISDA,
		Calendar:   calendar.USD,
		Convention: calendar.ModifiedFollowing,
	}
	quotes := map[string]float64{
		"1Y": 0.0142, "2Y": 0.0160, "3Y": 0.0172, "5Y": 0.0192,
		"7Y": 0.0207, "10Y": 0.0224, "20Y": 0.0247, "30Y": 0.0253,
	}
	var swaps []curve.Swap
	for _, tenor := range []string{"1Y", "2Y", "3Y", "5Y", "7Y", "10Y", "20Y", "30Y"} {
		s, err := curve.ParSwap(settle, tenor, quotes[tenor], conv)
		if err != nil {
			panic(err)
		}
		swaps = append(swaps, s)
	}
	deposits := []curve.Deposit{{Start: settle, Maturity: settle.AddMonths(3), Rate: 0.0130, DayCount: daycount.Act360}}

	usd, err := curve.Bootstrap(settle, deposits, swaps, curve.WithLogger(log))
	if err != nil {
		panic(err)
	}

	ust, err := bond.New(date.MustNew(15, 5, 2010), date.MustNew(15, 5, 2027), 0.02375,
		schedule.SemiAnnual, daycount.ActActICMA, 1_000_000)
	if err != nil {
		panic(err)
	}
	clean := 99.7808417
	ytm, err := ust.YieldToMaturity(settle, clean, bond.USTreasury)
	if err != nil {
		panic(err)
	}
	md, _ := ust.ModifiedDuration(settle, ytm, bond.UKDMO)
	ai, _ := ust.CalcAccruedInterest(settle)
	z, _ := ust.ZSpread(settle, clean, usd)

	fmt.Printf("YTM: %.6f\n", ytm)
	fmt.Printf("Modified duration: %.4f\n", md)
	fmt.Printf("Accrued: %s\n", amount.New(ai.Amount, amount.USD))
	fmt.Printf("Z-spread: %.2fbp\n", z*10000)
}

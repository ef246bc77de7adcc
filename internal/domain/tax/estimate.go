package tax

import "github.com/shopspring/decimal"

// UK income tax parameters for the 2025/26 year. Dividend and savings income
// sit on top of other income when working out which band they fall into.
var (
	personalAllowance  = decimal.NewFromInt(12570)
	allowanceTaperFrom = decimal.NewFromInt(100000)

	basicRateBand       = decimal.NewFromInt(37700)
	higherRateThreshold = decimal.NewFromInt(125140)

	basicRate      = decimal.NewFromFloat(0.20)
	higherRate     = decimal.NewFromFloat(0.40)
	additionalRate = decimal.NewFromFloat(0.45)

	dividendAllowance      = decimal.NewFromInt(500)
	dividendBasicRate      = decimal.NewFromFloat(0.0875)
	dividendHigherRate     = decimal.NewFromFloat(0.3375)
	dividendAdditionalRate = decimal.NewFromFloat(0.3935)

	savingsAllowanceBasic  = decimal.NewFromInt(1000)
	savingsAllowanceHigher = decimal.NewFromInt(500)

	two = decimal.NewFromInt(2)
)

// Input is a user's aggregated annual income by kind, in pounds.
type Input struct {
	Dividends float64 `json:"dividends"`
	Interest  float64 `json:"interest"`
	Rental    float64 `json:"rental"`
	Freelance float64 `json:"freelance"`
	Other     float64 `json:"other"`
}

// Estimate is the computed liability breakdown, in pounds.
type Estimate struct {
	TotalIncome       float64 `json:"totalIncome"`
	PersonalAllowance float64 `json:"personalAllowance"`
	TaxableIncome     float64 `json:"taxableIncome"`
	IncomeTax         float64 `json:"incomeTax"`
	DividendTax       float64 `json:"dividendTax"`
	SavingsTax        float64 `json:"savingsTax"`
	TotalTax          float64 `json:"totalTax"`
	EffectiveRate     float64 `json:"effectiveRate"`
}

// Calculate produces a UK tax estimate for one year's passive income. It
// covers income tax with the tapered personal allowance, dividend tax above
// the dividend allowance, and savings interest above the personal savings
// allowance. National Insurance is not modelled.
func Calculate(input Input) Estimate {
	dividends := decimal.NewFromFloat(input.Dividends)
	interest := decimal.NewFromFloat(input.Interest)
	general := decimal.NewFromFloat(input.Rental).
		Add(decimal.NewFromFloat(input.Freelance)).
		Add(decimal.NewFromFloat(input.Other))

	total := general.Add(dividends).Add(interest)
	allowance := taperedAllowance(total)

	// General income uses the allowance first; dividend and savings income
	// stack on top of it for band purposes.
	taxableGeneral := decimal.Max(general.Sub(allowance), decimal.Zero)
	remainingAllowance := decimal.Max(allowance.Sub(general), decimal.Zero)

	incomeTax := bandTax(taxableGeneral, decimal.Zero, basicRate, higherRate, additionalRate)

	taxableInterest := decimal.Max(interest.Sub(remainingAllowance), decimal.Zero)
	remainingAllowance = decimal.Max(remainingAllowance.Sub(interest), decimal.Zero)
	taxableInterest = decimal.Max(taxableInterest.Sub(savingsAllowance(total)), decimal.Zero)
	savingsTax := bandTax(taxableInterest, taxableGeneral, basicRate, higherRate, additionalRate)

	taxableDividends := decimal.Max(dividends.Sub(remainingAllowance), decimal.Zero)
	taxableDividends = decimal.Max(taxableDividends.Sub(dividendAllowance), decimal.Zero)
	dividendTax := bandTax(taxableDividends, taxableGeneral.Add(taxableInterest), dividendBasicRate, dividendHigherRate, dividendAdditionalRate)

	totalTax := incomeTax.Add(savingsTax).Add(dividendTax)

	effectiveRate := decimal.Zero
	if total.IsPositive() {
		effectiveRate = totalTax.Div(total)
	}

	taxable := decimal.Max(total.Sub(allowance), decimal.Zero)
	return Estimate{
		TotalIncome:       round2(total),
		PersonalAllowance: round2(allowance),
		TaxableIncome:     round2(taxable),
		IncomeTax:         round2(incomeTax),
		DividendTax:       round2(dividendTax),
		SavingsTax:        round2(savingsTax),
		TotalTax:          round2(totalTax),
		EffectiveRate:     round4(effectiveRate),
	}
}

// taperedAllowance reduces the personal allowance by one pound for every two
// pounds of income over the taper threshold.
func taperedAllowance(total decimal.Decimal) decimal.Decimal {
	if total.LessThanOrEqual(allowanceTaperFrom) {
		return personalAllowance
	}
	reduction := total.Sub(allowanceTaperFrom).Div(two)
	return decimal.Max(personalAllowance.Sub(reduction), decimal.Zero)
}

// savingsAllowance is the personal savings allowance for the band the user's
// total income lands in: full for basic rate, halved for higher rate, nothing
// for additional rate.
func savingsAllowance(total decimal.Decimal) decimal.Decimal {
	switch {
	case total.GreaterThan(higherRateThreshold):
		return decimal.Zero
	case total.GreaterThan(personalAllowance.Add(basicRateBand)):
		return savingsAllowanceHigher
	default:
		return savingsAllowanceBasic
	}
}

// bandTax taxes an amount that starts at the given offset into the taxable
// bands, applying each band's rate to the slice falling inside it.
func bandTax(amount, offset decimal.Decimal, basic, higher, additional decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	// Bands are measured in taxable income: the allowance is fully tapered
	// away by the time the additional rate threshold is reached.
	higherBandStart := basicRateBand
	additionalBandStart := higherRateThreshold

	tax := decimal.Zero
	position := offset
	remaining := amount

	if position.LessThan(higherBandStart) {
		slice := decimal.Min(remaining, higherBandStart.Sub(position))
		tax = tax.Add(slice.Mul(basic))
		position = position.Add(slice)
		remaining = remaining.Sub(slice)
	}
	if remaining.IsPositive() && position.LessThan(additionalBandStart) {
		slice := decimal.Min(remaining, additionalBandStart.Sub(position))
		tax = tax.Add(slice.Mul(higher))
		remaining = remaining.Sub(slice)
	}
	if remaining.IsPositive() {
		tax = tax.Add(remaining.Mul(additional))
	}
	return tax
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round4(d decimal.Decimal) float64 {
	f, _ := d.Round(4).Float64()
	return f
}

// Package savings computes projected contributions, earnings and fees for a
// recurring purchase plan. Everything here is pure: no I/O, no clocks other
// than the dates the caller supplies.
package savings

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Token string

const (
	TokenSTX  Token = "STX"
	TokenSBTC Token = "sBTC"
)

type Frequency string

const (
	Daily    Frequency = "Daily"
	Weekly   Frequency = "Weekly"
	Biweekly Frequency = "Biweekly"
	Monthly  Frequency = "Monthly"
)

var frequencyDays = map[Frequency]int{
	Daily:    1,
	Weekly:   7,
	Biweekly: 14,
	Monthly:  30,
}

// BlocksPerDay approximates Stacks block production (~144 blocks/day).
const BlocksPerDay = 144

// Fee table in micro-STX: a one-time creation fee plus a per-contribution
// transaction fee.
var (
	feeCreation     = decimal.NewFromInt(1000) // 0.001 STX
	feeContribution = decimal.NewFromInt(500)  // 0.0005 STX
)

// Annual interest rates (simple, non-compounding) in percent.
var annualRates = map[Token]decimal.Decimal{
	TokenSTX:  decimal.NewFromFloat(5.0),
	TokenSBTC: decimal.NewFromFloat(3.5),
}

const maxAmount = 1_000_000

// Plan is the input to the calculator. Exactly one of EndDate or
// TargetAmount must be set.
type Plan struct {
	Amount       decimal.Decimal
	Token        Token
	Frequency    Frequency
	StartDate    time.Time
	EndDate      *time.Time
	TargetAmount *decimal.Decimal
}

// Projection is the computed outcome of a plan. Monetary fields are in the
// plan's token; Fees are in micro-STX.
type Projection struct {
	TotalContributions decimal.Decimal
	ContributionCount  int64
	EstimatedEarnings  decimal.Decimal
	EstimatedValue     decimal.Decimal
	Fees               decimal.Decimal
	TotalMonths        decimal.Decimal
}

// FieldError is a single validation failure attributed to a plan field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the plan's fields. The returned slice is empty for a
// valid plan. Today is passed in so validation stays deterministic.
func (p Plan) Validate(today time.Time) []FieldError {
	var errs []FieldError

	if p.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "amount must be greater than 0"})
	} else if p.Amount.GreaterThan(decimal.NewFromInt(maxAmount)) {
		errs = append(errs, FieldError{Field: "amount", Message: "amount cannot exceed 1,000,000"})
	}

	if _, ok := frequencyDays[p.Frequency]; !ok {
		errs = append(errs, FieldError{Field: "frequency", Message: "unknown frequency"})
	}

	if p.StartDate.IsZero() {
		errs = append(errs, FieldError{Field: "startDate", Message: "start date is required"})
	} else {
		day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
		if p.StartDate.Before(day) {
			errs = append(errs, FieldError{Field: "startDate", Message: "start date cannot be in the past"})
		}
	}

	if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
		errs = append(errs, FieldError{Field: "endDate", Message: "end date must be after start date"})
	}
	if p.TargetAmount != nil && p.TargetAmount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "targetAmount", Message: "target amount must be greater than 0"})
	}

	if p.EndDate == nil && p.TargetAmount == nil {
		errs = append(errs, FieldError{Field: "endDate", Message: "either end date or target amount must be specified"})
	} else if p.EndDate != nil && p.TargetAmount != nil {
		errs = append(errs, FieldError{Field: "endDate", Message: "end date and target amount are mutually exclusive"})
	}

	return errs
}

// Calculate computes the projection for a valid plan.
//
// Contribution count derives from elapsed days divided by the frequency in
// days when an end date is given, or ceil(target/amount) for target plans.
// Earnings use simple interest: each scheduled contribution accrues
// amount * monthlyRate * monthsRemaining.
func (p Plan) Calculate() (Projection, error) {
	freqDays, ok := frequencyDays[p.Frequency]
	if !ok {
		return Projection{}, fmt.Errorf("unknown frequency: %q", p.Frequency)
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return Projection{}, fmt.Errorf("amount must be positive")
	}

	thirty := decimal.NewFromInt(30)
	freq := decimal.NewFromInt(int64(freqDays))

	var contributionCount int64
	var totalMonths decimal.Decimal

	switch {
	case p.EndDate != nil:
		span := p.EndDate.Sub(p.StartDate)
		if span < 0 {
			span = -span
		}
		// partial days count as whole days
		days := int64(math.Ceil(span.Hours() / 24))
		contributionCount = days / int64(freqDays)
		totalMonths = decimal.NewFromInt(days).Div(thirty)
	case p.TargetAmount != nil:
		contributionCount = p.TargetAmount.Div(p.Amount).Ceil().IntPart()
		totalMonths = decimal.NewFromInt(contributionCount).Mul(freq).Div(thirty)
	default:
		return Projection{}, fmt.Errorf("either end date or target amount must be set")
	}

	count := decimal.NewFromInt(contributionCount)
	totalContributions := p.Amount.Mul(count)

	rate, ok := annualRates[p.Token]
	if !ok {
		rate = annualRates[TokenSTX]
	}
	monthlyRate := rate.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))

	// simple interest per contribution over its remaining months
	earnings := decimal.Zero
	monthsPerContribution := freq.Div(thirty)
	for i := int64(0); i < contributionCount; i++ {
		monthsRemaining := totalMonths.Sub(decimal.NewFromInt(i).Mul(monthsPerContribution))
		earnings = earnings.Add(p.Amount.Mul(monthlyRate).Mul(monthsRemaining))
	}

	fees := feeCreation.Add(count.Mul(feeContribution))
	estimatedValue := totalContributions.Add(earnings).Sub(fees.Div(decimal.NewFromInt(1_000_000)))

	return Projection{
		TotalContributions: totalContributions,
		ContributionCount:  contributionCount,
		EstimatedEarnings:  earnings,
		EstimatedValue:     estimatedValue,
		Fees:               fees,
		TotalMonths:        totalMonths,
	}, nil
}

// FrequencyInBlocks converts a contribution frequency to a block interval
// for the on-chain plan encoding.
func FrequencyInBlocks(f Frequency) (int64, error) {
	days, ok := frequencyDays[f]
	if !ok {
		return 0, fmt.Errorf("unknown frequency: %q", f)
	}
	return int64(days) * BlocksPerDay, nil
}

package savings_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mosas2000/BitHodl/savings"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateTargetAmountPlan(t *testing.T) {
	target := decimal.NewFromInt(100)
	plan := savings.Plan{
		Amount:       decimal.NewFromInt(10),
		Token:        savings.TokenSTX,
		Frequency:    savings.Weekly,
		StartDate:    date(2026, time.September, 1),
		TargetAmount: &target,
	}

	proj, err := plan.Calculate()
	require.NoError(t, err)

	// ceil(100/10) = 10 contributions of 10 each
	assert.Equal(t, int64(10), proj.ContributionCount)
	assert.True(t, proj.TotalContributions.Equal(decimal.NewFromInt(100)),
		"total contributions = %s", proj.TotalContributions)

	// 10 weekly contributions span 70 days = 7/3 months
	expectedMonths := decimal.NewFromInt(70).Div(decimal.NewFromInt(30))
	assert.True(t, proj.TotalMonths.Equal(expectedMonths), "months = %s", proj.TotalMonths)

	// fixed fee table: 1000 + 10*500 micro-STX
	assert.True(t, proj.Fees.Equal(decimal.NewFromInt(6000)), "fees = %s", proj.Fees)

	assert.True(t, proj.EstimatedEarnings.GreaterThan(decimal.Zero))
}

func TestCalculateTargetAmountRoundsUp(t *testing.T) {
	target := decimal.NewFromInt(95)
	plan := savings.Plan{
		Amount:       decimal.NewFromInt(10),
		Token:        savings.TokenSTX,
		Frequency:    savings.Weekly,
		StartDate:    date(2026, time.September, 1),
		TargetAmount: &target,
	}

	proj, err := plan.Calculate()
	require.NoError(t, err)
	assert.Equal(t, int64(10), proj.ContributionCount)
	assert.True(t, proj.TotalContributions.Equal(decimal.NewFromInt(100)))
}

func TestCalculateEndDatePlan(t *testing.T) {
	end := date(2026, time.December, 1) // 91 days after start
	plan := savings.Plan{
		Amount:    decimal.NewFromInt(25),
		Token:     savings.TokenSTX,
		Frequency: savings.Monthly,
		StartDate: date(2026, time.September, 1),
		EndDate:   &end,
	}

	proj, err := plan.Calculate()
	require.NoError(t, err)

	// floor(91/30) = 3 contributions
	assert.Equal(t, int64(3), proj.ContributionCount)
	assert.True(t, proj.TotalContributions.Equal(decimal.NewFromInt(75)))
	assert.True(t, proj.Fees.Equal(decimal.NewFromInt(2500)))
}

func TestCalculateEndDatePartialDayCountsAsWhole(t *testing.T) {
	// 6 days and 12 hours rounds up to 7 days, one weekly contribution
	end := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC)
	plan := savings.Plan{
		Amount:    decimal.NewFromInt(10),
		Token:     savings.TokenSTX,
		Frequency: savings.Weekly,
		StartDate: date(2026, time.January, 1),
		EndDate:   &end,
	}

	proj, err := plan.Calculate()
	require.NoError(t, err)
	assert.Equal(t, int64(1), proj.ContributionCount)
	assert.True(t, proj.TotalContributions.Equal(decimal.NewFromInt(10)))
}

func TestCalculateSimpleInterest(t *testing.T) {
	// 2 monthly contributions of 120 at 5% APY over 60 days (2 months):
	// monthlyRate = 0.05/12; earnings = 120*r*2 + 120*r*1 = 360*r = 1.5
	target := decimal.NewFromInt(240)
	plan := savings.Plan{
		Amount:       decimal.NewFromInt(120),
		Token:        savings.TokenSTX,
		Frequency:    savings.Monthly,
		StartDate:    date(2026, time.September, 1),
		TargetAmount: &target,
	}

	proj, err := plan.Calculate()
	require.NoError(t, err)
	require.Equal(t, int64(2), proj.ContributionCount)

	expected := decimal.NewFromFloat(1.5)
	assert.True(t, proj.EstimatedEarnings.Sub(expected).Abs().LessThan(decimal.NewFromFloat(0.0001)),
		"earnings = %s", proj.EstimatedEarnings)
}

func TestCalculateSBTCRateDiffers(t *testing.T) {
	target := decimal.NewFromInt(100)
	base := savings.Plan{
		Amount:       decimal.NewFromInt(10),
		Frequency:    savings.Weekly,
		StartDate:    date(2026, time.September, 1),
		TargetAmount: &target,
	}

	stxPlan := base
	stxPlan.Token = savings.TokenSTX
	sbtcPlan := base
	sbtcPlan.Token = savings.TokenSBTC

	stxProj, err := stxPlan.Calculate()
	require.NoError(t, err)
	sbtcProj, err := sbtcPlan.Calculate()
	require.NoError(t, err)

	// 5% APY earns more than 3.5% APY on the same schedule
	assert.True(t, stxProj.EstimatedEarnings.GreaterThan(sbtcProj.EstimatedEarnings))
}

func TestCalculateRejectsMissingBound(t *testing.T) {
	plan := savings.Plan{
		Amount:    decimal.NewFromInt(10),
		Token:     savings.TokenSTX,
		Frequency: savings.Weekly,
		StartDate: date(2026, time.September, 1),
	}
	_, err := plan.Calculate()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	today := date(2026, time.August, 29)
	end := date(2026, time.December, 1)
	target := decimal.NewFromInt(100)

	valid := savings.Plan{
		Amount:    decimal.NewFromInt(10),
		Token:     savings.TokenSTX,
		Frequency: savings.Weekly,
		StartDate: date(2026, time.September, 1),
		EndDate:   &end,
	}
	assert.Empty(t, valid.Validate(today))

	fields := func(p savings.Plan) []string {
		var out []string
		for _, fe := range p.Validate(today) {
			out = append(out, fe.Field)
		}
		return out
	}

	zeroAmount := valid
	zeroAmount.Amount = decimal.Zero
	assert.Contains(t, fields(zeroAmount), "amount")

	tooLarge := valid
	tooLarge.Amount = decimal.NewFromInt(2_000_000)
	assert.Contains(t, fields(tooLarge), "amount")

	pastStart := valid
	pastStart.StartDate = date(2026, time.January, 1)
	assert.Contains(t, fields(pastStart), "startDate")

	endBeforeStart := valid
	badEnd := date(2026, time.August, 1)
	endBeforeStart.EndDate = &badEnd
	assert.Contains(t, fields(endBeforeStart), "endDate")

	noBound := valid
	noBound.EndDate = nil
	assert.Contains(t, fields(noBound), "endDate")

	bothBounds := valid
	bothBounds.TargetAmount = &target
	assert.Contains(t, fields(bothBounds), "endDate")

	negativeTarget := valid
	negTarget := decimal.NewFromInt(-5)
	negativeTarget.EndDate = nil
	negativeTarget.TargetAmount = &negTarget
	assert.Contains(t, fields(negativeTarget), "targetAmount")

	badFreq := valid
	badFreq.Frequency = savings.Frequency("Hourly")
	assert.Contains(t, fields(badFreq), "frequency")
}

func TestFrequencyInBlocks(t *testing.T) {
	blocks, err := savings.FrequencyInBlocks(savings.Daily)
	require.NoError(t, err)
	assert.Equal(t, int64(144), blocks)

	blocks, err = savings.FrequencyInBlocks(savings.Weekly)
	require.NoError(t, err)
	assert.Equal(t, int64(1008), blocks)

	_, err = savings.FrequencyInBlocks(savings.Frequency("Hourly"))
	require.Error(t, err)
}

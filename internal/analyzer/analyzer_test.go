package analyzer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/source/sourcetest"
	"github.com/Quintas0658/olist-ecommerce-project/internal/storage"
	"github.com/Quintas0658/olist-ecommerce-project/internal/tier"
)

var (
	ctx     = context.Background()
	builtAt = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
)

func month(s string) models.Month { return models.MustParseMonth(s) }

func newEngine(b *sourcetest.Builder) *Engine {
	return New(b.Dataset(), storage.New(), tier.Default(), DefaultOptions())
}

func TestBuildMonthlySellerProfile(t *testing.T) {
	b := sourcetest.NewBuilder().
		Seller("idle", "campinas", "SP").
		Tier("s1", "2018-03", models.TierSilver).
		Tier("s2", "2018-03", models.TierPlatinum)
	e := newEngine(b)

	p, err := e.BuildMonthlySellerProfile(ctx, month("2018-03"), 0)
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())

	idle, ok := p.Seller("idle")
	require.True(t, ok)
	assert.Equal(t, models.TierBasic, idle.Tier)
	assert.False(t, idle.IsActive)
	assert.Equal(t, "campinas", idle.SellerCity)
	assert.Equal(t, 0.0, idle.TotalGMV)

	tierOf := func(id string) models.Tier {
		tr, ok := p.TierOf(id)
		require.True(t, ok, id)
		return tr
	}
	assert.Equal(t, models.TierSilver, tierOf("s1"))
	assert.Equal(t, models.TierPlatinum, tierOf("s2"))

	c := tier.Default()
	for _, row := range p.Sellers {
		assert.True(t, c.Conforms(row), "seller %s tier does not match its metrics", row.SellerID)
		assert.NoError(t, row.Validate())
		assert.Equal(t, month("2018-03"), row.AnalysisMonth)
	}
}

func TestBuildMonthlySellerProfile_EmptyWindow(t *testing.T) {
	e := newEngine(sourcetest.NewBuilder().Seller("s1", "", "").Sales("s1", "2018-03", 1, 10, 5))

	p, err := e.BuildMonthlySellerProfile(ctx, month("2016-01"), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, month("2016-01"), p.Month)
}

func TestBuildMonthlySellerProfile_NegativeLookback(t *testing.T) {
	e := newEngine(sourcetest.NewBuilder())
	_, err := e.BuildMonthlySellerProfile(ctx, month("2018-03"), -1)
	require.Error(t, err)
}

func TestBuildMonthlySellerProfile_Idempotent(t *testing.T) {
	b := sourcetest.NewBuilder().
		Tier("s1", "2018-02", models.TierGold).
		Sales("s2", "2018-03", 4, 130, 3)
	e := newEngine(b)

	first, err := e.BuildMonthlySellerProfile(ctx, month("2018-03"), 1)
	require.NoError(t, err)
	second, err := e.BuildMonthlySellerProfile(ctx, month("2018-03"), 1)
	require.NoError(t, err)
	assert.Same(t, first, second)

	e.Store().Invalidate()
	rebuilt, err := e.BuildMonthlySellerProfile(ctx, month("2018-03"), 1)
	require.NoError(t, err)
	assert.Equal(t, first.Sellers, rebuilt.Sellers)
}

func TestBuildMonthlySellerProfile_LookbackChangesTier(t *testing.T) {
	b := sourcetest.NewBuilder().
		Sales("s1", "2018-01", 5, 200, 4).
		Sales("s1", "2018-02", 5, 200, 4)
	e := newEngine(b)

	single, err := e.BuildMonthlySellerProfile(ctx, month("2018-02"), 0)
	require.NoError(t, err)
	wide, err := e.BuildMonthlySellerProfile(ctx, month("2018-02"), 1)
	require.NoError(t, err)

	got, _ := single.TierOf("s1")
	assert.Equal(t, models.TierBronze, got)
	got, _ = wide.TierOf("s1")
	assert.Equal(t, models.TierSilver, got)
	assert.Equal(t, 2, e.Store().Len())
}

func TestAvailableMonths(t *testing.T) {
	b := sourcetest.NewBuilder().
		Sales("s1", "2018-03", 1, 10, 5).
		Sales("s1", "2017-11", 1, 10, 5).
		Sales("s2", "2018-03", 1, 10, 5)
	e := newEngine(b)

	assert.Equal(t, []models.Month{month("2017-11"), month("2018-03")}, e.AvailableMonths())
	assert.True(t, e.IsAvailable(month("2017-11")))
	assert.False(t, e.IsAvailable(month("2018-01")))
}

func TestMonthlySummary(t *testing.T) {
	b := sourcetest.NewBuilder().
		Seller("idle", "", "").
		Sales("s1", "2018-05", 2, 100, 4).
		Sales("s2", "2018-05", 1, 50, 2)
	e := newEngine(b)

	s, err := e.MonthlySummary(ctx, month("2018-05"), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalSellers)
	assert.Equal(t, 2, s.ActiveSellers)
	assert.Equal(t, 250.0, s.TotalGMV)
	assert.Equal(t, 125.0, s.AvgGMVPerSeller)
	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, 3.0, s.AvgRating)

	require.Len(t, s.TierDistribution, models.NumTiers)
	assert.Equal(t, models.TierBasic, s.TierDistribution[0].Key)
	assert.Equal(t, 3, s.TierDistribution[0].Count)
	var total int
	for _, bucket := range s.TierDistribution {
		total += bucket.Count
	}
	assert.Equal(t, s.TotalSellers, total)
}

func TestMonthlySummary_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalSellers)
	assert.Equal(t, 0.0, s.AvgRating)
	assert.Len(t, s.TierDistribution, models.NumTiers)
}

// tieredBuilder sets each seller's single-month tier for each month.
func tieredBuilder(plan map[string][]models.Tier, months ...string) *sourcetest.Builder {
	b := sourcetest.NewBuilder()
	for seller, tiers := range plan {
		for i, tr := range tiers {
			b.Tier(seller, months[i], tr)
		}
	}
	return b
}

func TestFlowAndStability(t *testing.T) {
	b := tieredBuilder(map[string][]models.Tier{
		"s1": {models.TierBronze, models.TierSilver},
		"s2": {models.TierGold, models.TierGold},
	}, "2018-01", "2018-02")
	e := newEngine(b)

	a, err := e.BuildMonthlySellerProfile(ctx, month("2018-01"), 0)
	require.NoError(t, err)
	bp, err := e.BuildMonthlySellerProfile(ctx, month("2018-02"), 0)
	require.NoError(t, err)

	f := Flow(a, bp)
	assert.Equal(t, 1, f.Cell(models.TierBronze, models.TierSilver))
	assert.Equal(t, 1, f.Cell(models.TierGold, models.TierGold))
	assert.Equal(t, 2, f.Common())
	assert.Equal(t, 1, f.Stable())
	assert.Equal(t, 1, f.Upgraded())
	assert.Equal(t, 0, f.Downgraded())
	assertMargins(t, f)

	st := Stability([]*models.MonthlyProfile{a, bp})
	require.Contains(t, st, models.TierGold)
	require.Contains(t, st, models.TierBronze)
	assert.Equal(t, 1.0, st[models.TierGold].Rate)
	assert.Equal(t, 0.0, st[models.TierBronze].Rate)
	assert.NotContains(t, st, models.TierPlatinum)
	for tr, s := range st {
		assert.Equal(t, s.Total, s.Stable+s.Changed, tr.String())
		assert.GreaterOrEqual(t, s.Rate, 0.0)
		assert.LessOrEqual(t, s.Rate, 1.0)
	}

	assert.Empty(t, Stability([]*models.MonthlyProfile{a}))
}

func assertMargins(t *testing.T, f *FlowMatrix) {
	t.Helper()
	for j := range f.Cols {
		var col int
		for i := range f.Rows {
			col += f.Cells[i][j]
		}
		assert.Equal(t, f.ColTotals[j], col)
	}
	var rows int
	for i := range f.Rows {
		rows += f.RowTotals[i]
	}
	assert.Equal(t, f.Total, rows)
}

func TestFlow_ExcludesSellersMissingFromEitherMonth(t *testing.T) {
	a := models.NewMonthlyProfile(month("2018-01"), 0, []models.SellerProfile{
		{SellerID: "s1", Tier: models.TierBronze},
		{SellerID: "churned", Tier: models.TierGold},
	}, builtAt)
	b := models.NewMonthlyProfile(month("2018-02"), 0, []models.SellerProfile{
		{SellerID: "s1", Tier: models.TierBasic},
		{SellerID: "new", Tier: models.TierPlatinum},
	}, builtAt)

	f := Flow(a, b)
	assert.Equal(t, 1, f.Total)
	assert.Equal(t, 1, f.Downgraded())
	assert.Equal(t, 0, f.ColTotal(models.TierPlatinum))

	st := Stability([]*models.MonthlyProfile{a, b})
	assert.Equal(t, 1, st[models.TierGold].Stable, "unobserved months do not count as changes")
	assert.Equal(t, 0, st[models.TierBronze].Stable)
}

func TestAnalyzeTierChanges(t *testing.T) {
	b := tieredBuilder(map[string][]models.Tier{
		"s1": {models.TierBasic, models.TierBronze, models.TierSilver},
		"s2": {models.TierGold, models.TierGold, models.TierSilver},
	}, "2018-01", "2018-02", "2018-03")
	e := newEngine(b)

	res, err := e.AnalyzeTierChanges(ctx, []models.Month{month("2018-03"), month("2018-01"), month("2018-02")}, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.Month{month("2018-01"), month("2018-02"), month("2018-03")}, res.Months)
	assert.Len(t, res.MonthlyData, 6)

	require.NotNil(t, res.Flow)
	assert.Equal(t, month("2018-02"), res.Flow.From)
	assert.Equal(t, month("2018-03"), res.Flow.To)
	assert.Equal(t, 1, res.Flow.Cell(models.TierBronze, models.TierSilver))
	assert.Equal(t, 1, res.Flow.Cell(models.TierGold, models.TierSilver))

	assert.Equal(t, 0.0, res.Stability[models.TierGold].Rate)
	assert.Equal(t, 0.0, res.Stability[models.TierBasic].Rate)

	single, err := e.AnalyzeTierChanges(ctx, []models.Month{month("2018-01")}, 0)
	require.NoError(t, err)
	assert.Nil(t, single.Flow)
	assert.Empty(t, single.Stability)
}

func TestAnalyzePeriodComparison(t *testing.T) {
	b := tieredBuilder(map[string][]models.Tier{
		"a": {models.TierBronze, models.TierGold},
		"b": {models.TierPlatinum, models.TierSilver},
		"c": {models.TierSilver, models.TierBasic},
		"d": {models.TierSilver, models.TierSilver},
		"e": {models.TierBasic, models.TierBronze},
	}, "2018-09", "2018-10")
	e := newEngine(b)

	res, err := e.AnalyzePeriodComparison(ctx, month("2018-10"), 0)
	require.NoError(t, err)
	assert.Nil(t, res.YoY, "2017-10 has no data")
	require.NotNil(t, res.MoM)

	mom := res.MoM
	assert.Equal(t, KindMoM, mom.Kind)
	assert.Equal(t, month("2018-09"), mom.CompanionMonth)
	assert.Equal(t, month("2018-10"), mom.TargetMonth)

	assert.Equal(t, ComparisonSummary{
		Total: 5, Upgraded: 2, Downgraded: 2, Stable: 1,
		UpgradeRate: 0.4, DowngradeRate: 0.4, StabilityRate: 0.2,
	}, mom.Summary)

	assert.Equal(t, []SellerTierChange{
		{SellerID: "a", From: models.TierBronze, To: models.TierGold, Change: 2},
		{SellerID: "e", From: models.TierBasic, To: models.TierBronze, Change: 1},
	}, mom.Upgraded)
	assert.Equal(t, []SellerTierChange{
		{SellerID: "b", From: models.TierPlatinum, To: models.TierSilver, Change: -2},
		{SellerID: "c", From: models.TierSilver, To: models.TierBasic, Change: -2},
	}, mom.Downgraded)

	assert.Equal(t, mom.Summary.Total, mom.Flow.Total)
	assertMargins(t, mom.Flow)
}

func TestAnalyzePeriodComparison_YearOverYear(t *testing.T) {
	b := sourcetest.NewBuilder().
		Tier("s1", "2017-10", models.TierGold).
		Tier("s1", "2018-10", models.TierSilver)
	e := newEngine(b)

	res, err := e.AnalyzePeriodComparison(ctx, month("2018-10"), 0)
	require.NoError(t, err)
	assert.Nil(t, res.MoM)
	require.NotNil(t, res.YoY)
	assert.Equal(t, month("2017-10"), res.YoY.CompanionMonth)
	assert.Equal(t, 1, res.YoY.Summary.Downgraded)
}

func TestCompare_NoCommonSellers(t *testing.T) {
	a := models.NewMonthlyProfile(month("2018-01"), 0, nil, builtAt)
	b := models.NewMonthlyProfile(month("2018-02"), 0, nil, builtAt)
	c := Compare(KindMoM, a, b)
	assert.Equal(t, 0, c.Summary.Total)
	assert.Equal(t, 0.0, c.Summary.UpgradeRate)
	assert.Empty(t, c.Upgraded)
}

func TestAnalyzeSellerTrajectory(t *testing.T) {
	months := []string{"2018-01", "2018-02", "2018-03", "2018-04"}
	b := tieredBuilder(map[string][]models.Tier{
		"rise":   {models.TierBasic, models.TierBronze, models.TierSilver, models.TierGold},
		"fall":   {models.TierGold, models.TierSilver, models.TierBronze, models.TierBasic},
		"flat":   {models.TierSilver, models.TierSilver, models.TierSilver, models.TierSilver},
		"wobbly": {models.TierGold, models.TierBasic, models.TierBasic, models.TierGold},
	}, months...)
	e := newEngine(b)

	ms, err := models.ParseMonths(months)
	require.NoError(t, err)
	res, err := e.AnalyzeSellerTrajectory(ctx, ms, 3, 0)
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	assert.Equal(t, 4, res.TotalSellers)
	byID := make(map[string]TrajectoryRecord)
	for _, r := range res.Records {
		byID[r.SellerID] = r
	}

	rise := byID["rise"]
	assert.InDelta(t, 1.0, rise.Trend, 1e-9)
	assert.InDelta(t, math.Sqrt(1.25), rise.Volatility, 1e-9)
	assert.Equal(t, TrajectoryRise, rise.Type)
	assert.Equal(t, 3, rise.TotalChanges)
	assert.Equal(t, "Basic → Bronze → Silver → Gold", rise.TierPath)

	assert.Equal(t, TrajectoryDecline, byID["fall"].Type)

	flat := byID["flat"]
	assert.Equal(t, 0.0, flat.Volatility)
	assert.Equal(t, TrajectoryStable, flat.Type)
	assert.Equal(t, 0, flat.TotalChanges)

	wobbly := byID["wobbly"]
	assert.InDelta(t, 0.0, wobbly.Trend, 1e-9)
	assert.InDelta(t, 1.5, wobbly.Volatility, 1e-9)
	assert.Equal(t, TrajectoryFluctuating, wobbly.Type)
	assert.Equal(t, 2, wobbly.TotalChanges)

	assert.Equal(t, map[TrajectoryType]int{
		TrajectoryRise: 1, TrajectoryDecline: 1, TrajectoryFluctuating: 1, TrajectoryStable: 1,
	}, res.Summary)
	assert.Equal(t, []string{"fall", "flat", "rise", "wobbly"}, []string{
		res.Records[0].SellerID, res.Records[1].SellerID, res.Records[2].SellerID, res.Records[3].SellerID,
	})
}

func TestAnalyzeSellerTrajectory_MinMonths(t *testing.T) {
	m1 := models.NewMonthlyProfile(month("2018-01"), 0, []models.SellerProfile{
		{SellerID: "long", Tier: models.TierBasic},
		{SellerID: "short", Tier: models.TierGold},
	}, builtAt)
	m2 := models.NewMonthlyProfile(month("2018-02"), 0, []models.SellerProfile{
		{SellerID: "long", Tier: models.TierBasic},
	}, builtAt)
	m3 := models.NewMonthlyProfile(month("2018-03"), 0, []models.SellerProfile{
		{SellerID: "long", Tier: models.TierBronze},
	}, builtAt)

	res := Trajectories([]*models.MonthlyProfile{m1, m2, m3}, 3, Thresholds{Trend: 0.1, Volatility: 0.5})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "long", res.Records[0].SellerID)
	assert.Equal(t, 1, res.TotalSellers)

	none := Trajectories([]*models.MonthlyProfile{m1, m2, m3}, 4, Thresholds{Trend: 0.1, Volatility: 0.5})
	assert.Empty(t, none.Records)
	assert.Empty(t, none.Summary)
}

func TestThresholdsClassify(t *testing.T) {
	th := Thresholds{Trend: DefaultTrendThreshold, Volatility: DefaultVolatilityThreshold}
	tests := []struct {
		name       string
		trend      float64
		volatility float64
		want       TrajectoryType
	}{
		{"rising", 0.5, 2, TrajectoryRise},
		{"declining", -0.11, 0, TrajectoryDecline},
		{"trend at threshold", 0.1, 0.2, TrajectoryStable},
		{"fluctuating", 0.05, 0.9, TrajectoryFluctuating},
		{"volatility at threshold", 0, 0.5, TrajectoryStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Classify(tt.trend, tt.volatility))
		})
	}
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, olsSlope([]float64{2}))
	assert.Equal(t, 0.0, olsSlope(nil))
	assert.InDelta(t, -1.0, olsSlope([]float64{3, 2, 1, 0}), 1e-9)
	assert.InDelta(t, 0.0, olsSlope([]float64{1, 3, 1, 3, 1}), 1e-9)
	assert.Equal(t, 0.0, populationStdDev(nil))
	assert.InDelta(t, 1.0, populationStdDev([]float64{1, 3, 1, 3}), 1e-9)
}

func TestSession(t *testing.T) {
	s, err := NewSession(month("2018-01"), month("2018-04"), 3, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.Months, 4)

	s.Restrict([]models.Month{month("2018-02"), month("2018-04"), month("2019-01")})
	assert.Equal(t, []models.Month{month("2018-02"), month("2018-04")}, s.Months)
	latest, ok := s.Latest()
	assert.True(t, ok)
	assert.Equal(t, month("2018-04"), latest)

	other, err := NewSession(month("2018-01"), month("2018-01"), 0, 1)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, other.ID)

	_, err = NewSession(month("2018-05"), month("2018-01"), 3, 2)
	assert.ErrorIs(t, err, models.ErrInvalidMonthRange)
	_, err = NewSession(month("2018-01"), month("2018-05"), -1, 2)
	assert.Error(t, err)
	_, err = NewSession(month("2018-01"), month("2018-05"), 1, 0)
	assert.Error(t, err)
}

// Package report renders analysis results as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Quintas0658/olist-ecommerce-project/internal/analyzer"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
	"github.com/Quintas0658/olist-ecommerce-project/internal/pivot"
)

const msgNoData = "No data available"

// Money formats a BRL amount with thousands separators and two decimals.
func Money(v float64) string {
	return "R$ " + humanize.FormatFloat("#,###.##", v)
}

// Percent formats a fraction as a percentage.
func Percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

// Months writes the available months, one per line.
func Months(w io.Writer, months []models.Month) {
	if len(months) == 0 {
		fmt.Fprintln(w, msgNoData)
		return
	}
	for _, m := range months {
		fmt.Fprintln(w, m)
	}
}

// Summary writes a monthly summary with its tier distribution.
func Summary(w io.Writer, s analyzer.MonthlySummary) {
	fmt.Fprintf(w, "=== %s (lookback %d) ===\n", s.AnalysisMonth, s.Lookback)
	if s.TotalSellers == 0 {
		fmt.Fprintln(w, msgNoData)
		return
	}

	tbl := newTable(w)
	tbl.AppendRows([]table.Row{
		{"Total sellers", Count(s.TotalSellers)},
		{"Active sellers", Count(s.ActiveSellers)},
		{"Total GMV", Money(s.TotalGMV)},
		{"Avg GMV per seller", Money(s.AvgGMVPerSeller)},
		{"Total orders", Count(s.TotalOrders)},
		{"Avg rating", fmt.Sprintf("%.2f", s.AvgRating)},
	})
	tbl.Render()

	fmt.Fprintln(w)
	Distribution(w, s.TierDistribution, s.TotalSellers)
}

// Distribution writes tier counts with their share of total.
func Distribution(w io.Writer, buckets []pivot.Bucket[models.Tier], total int) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Tier", "Sellers", "Share"})
	for i := len(buckets) - 1; i >= 0; i-- {
		b := buckets[i]
		share := 0.0
		if total > 0 {
			share = float64(b.Count) / float64(total)
		}
		tbl.AppendRow(table.Row{b.Key, Count(b.Count), Percent(share)})
	}
	tbl.Render()
}

// Flow writes a flow matrix with its margins.
func Flow(w io.Writer, f *analyzer.FlowMatrix) {
	if f == nil {
		fmt.Fprintln(w, "Flow matrix needs at least two months")
		return
	}
	fmt.Fprintf(w, "Tier flow %s → %s\n", f.From, f.To)

	tbl := newTable(w)
	header := table.Row{"From \\ To"}
	for _, c := range f.Cols {
		header = append(header, c)
	}
	header = append(header, pivot.AllLabel)
	tbl.AppendHeader(header)

	for i, r := range f.Rows {
		row := table.Row{r}
		for j := range f.Cols {
			row = append(row, Count(f.Cells[i][j]))
		}
		row = append(row, Count(f.RowTotals[i]))
		tbl.AppendRow(row)
	}
	footer := table.Row{pivot.AllLabel}
	for j := range f.Cols {
		footer = append(footer, Count(f.ColTotals[j]))
	}
	footer = append(footer, Count(f.Total))
	tbl.AppendFooter(footer)
	tbl.Render()
}

// Stability writes per-tier stability in ascending tier order.
func Stability(w io.Writer, st map[models.Tier]analyzer.TierStability) {
	if len(st) == 0 {
		fmt.Fprintln(w, "Stability needs at least two months")
		return
	}
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Tier", "Sellers", "Stable", "Changed", "Stability"})
	for _, s := range analyzer.SortedStability(st) {
		tbl.AppendRow(table.Row{s.Tier, Count(s.Total), Count(s.Stable), Count(s.Changed), Percent(s.Rate)})
	}
	tbl.Render()
}

// TierChanges writes the flow and stability of a tier change analysis.
func TierChanges(w io.Writer, res *analyzer.TierChangeResult) {
	names := make([]string, len(res.Months))
	for i, m := range res.Months {
		names[i] = m.String()
	}
	fmt.Fprintf(w, "=== Tier changes %s ===\n", strings.Join(names, ", "))
	Flow(w, res.Flow)
	fmt.Fprintln(w)
	Stability(w, res.Stability)
}

// PeriodComparison writes the MoM and YoY comparisons, listing at most top sellers
// per direction.
func PeriodComparison(w io.Writer, res *analyzer.PeriodComparisonResult, top int) {
	fmt.Fprintf(w, "=== Period comparison for %s (lookback %d) ===\n", res.TargetMonth, res.Lookback)
	section(w, analyzer.KindMoM, res.TargetMonth.AddMonths(-1), res.MoM, top)
	section(w, analyzer.KindYoY, res.TargetMonth.AddMonths(-12), res.YoY, top)
}

func section(w io.Writer, kind string, companion models.Month, c *analyzer.Comparison, top int) {
	fmt.Fprintln(w)
	if c == nil {
		fmt.Fprintf(w, "%s: no data for %s\n", kind, companion)
		return
	}
	fmt.Fprintf(w, "%s: %s → %s\n", kind, c.CompanionMonth, c.TargetMonth)

	s := c.Summary
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"", "Sellers", "Rate"})
	tbl.AppendRows([]table.Row{
		{"Upgraded", Count(s.Upgraded), Percent(s.UpgradeRate)},
		{"Downgraded", Count(s.Downgraded), Percent(s.DowngradeRate)},
		{"Stable", Count(s.Stable), Percent(s.StabilityRate)},
	})
	tbl.AppendFooter(table.Row{"Common", Count(s.Total), ""})
	tbl.Render()

	Flow(w, c.Flow)
	changes(w, "Top upgrades", c.Upgraded, top)
	changes(w, "Top downgrades", c.Downgraded, top)
}

func changes(w io.Writer, title string, list []analyzer.SellerTierChange, top int) {
	if len(list) == 0 || top == 0 {
		return
	}
	if top > 0 && len(list) > top {
		list = list[:top]
	}
	fmt.Fprintf(w, "%s:\n", title)
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Seller", "From", "To", "Change"})
	for _, ch := range list {
		tbl.AppendRow(table.Row{ch.SellerID, ch.From, ch.To, fmt.Sprintf("%+d", ch.Change)})
	}
	tbl.Render()
}

// Trajectory writes the trajectory type counts and at most top records.
func Trajectory(w io.Writer, res *analyzer.TrajectoryResult, top int) {
	fmt.Fprintf(w, "=== Trajectories: %s sellers ===\n", Count(res.TotalSellers))
	if res.TotalSellers == 0 {
		fmt.Fprintln(w, msgNoData)
		return
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Trajectory", "Sellers", "Share"})
	for _, tt := range analyzer.TrajectoryTypes() {
		n := res.Summary[tt]
		tbl.AppendRow(table.Row{string(tt), Count(n), Percent(float64(n) / float64(res.TotalSellers))})
	}
	tbl.Render()

	if top == 0 {
		return
	}
	records := movers(res.Records)
	if top > 0 && len(records) > top {
		records = records[:top]
	}
	fmt.Fprintln(w)
	tbl = newTable(w)
	tbl.AppendHeader(table.Row{"Seller", "Path", "Changes", "Trend", "Volatility", "Type"})
	for _, r := range records {
		tbl.AppendRow(table.Row{
			r.SellerID, r.TierPath, r.TotalChanges,
			fmt.Sprintf("%+.2f", r.Trend), fmt.Sprintf("%.2f", r.Volatility), string(r.Type),
		})
	}
	tbl.Render()
}

// movers orders records by absolute trend, then volatility, then seller ID.
func movers(records []analyzer.TrajectoryRecord) []analyzer.TrajectoryRecord {
	out := append([]analyzer.TrajectoryRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := math.Abs(out[i].Trend), math.Abs(out[j].Trend)
		if ti != tj {
			return ti > tj
		}
		if out[i].Volatility != out[j].Volatility {
			return out[i].Volatility > out[j].Volatility
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out
}

// Profile writes the top sellers of a profile by GMV.
func Profile(w io.Writer, p *models.MonthlyProfile, top int) {
	fmt.Fprintf(w, "=== Profile %s: %s sellers ===\n", p.Key(), Count(p.Len()))
	if p.Len() == 0 {
		fmt.Fprintln(w, msgNoData)
		return
	}

	rows := append([]models.SellerProfile(nil), p.Sellers...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalGMV != rows[j].TotalGMV {
			return rows[i].TotalGMV > rows[j].TotalGMV
		}
		return rows[i].SellerID < rows[j].SellerID
	})
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}

	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Seller", "State", "GMV", "Orders", "Rating", "Bad reviews", "Tier"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{
			r.SellerID, r.SellerState, Money(r.TotalGMV), Count(r.UniqueOrders),
			fmt.Sprintf("%.2f", r.AvgReviewScore), fmt.Sprintf("%.1f%%", r.BadReviewRate), r.Tier,
		})
	}
	tbl.Render()
}

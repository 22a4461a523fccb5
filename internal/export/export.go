// Package export writes monthly seller profiles to flat files for audit and reporting.
//
// One row is written per seller; columns are the profile fields followed by tier.
// Files are written to a temporary path and renamed into place, so a failed export
// never leaves a partial file behind.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet holding the profile in XLSX exports.
const SheetName = "profile"

const timeLayout = "2006-01-02 15:04:05"

// ParseFormat resolves a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (expected csv or xlsx)", s)
	}
}

// FileName returns the export file name for a profile.
func FileName(p *models.MonthlyProfile, format Format) string {
	return fmt.Sprintf("monthly_seller_profile_%s_lb%d.%s", p.Month, p.Lookback, format)
}

type column struct {
	name  string
	value func(*models.SellerProfile) interface{}
}

var columns = []column{
	{"seller_id", func(p *models.SellerProfile) interface{} { return p.SellerID }},
	{"seller_city", func(p *models.SellerProfile) interface{} { return p.SellerCity }},
	{"seller_state", func(p *models.SellerProfile) interface{} { return p.SellerState }},
	{"analysis_month", func(p *models.SellerProfile) interface{} { return p.AnalysisMonth.String() }},
	{"lookback_months", func(p *models.SellerProfile) interface{} { return p.LookbackMonths }},
	{"total_gmv", func(p *models.SellerProfile) interface{} { return p.TotalGMV }},
	{"avg_order_value", func(p *models.SellerProfile) interface{} { return p.AvgOrderValue }},
	{"total_items", func(p *models.SellerProfile) interface{} { return p.TotalItems }},
	{"total_freight", func(p *models.SellerProfile) interface{} { return p.TotalFreight }},
	{"avg_freight", func(p *models.SellerProfile) interface{} { return p.AvgFreight }},
	{"unique_orders", func(p *models.SellerProfile) interface{} { return p.UniqueOrders }},
	{"avg_review_score", func(p *models.SellerProfile) interface{} { return p.AvgReviewScore }},
	{"review_count", func(p *models.SellerProfile) interface{} { return p.ReviewCount }},
	{"review_score_std", func(p *models.SellerProfile) interface{} { return p.ReviewScoreStd }},
	{"bad_review_rate", func(p *models.SellerProfile) interface{} { return p.BadReviewRate }},
	{"avg_shipping_days", func(p *models.SellerProfile) interface{} { return p.AvgShippingDays }},
	{"median_shipping_days", func(p *models.SellerProfile) interface{} { return p.MedianShippingDays }},
	{"avg_delivery_days", func(p *models.SellerProfile) interface{} { return p.AvgDeliveryDays }},
	{"median_delivery_days", func(p *models.SellerProfile) interface{} { return p.MedianDeliveryDays }},
	{"delivery_success_rate", func(p *models.SellerProfile) interface{} { return p.DeliverySuccessRate }},
	{"category_count", func(p *models.SellerProfile) interface{} { return p.CategoryCount }},
	{"sku_count", func(p *models.SellerProfile) interface{} { return p.SKUCount }},
	{"first_order_date", func(p *models.SellerProfile) interface{} { return p.FirstOrderAt }},
	{"last_order_date", func(p *models.SellerProfile) interface{} { return p.LastOrderAt }},
	{"active_days", func(p *models.SellerProfile) interface{} { return p.ActiveDays }},
	{"order_frequency", func(p *models.SellerProfile) interface{} { return p.OrderFrequency }},
	{"revenue_per_order", func(p *models.SellerProfile) interface{} { return p.RevenuePerOrder }},
	{"items_per_order", func(p *models.SellerProfile) interface{} { return p.ItemsPerOrder }},
	{"is_active", func(p *models.SellerProfile) interface{} { return p.IsActive }},
	{"tier", func(p *models.SellerProfile) interface{} { return p.Tier.String() }},
}

// Header returns the column names in export order.
func Header() []string {
	h := make([]string, len(columns))
	for i, c := range columns {
		h[i] = c.name
	}
	return h
}

// Exporter writes profiles into a directory.
type Exporter struct {
	dir      string
	format   Format
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// New creates an Exporter writing format files under dir.
func New(dir string, format Format) *Exporter {
	return &Exporter{dir: dir, format: format, filePerm: 0o644, dirPerm: 0o755}
}

// Export writes the profile and returns the path of the written file.
func (e *Exporter) Export(p *models.MonthlyProfile) (string, error) {
	if err := os.MkdirAll(e.dir, e.dirPerm); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, FileName(p, e.format))
	tmp, err := os.CreateTemp(e.dir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	switch e.format {
	case FormatCSV:
		err = WriteCSV(tmp, p)
	case FormatXLSX:
		err = WriteXLSX(tmp, p)
	default:
		err = fmt.Errorf("unsupported export format %q", e.format)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Chmod(tmpPath, e.filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	logger.Info("Exported %d sellers for %s to %s", p.Len(), p.Key(), path)
	return path, nil
}

// WriteCSV writes the profile as comma-separated values with a header row.
func WriteCSV(w io.Writer, p *models.MonthlyProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(columns))
	for i := range p.Sellers {
		for j, c := range columns {
			record[j] = formatCSV(c.value(&p.Sellers[i]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write seller %s: %w", p.Sellers[i].SellerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCSV(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(timeLayout)
	default:
		return fmt.Sprint(x)
	}
}

// WriteXLSX writes the profile as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, p *models.MonthlyProfile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]interface{}, len(columns))
	for i := range p.Sellers {
		for j, c := range columns {
			row[j] = formatXLSX(c.value(&p.Sellers[i]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write seller %s: %w", p.Sellers[i].SellerID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// formatXLSX keeps numbers numeric and renders times and booleans as text.
func formatXLSX(v interface{}) interface{} {
	switch x := v.(type) {
	case bool, time.Time:
		return formatCSV(x)
	default:
		return v
	}
}

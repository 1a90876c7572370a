// Package spreadsheet reads coupon batches from .xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// Column headers recognised on the first row of the first sheet.
const (
	colCode            = "code"
	colDescription     = "description"
	colDiscountAmount  = "discount_amount"
	colDiscountType    = "discount_type"
	colExpirationDate  = "expiration_date"
	colBrand           = "brand"
	colAssignmentTitle = "assignment_title"
)

var requiredColumns = []string{colCode, colDiscountAmount, colDiscountType}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
}

// ParseCoupons reads every non-blank data row of the first sheet. Cells are
// read as text. Errors name the sheet row so they match what the uploader
// sees in the workbook.
func ParseCoupons(r io.Reader) ([]ports.CreateCouponInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError("file is not a readable .xlsx workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, domain.NewValidationError("workbook is empty")
	}

	index := headerIndex(rows[0])
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("missing required columns: " + strings.Join(missing, ", "))
	}

	inputs := make([]ports.CreateCouponInput, 0, len(rows)-1)
	var problems []string
	for i, row := range rows[1:] {
		sheetRow := i + 2
		if blank(row) {
			continue
		}
		cell := func(col string) string {
			pos, ok := index[col]
			if !ok || pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}

		in := ports.CreateCouponInput{
			Code:            cell(colCode),
			Description:     cell(colDescription),
			DiscountType:    cell(colDiscountType),
			Brand:           cell(colBrand),
			AssignmentTitle: cell(colAssignmentTitle),
		}

		amount, err := parseAmount(cell(colDiscountAmount))
		if err != nil {
			problems = append(problems, fmt.Sprintf("row %d: discount_amount %v", sheetRow, err))
			continue
		}
		in.DiscountAmount = amount

		if raw := cell(colExpirationDate); raw != "" {
			exp, err := parseDate(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("row %d: expiration_date %q is not a date", sheetRow, raw))
				continue
			}
			in.ExpirationDate = &exp
		}
		inputs = append(inputs, in)
	}

	if len(problems) > 0 {
		return nil, domain.NewValidationError("some rows could not be read: " + strings.Join(problems, "; "))
	}
	if len(inputs) == 0 {
		return nil, domain.NewValidationError("workbook contains no coupon rows")
	}
	return inputs, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}
	return index
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseAmount accepts whole numbers, including the "10.0" form spreadsheets
// produce for numeric cells.
func parseAmount(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("is required")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return int(f), nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

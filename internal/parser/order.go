package parser

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/travelkb/kbuilder/internal/kb"
)

// ParseOrders reads a historical-orders file (.csv, .json, .xlsx, .xls)
// into an ordered slice of kb.Order. Missing numeric fields default to
// zero and missing strings to empty; an unsupported extension is an
// error for the whole file.
func ParseOrders(path string) ([]kb.Order, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseOrdersCSV(path)
	case ".json":
		return parseOrdersJSON(path)
	case ".xlsx", ".xls":
		return parseOrdersExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func parseOrdersCSV(path string) ([]kb.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	return ordersFromRows(rows[0], rows[1:]), nil
}

func parseOrdersExcel(path string) ([]kb.Order, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening excel %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}
	return ordersFromRows(rows[0], rows[1:]), nil
}

// ordersFromRows maps header names to columns and builds one order per
// data row, skipping fully empty rows.
func ordersFromRows(header []string, rows [][]string) []kb.Order {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var orders []kb.Order
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		orders = append(orders, kb.Order{
			OrderID:      cell(row, "order_id"),
			ProductName:  cell(row, "product_name"),
			Price:        parsePrice(cell(row, "price")),
			CustomerID:   cell(row, "customer_id"),
			Status:       cell(row, "status"),
			RefundReason: cell(row, "refund_reason"),
			CreatedAt:    cell(row, "created_at"),
		})
	}
	return orders
}

func parseOrdersJSON(path string) ([]kb.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing orders json %s: %w", path, err)
	}

	orders := make([]kb.Order, 0, len(items))
	for _, item := range items {
		orders = append(orders, kb.Order{
			OrderID:      asString(item["order_id"]),
			ProductName:  asString(item["product_name"]),
			Price:        asFloat(item["price"]),
			CustomerID:   asString(item["customer_id"]),
			Status:       asString(item["status"]),
			RefundReason: asString(item["refund_reason"]),
			CreatedAt:    asString(item["created_at"]),
		})
	}
	return orders, nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return parsePrice(n)
	default:
		return 0
	}
}

package parser

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/travelkb/kbuilder/internal/kb"
)

const ordersCSV = `order_id,product_name,price,customer_id,status,refund_reason,created_at
O001,巴厘岛7日游,8999,C001,completed,,2025-01-15
O002,东京5日游,6500,C002,refunded,行程有变,2025-01-16
,,,,,,
O003,巴厘岛7日游,,C003,completed,,2025-01-17
`

func TestParseOrdersCSV(t *testing.T) {
	path := writeFile(t, "orders.csv", []byte(ordersCSV))
	got, err := ParseOrders(path)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d orders, want 3 (empty row skipped)", len(got))
	}

	want := kb.Order{
		OrderID: "O001", ProductName: "巴厘岛7日游", Price: 8999,
		CustomerID: "C001", Status: "completed", CreatedAt: "2025-01-15",
	}
	if got[0] != want {
		t.Errorf("first order = %+v, want %+v", got[0], want)
	}
	if got[1].Status != kb.StatusRefunded || got[1].RefundReason != "行程有变" {
		t.Errorf("refunded order = %+v", got[1])
	}
	if got[2].Price != 0 {
		t.Errorf("missing price = %v, want 0", got[2].Price)
	}
}

func TestParseOrdersCSVHeaderCase(t *testing.T) {
	csv := "Order_ID,Product_Name,Price,Status\nO001,东京游,6500,completed\n"
	path := writeFile(t, "orders.csv", []byte(csv))
	got, err := ParseOrders(path)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if len(got) != 1 || got[0].OrderID != "O001" || got[0].Price != 6500 {
		t.Errorf("orders = %+v", got)
	}
}

func TestParseOrdersJSON(t *testing.T) {
	data := `[
  {"order_id": "O001", "product_name": "巴厘岛7日游", "price": 8999, "status": "completed"},
  {"order_id": "O002", "product_name": "东京5日游", "price": "6500", "status": "refunded", "refund_reason": "个人原因"},
  {"order_id": "O003"}
]`
	path := writeFile(t, "orders.json", []byte(data))
	got, err := ParseOrders(path)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d orders, want 3", len(got))
	}
	if got[0].Price != 8999 {
		t.Errorf("numeric price = %v", got[0].Price)
	}
	if got[1].Price != 6500 {
		t.Errorf("string price = %v, want coerced 6500", got[1].Price)
	}
	if got[2].ProductName != "" || got[2].Price != 0 {
		t.Errorf("sparse order = %+v, want zero-value fields", got[2])
	}
}

func TestParseOrdersExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"order_id", "product_name", "price", "status", "refund_reason"},
		{"O001", "巴厘岛7日游", 8999, "completed", ""},
		{"O002", "东京5日游", 6500, "refunded", "个人原因"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	got, err := ParseOrders(path)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d orders, want 2", len(got))
	}
	if got[0].OrderID != "O001" || got[0].Price != 8999 {
		t.Errorf("first order = %+v", got[0])
	}
	if got[1].RefundReason != "个人原因" {
		t.Errorf("refund reason = %q", got[1].RefundReason)
	}
}

func TestParseOrdersHeaderOnly(t *testing.T) {
	path := writeFile(t, "orders.csv", []byte("order_id,product_name\n"))
	got, err := ParseOrders(path)
	if err != nil {
		t.Fatalf("ParseOrders: %v", err)
	}
	if got != nil {
		t.Errorf("orders = %+v, want nil", got)
	}
}

func TestParseOrdersUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "orders.yaml", []byte("x"))
	_, err := ParseOrders(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

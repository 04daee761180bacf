// Package catalog loads the product catalog and order log from CSV files.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"think41-chat/db"
	"think41-chat/metrics"
	"think41-chat/utils"
)

// Writer is the catalog store as seen by the importer
type Writer interface {
	ReplaceProducts(ctx context.Context, products []*db.Product) error
	AppendOrders(ctx context.Context, orders []*db.Order) error
}

var (
	productColumns = []string{"product_name", "category", "price", "stock_quantity"}
	orderColumns   = []string{"order_id", "product_id", "quantity", "order_date", "customer_id"}
)

// ParseError reports a malformed CSV row
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Importer writes CSV data into the catalog tables
type Importer struct {
	store Writer
	log   *utils.Logger
}

// NewImporter creates an importer
func NewImporter(store Writer, log *utils.Logger) *Importer {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Importer{store: store, log: log}
}

// ImportProducts replaces the product table with the rows in r.
// Nothing is written when any row fails to parse.
func (im *Importer) ImportProducts(ctx context.Context, r io.Reader) (int, error) {
	products, err := ParseProducts(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse products: %w", err)
	}
	if err := im.store.ReplaceProducts(ctx, products); err != nil {
		return 0, err
	}
	metrics.RecordImport("products", len(products))
	im.log.Info("replaced products with %d rows", len(products))
	return len(products), nil
}

// ImportOrders appends the rows in r to the order table.
// Nothing is written when any row fails to parse.
func (im *Importer) ImportOrders(ctx context.Context, r io.Reader) (int, error) {
	orders, err := ParseOrders(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse orders: %w", err)
	}
	if err := im.store.AppendOrders(ctx, orders); err != nil {
		return 0, err
	}
	metrics.RecordImport("orders", len(orders))
	im.log.Info("appended %d orders", len(orders))
	return len(orders), nil
}

// ImportProductsFile is ImportProducts on a file
func (im *Importer) ImportProductsFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open products file: %w", err)
	}
	defer f.Close()
	return im.ImportProducts(ctx, f)
}

// ImportOrdersFile is ImportOrders on a file
func (im *Importer) ImportOrdersFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer f.Close()
	return im.ImportOrders(ctx, f)
}

// ParseProducts reads product rows. product_id is optional; extra columns are ignored.
func ParseProducts(r io.Reader) ([]*db.Product, error) {
	products := []*db.Product{}
	err := readRows(r, productColumns, func(row *row) error {
		p := &db.Product{
			ProductName: row.str("product_name"),
			Category:    row.str("category"),
		}
		if p.ProductName == "" {
			return row.fail("product_name", errors.New("must not be empty"))
		}
		if row.has("product_id") && row.str("product_id") != "" {
			id, err := row.integer("product_id")
			if err != nil {
				return err
			}
			p.ProductID = &id
		}

		price, err := decimal.NewFromString(row.str("price"))
		if err != nil {
			return row.fail("price", err)
		}
		if price.IsNegative() {
			return row.fail("price", errors.New("must not be negative"))
		}
		p.Price = price

		if p.StockQuantity, err = row.integer("stock_quantity"); err != nil {
			return err
		}

		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ParseOrders reads order rows; extra columns are ignored.
func ParseOrders(r io.Reader) ([]*db.Order, error) {
	orders := []*db.Order{}
	err := readRows(r, orderColumns, func(row *row) error {
		o := &db.Order{
			OrderDate:  row.str("order_date"),
			CustomerID: row.str("customer_id"),
		}
		var err error
		if o.OrderID, err = row.integer("order_id"); err != nil {
			return err
		}
		if o.ProductID, err = row.integer("product_id"); err != nil {
			return err
		}
		if o.Quantity, err = row.integer("quantity"); err != nil {
			return err
		}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

type row struct {
	line    int
	index   map[string]int
	records []string
}

func (r *row) has(column string) bool {
	_, ok := r.index[column]
	return ok
}

func (r *row) str(column string) string {
	i, ok := r.index[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.records[i])
}

func (r *row) integer(column string) (int64, error) {
	v, err := strconv.ParseInt(r.str(column), 10, 64)
	if err != nil {
		return 0, r.fail(column, err)
	}
	return v, nil
}

func (r *row) fail(column string, err error) error {
	return &ParseError{Line: r.line, Column: column, Err: err}
}

// readRows maps the header row and calls fn for every data row
func readRows(r io.Reader, required []string, fn func(*row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err == io.EOF {
		return &ParseError{Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		index[name] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &ParseError{Line: 1, Err: fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}
	}

	for {
		records, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// csv.ParseError carries its own line number
			return err
		}
		line, _ := reader.FieldPos(0)
		if err := fn(&row{line: line, index: index, records: records}); err != nil {
			return err
		}
	}
}

package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"think41-chat/db"
)

const productsCSV = `product_id,product_name,category,price,stock_quantity,brand
1,Laptop,Electronics,999.50,3,Acme
2,"Mouse, wireless",Accessories,19.99,120,Acme
`

const ordersCSV = `order_id,product_id,quantity,order_date,customer_id
1001,1,2,2024-03-01,C42
1002,2,1,2024-03-02,C7
`

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestParseProducts(t *testing.T) {
	products, err := ParseProducts(strings.NewReader(productsCSV))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, int64(1), *products[0].ProductID)
	assert.Equal(t, "Laptop", products[0].ProductName)
	assert.Equal(t, "999.5", products[0].Price.String())
	assert.Equal(t, int64(3), products[0].StockQuantity)
	assert.Equal(t, "Mouse, wireless", products[1].ProductName)
}

func TestParseProducts_OptionalID(t *testing.T) {
	products, err := ParseProducts(strings.NewReader("\ufeffProduct_Name,Category,Price,Stock_Quantity\nDesk,Furniture,150,4\n"))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].ProductID)
	assert.Equal(t, "Desk", products[0].ProductName)
}

func TestParseProducts_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column string
	}{
		{"empty input", "", 1, ""},
		{"missing column", "product_name,category,price\nA,B,1\n", 1, ""},
		{"bad price", "product_name,category,price,stock_quantity\nA,B,1,1\nC,D,cheap,2\n", 3, "price"},
		{"negative price", "product_name,category,price,stock_quantity\nA,B,-1,1\n", 2, "price"},
		{"bad stock", "product_name,category,price,stock_quantity\nA,B,1,many\n", 2, "stock_quantity"},
		{"empty name", "product_name,category,price,stock_quantity\n ,B,1,1\n", 2, "product_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProducts(strings.NewReader(tt.input))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.column, pe.Column)
		})
	}
}

func TestParseOrders(t *testing.T) {
	orders, err := ParseOrders(strings.NewReader(ordersCSV))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, db.Order{OrderID: 1001, ProductID: 1, Quantity: 2, OrderDate: "2024-03-01", CustomerID: "C42"}, *orders[0])

	_, err = ParseOrders(strings.NewReader("order_id,product_id,quantity,order_date,customer_id\nx,1,1,2024-01-01,C\n"))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "order_id", pe.Column)
}

func TestImporter_ReplacesProductsAndAppendsOrders(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	im := NewImporter(database, nil)

	for i := 0; i < 2; i++ {
		n, err := im.ImportProducts(ctx, strings.NewReader(productsCSV))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = im.ImportOrders(ctx, strings.NewReader(ordersCSV))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	products, err := database.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2, "products are replaced")
	assert.Equal(t, "19.99", products[1].Price.StringFixed(2))

	orders, err := database.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 4, "orders are appended")
}

func TestImporter_ParseErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	im := NewImporter(database, nil)

	_, err := im.ImportProducts(ctx, strings.NewReader(productsCSV))
	require.NoError(t, err)

	_, err = im.ImportProducts(ctx, strings.NewReader("product_name,category,price,stock_quantity\nA,B,1,1\nC,D,x,1\n"))
	require.Error(t, err)

	products, err := database.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2, "previous catalog is kept")
}

func TestImporter_Files(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(productsPath, []byte(productsCSV), 0600))

	im := NewImporter(newTestDB(t), nil)
	n, err := im.ImportProductsFile(ctx, productsPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = im.ImportOrdersFile(ctx, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"think41-chat/catalog"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the product catalog and order log from CSV",
	Long: `Load products and orders from CSV files.

Products replace the whole catalog; orders are appended to the log.
A file with a single malformed row is rejected without writing anything.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("products", "", "Products CSV (product_id, product_name, category, price, stock_quantity)")
	importCmd.Flags().String("orders", "", "Orders CSV (order_id, customer_id, product_id, quantity, order_date)")
}

func runImport(cmd *cobra.Command, args []string) error {
	productsPath, _ := cmd.Flags().GetString("products")
	ordersPath, _ := cmd.Flags().GetString("orders")
	if productsPath == "" && ordersPath == "" {
		return errors.New("nothing to import: pass --products and/or --orders")
	}

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	importer := catalog.NewImporter(rt.db, rt.logger)
	ctx := cmd.Context()

	if productsPath != "" {
		n, err := importer.ImportProductsFile(ctx, productsPath)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d products from %s\n", n, productsPath)
	}
	if ordersPath != "" {
		n, err := importer.ImportOrdersFile(ctx, ordersPath)
		if err != nil {
			return fmt.Errorf("orders: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d orders from %s\n", n, ordersPath)
	}
	return nil
}

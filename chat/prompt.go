package chat

import (
	"fmt"
	"strings"

	"think41-chat/db"
	"think41-chat/llm"
)

// SystemInstruction is the fixed first turn of every request
const SystemInstruction = "You are a helpful AI assistant for an e-commerce store named Think41. " +
	"Your primary goal is to answer questions about products and orders. " +
	"You have access to product data (like name, price, stock) and order data. " +
	"If a user asks about product details, try to find it in the provided product information. " +
	"If a user asks about an order, state that you can look up order details if they provide an order ID. " +
	"Be concise and professional. If you don't know the answer based on available data, say so."

const (
	catalogPreamble = "Here is the current database information:\n\n"
	productsHeader  = "Available Products (Name, Category, Price, Stock):\n"
	ordersHeader    = "Recent Orders (Order ID, Product ID, Quantity, Date, Customer ID):\n"
)

// BuildTurns assembles the turns sent to the completion service: the system
// instruction, the history in the order given, then the whole catalog as a
// second system turn. History senders are passed through unchanged.
//
// The catalog is not truncated or filtered, so prompt size grows with it.
func BuildTurns(history []*db.Message, products []*db.Product, orders []*db.Order) []llm.Message {
	turns := make([]llm.Message, 0, len(history)+2)
	turns = append(turns, llm.Message{Role: llm.RoleSystem, Content: SystemInstruction})

	for _, m := range history {
		turns = append(turns, llm.Message{Role: string(m.Sender), Content: m.Content})
	}

	turns = append(turns, llm.Message{
		Role:    llm.RoleSystem,
		Content: catalogPreamble + FormatProducts(products) + "\n\n" + FormatOrders(orders),
	})
	return turns
}

// FormatProducts renders the product block of the catalog turn
func FormatProducts(products []*db.Product) string {
	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s (%s): $%s, Stock: %d",
			p.ProductName, p.Category, p.Price.StringFixed(2), p.StockQuantity))
	}
	return productsHeader + strings.Join(lines, "\n")
}

// FormatOrders renders the order block of the catalog turn
func FormatOrders(orders []*db.Order) string {
	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("- Order %d: Product %d x%d on %s for Customer %s",
			o.OrderID, o.ProductID, o.Quantity, o.OrderDate, o.CustomerID))
	}
	return ordersHeader + strings.Join(lines, "\n")
}

// Title derives a conversation title from the first user message
func Title(message string) string {
	// Trim whitespace
	title := strings.TrimSpace(message)

	// Only the first line
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	// Remove surrounding quotes (single or double)
	title = strings.TrimSpace(strings.Trim(title, "\"'"))

	// Limit length to reasonable size
	if runes := []rune(title); len(runes) > 100 {
		title = string(runes[:100]) + "..."
	}

	if title == "" {
		title = "New Chat"
	}
	return title
}

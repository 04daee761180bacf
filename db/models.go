package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is one of the two stored sender values
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// User owns conversations
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Conversation represents a chat thread owned by one user
type Conversation struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	StartTime   time.Time `json:"start_time"`
	LastUpdated time.Time `json:"last_updated"`
	Title       string    `json:"title"`
}

// Message represents a single message in a conversation
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	Content        string    `json:"content"`
	Model          string    `json:"model,omitempty"`
	TokensUsed     int       `json:"tokens_used,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessage carries the fields accepted by AppendMessage
type NewMessage struct {
	ConversationID int64
	Sender         Sender
	Content        string
	Model          string
	TokensUsed     int
}

// Product is a catalog row
type Product struct {
	ProductID     *int64          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
}

// Order is an order log row. ProductID is not enforced against products.
type Order struct {
	OrderID    int64  `json:"order_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int64  `json:"quantity"`
	OrderDate  string `json:"order_date"`
	CustomerID string `json:"customer_id"`
}

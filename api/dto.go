package api

import (
	"time"

	"think41-chat/db"
)

// ChatRequest is the body of POST /api/chat/
type ChatRequest struct {
	UserMessage    string `json:"user_message" binding:"required"`
	ConversationID *int64 `json:"conversation_id"`
}

// ChatResponse is returned for every completed turn, including apology replies
type ChatResponse struct {
	AIResponse     string `json:"ai_response"`
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ProductResponse is one catalog row. Price is rendered as a JSON number.
type ProductResponse struct {
	ProductID     *int64  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
}

// ProductsResponse is the body of GET /products/
type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

// OrdersResponse is the body of GET /orders/
type OrdersResponse struct {
	Orders []*db.Order `json:"orders"`
}

// ConversationResponse summarizes a conversation
type ConversationResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	LastUpdated time.Time `json:"last_updated"`
}

// ConversationsResponse is the body of GET /api/conversations/
type ConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

// MessagesResponse is the body of GET /api/conversations/:id/messages
type MessagesResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []*db.Message        `json:"messages"`
}

func toProductResponses(products []*db.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			Category:      p.Category,
			Price:         p.Price.InexactFloat64(),
			StockQuantity: p.StockQuantity,
		})
	}
	return out
}

func toConversationResponse(c *db.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:          c.ID,
		Title:       c.Title,
		StartTime:   c.StartTime,
		LastUpdated: c.LastUpdated,
	}
}

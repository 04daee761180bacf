package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"think41-chat/db"
	"think41-chat/llm"
	"think41-chat/utils"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestService(t *testing.T, store Store, provider llm.Provider) *Service {
	t.Helper()
	return NewService(store, provider, utils.NopLogger(), Config{DefaultUsername: "default_user", HistoryLimit: 5})
}

func int64Ptr(v int64) *int64 { return &v }

func seedCatalog(t *testing.T, database *db.DB) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, database.ReplaceProducts(ctx, []*db.Product{
		{ProductID: int64Ptr(1), ProductName: "Laptop", Category: "Electronics", Price: decimal.RequireFromString("999.5"), StockQuantity: 3},
		{ProductID: int64Ptr(2), ProductName: "Mouse", Category: "Accessories", Price: decimal.RequireFromString("19.99"), StockQuantity: 120},
	}))
	require.NoError(t, database.AppendOrders(ctx, []*db.Order{
		{OrderID: 1001, ProductID: 1, Quantity: 2, OrderDate: "2024-03-01", CustomerID: "C42"},
	}))
}

func TestBuildTurns(t *testing.T) {
	history := []*db.Message{
		{Sender: db.SenderUser, Content: "hi"},
		{Sender: db.SenderAI, Content: "hello"},
		{Sender: db.SenderUser, Content: "How many laptops?"},
	}
	products := []*db.Product{
		{ProductName: "Laptop", Category: "Electronics", Price: decimal.RequireFromString("999.5"), StockQuantity: 3},
	}
	orders := []*db.Order{
		{OrderID: 1001, ProductID: 1, Quantity: 2, OrderDate: "2024-03-01", CustomerID: "C42"},
	}

	turns := BuildTurns(history, products, orders)
	require.Len(t, turns, 5)

	assert.Equal(t, llm.Message{Role: "system", Content: SystemInstruction}, turns[0])
	assert.Equal(t, llm.Message{Role: "user", Content: "hi"}, turns[1])
	assert.Equal(t, llm.Message{Role: "ai", Content: "hello"}, turns[2])
	assert.Equal(t, llm.Message{Role: "user", Content: "How many laptops?"}, turns[3])

	want := "Here is the current database information:\n\n" +
		"Available Products (Name, Category, Price, Stock):\n" +
		"- Laptop (Electronics): $999.50, Stock: 3\n\n" +
		"Recent Orders (Order ID, Product ID, Quantity, Date, Customer ID):\n" +
		"- Order 1001: Product 1 x2 on 2024-03-01 for Customer C42"
	assert.Equal(t, llm.Message{Role: "system", Content: want}, turns[4])
}

func TestBuildTurns_EmptyInputs(t *testing.T) {
	turns := BuildTurns(nil, nil, nil)
	require.Len(t, turns, 2)
	assert.Equal(t, "Here is the current database information:\n\n"+
		"Available Products (Name, Category, Price, Stock):\n\n\n"+
		"Recent Orders (Order ID, Product ID, Quantity, Date, Customer ID):\n", turns[1].Content)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  How many laptops?  ", "How many laptops?"},
		{`"quoted"`, "quoted"},
		{"first line\nsecond line", "first line"},
		{"   ", "New Chat"},
		{strings.Repeat("é", 120), strings.Repeat("é", 100) + "..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Title(tt.in))
	}
}

// Fresh conversation: new ids, both rows persisted, reply returned verbatim.
func TestTurn_NewConversation(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	seedCatalog(t, database)
	provider := llm.NewMockProvider("We have 3 laptops in stock.")
	provider.TokensUsed = 42
	svc := newTestService(t, database, provider)

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "How many laptops?"})
	require.NoError(t, err)

	assert.Equal(t, "We have 3 laptops in stock.", out.AIResponse)
	assert.True(t, out.NewConversation)
	assert.NoError(t, out.CompletionErr)

	msgs, err := database.ListMessages(ctx, out.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, db.SenderUser, msgs[0].Sender)
	assert.Equal(t, "How many laptops?", msgs[0].Content)
	assert.Equal(t, db.SenderAI, msgs[1].Sender)
	assert.Equal(t, out.MessageID, msgs[1].ID)
	assert.Equal(t, "mock", msgs[1].Model)
	assert.Equal(t, 42, msgs[1].TokensUsed)

	conv, err := database.GetConversation(ctx, out.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "How many laptops?", conv.Title)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 3)
	assert.Equal(t, "How many laptops?", calls[0][1].Content)
	assert.Contains(t, calls[0][2].Content, "- Laptop (Electronics): $999.50, Stock: 3")
}

// Completion failure: the turn still succeeds and the apology is stored.
func TestTurn_CompletionFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	provider := llm.NewMockProvider("")
	provider.Err = context.DeadlineExceeded
	svc := newTestService(t, database, provider)

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "hello?"})
	require.NoError(t, err)

	assert.True(t, llm.IsApology(out.AIResponse))
	assert.Contains(t, out.AIResponse, "Sorry, I'm having trouble connecting to the AI at the moment.")
	assert.Equal(t, llm.KindTransport, llm.KindOf(out.CompletionErr))

	msgs, err := database.ListMessages(ctx, out.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, db.SenderUser, msgs[0].Sender)
	assert.Equal(t, db.SenderAI, msgs[1].Sender)
	assert.Equal(t, out.AIResponse, msgs[1].Content)
	assert.Equal(t, 0, msgs[1].TokensUsed)
}

// Continuation: only the five newest messages reach the provider, oldest first.
func TestTurn_ContinuationUsesWindow(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	provider := llm.NewMockProvider("ok")
	svc := newTestService(t, database, provider)

	first, err := svc.Turn(ctx, TurnInput{UserMessage: "m1"})
	require.NoError(t, err)
	// m1, ok, then m2..m6 as user rows: seven stored rows
	for i := 2; i <= 6; i++ {
		_, err := database.AppendMessage(ctx, db.NewMessage{ConversationID: first.ConversationID, Sender: db.SenderUser, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "latest", ConversationID: &first.ConversationID})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, out.ConversationID)
	assert.False(t, out.NewConversation)

	calls := provider.Calls()
	require.Len(t, calls, 2)
	turns := calls[1]
	require.Len(t, turns, 7)
	assert.Equal(t, llm.RoleSystem, turns[0].Role)
	var window []string
	for _, m := range turns[1:6] {
		window = append(window, m.Content)
	}
	assert.Equal(t, []string{"m3", "m4", "m5", "m6", "latest"}, window)
	assert.Equal(t, llm.RoleSystem, turns[6].Role)

	count, err := database.CountMessages(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), count)

	conv, err := database.GetConversation(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "m1", conv.Title, "title is only set on creation")
}

func TestTurn_UnknownConversationStartsNewOne(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	svc := newTestService(t, database, llm.NewMockProvider("ok"))

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "hi", ConversationID: int64Ptr(999)})
	require.NoError(t, err)
	assert.True(t, out.NewConversation)
	assert.NotEqual(t, int64(999), out.ConversationID)
}

func TestTurn_ForeignConversationStartsNewOne(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	otherID, err := database.EnsureUser(ctx, "someone_else")
	require.NoError(t, err)
	foreign, err := database.CreateConversation(ctx, otherID)
	require.NoError(t, err)

	svc := newTestService(t, database, llm.NewMockProvider("ok"))
	out, err := svc.Turn(ctx, TurnInput{UserMessage: "hi", ConversationID: &foreign.ID})
	require.NoError(t, err)
	assert.True(t, out.NewConversation)
	assert.NotEqual(t, foreign.ID, out.ConversationID)

	count, err := database.CountMessages(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTurn_EmptyMessage(t *testing.T) {
	database := newTestDB(t)
	provider := llm.NewMockProvider("ok")
	svc := newTestService(t, database, provider)

	_, err := svc.Turn(context.Background(), TurnInput{UserMessage: "  \n"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, provider.Calls())
}

type failingStore struct {
	*db.DB
	err error
}

func (s *failingStore) ListProducts(ctx context.Context) ([]*db.Product, error) {
	return nil, s.err
}

func TestTurn_StoreFailureAborts(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	boom := errors.New("disk I/O error")
	provider := llm.NewMockProvider("ok")
	svc := newTestService(t, &failingStore{DB: database, err: boom}, provider)

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "hi"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsValidationError(err))
	assert.Empty(t, provider.Calls(), "no completion after a store failure")
}

func TestHistoryAndExport(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	svc := newTestService(t, database, llm.NewMockProvider("answer"))

	out, err := svc.Turn(ctx, TurnInput{UserMessage: "question"})
	require.NoError(t, err)

	conv, msgs, err := svc.History(ctx, out.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, out.ConversationID, conv.ID)
	require.Len(t, msgs, 2)

	export, err := svc.Export(ctx, out.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "question", export.Title)
	require.Len(t, export.Messages, 2)
	assert.Equal(t, "answer", export.Messages[1].Content)

	_, _, err = svc.History(ctx, 12345)
	assert.True(t, IsNotFound(err))
}

func TestConversations(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	svc := newTestService(t, database, llm.NewMockProvider("ok"))

	for i := 0; i < 3; i++ {
		_, err := svc.Turn(ctx, TurnInput{UserMessage: fmt.Sprintf("q%d", i)})
		require.NoError(t, err)
	}

	convs, err := svc.Conversations(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "q2", convs[0].Title)

	page, err := svc.Conversations(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "q1", page[0].Title)

	_, err = svc.Conversations(ctx, 1000, 0)
	assert.True(t, IsValidationError(err))
	_, err = svc.Conversations(ctx, 10, -1)
	assert.True(t, IsValidationError(err))
}

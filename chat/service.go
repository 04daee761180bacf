package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"think41-chat/db"
	"think41-chat/llm"
	"think41-chat/metrics"
	"think41-chat/utils"
)

// Store is the persistence the chat workflow needs
type Store interface {
	EnsureUser(ctx context.Context, username string) (int64, error)
	ResolveConversation(ctx context.Context, userID int64, requestedID *int64) (*db.Conversation, bool, error)
	GetUserConversation(ctx context.Context, id, userID int64) (*db.Conversation, error)
	ListConversations(ctx context.Context, userID int64, limit, offset int) ([]*db.Conversation, error)
	SetConversationTitle(ctx context.Context, id int64, title string) error
	AppendMessage(ctx context.Context, in db.NewMessage) (*db.Message, error)
	RecentMessages(ctx context.Context, conversationID int64, limit int) ([]*db.Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]*db.Message, error)
	ListProducts(ctx context.Context) ([]*db.Product, error)
	ListOrders(ctx context.Context) ([]*db.Order, error)
}

// Config holds the turn settings
type Config struct {
	DefaultUsername string
	HistoryLimit    int
}

// Turn outcomes recorded in metrics
const (
	outcomeOK      = "ok"
	outcomeApology = "apology"
	outcomeError   = "error"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service runs chat turns for the single default user
type Service struct {
	store    Store
	provider llm.Provider
	log      *utils.Logger
	cfg      Config
	now      func() time.Time
}

// NewService creates a chat service
func NewService(store Store, provider llm.Provider, log *utils.Logger, cfg Config) *Service {
	if cfg.DefaultUsername == "" {
		cfg.DefaultUsername = "default_user"
	}
	if log == nil {
		log = utils.NopLogger()
	}
	return &Service{
		store:    store,
		provider: provider,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// TurnInput is one inbound chat message
type TurnInput struct {
	UserMessage    string
	ConversationID *int64
}

// TurnOutput is the result of a completed turn
type TurnOutput struct {
	AIResponse      string
	ConversationID  int64
	MessageID       int64 // id of the stored "ai" message
	NewConversation bool

	// CompletionErr is set when the reply is an apology. The turn itself
	// still succeeded.
	CompletionErr error
}

// Turn stores the user message, asks the completion service for a reply and
// stores that reply. Completion failures become an apology reply; store
// failures abort the turn and are returned.
func (s *Service) Turn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	if strings.TrimSpace(in.UserMessage) == "" {
		return nil, NewValidationError("user_message", "must not be empty")
	}

	out, err := s.turn(ctx, in)
	if err != nil {
		metrics.RecordTurn(outcomeError)
		s.log.Error("chat turn failed: %v", err)
		return nil, err
	}
	if out.CompletionErr != nil {
		metrics.RecordTurn(outcomeApology)
	} else {
		metrics.RecordTurn(outcomeOK)
	}
	return out, nil
}

func (s *Service) turn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	userID, err := s.store.EnsureUser(ctx, s.cfg.DefaultUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	conv, created, err := s.store.ResolveConversation(ctx, userID, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	if created {
		reason := "requested"
		if in.ConversationID != nil {
			reason = "fallback"
			s.log.Warn("conversation %d not found for user %d, started conversation %d", *in.ConversationID, userID, conv.ID)
		} else {
			s.log.Info("started conversation %d", conv.ID)
		}
		metrics.RecordConversationCreated(reason)

		if err := s.store.SetConversationTitle(ctx, conv.ID, Title(in.UserMessage)); err != nil {
			return nil, fmt.Errorf("failed to set conversation title: %w", err)
		}
	} else {
		s.log.Debug("continuing conversation %d", conv.ID)
	}

	if _, err := s.store.AppendMessage(ctx, db.NewMessage{
		ConversationID: conv.ID,
		Sender:         db.SenderUser,
		Content:        in.UserMessage,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	// the window includes the message just stored
	history, err := s.store.RecentMessages(ctx, conv.ID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	reply, completionErr := s.complete(ctx, BuildTurns(history, products, orders))

	aiMsg, err := s.store.AppendMessage(ctx, db.NewMessage{
		ConversationID: conv.ID,
		Sender:         db.SenderAI,
		Content:        reply.Content,
		Model:          reply.Model,
		TokensUsed:     reply.TokensUsed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save ai message: %w", err)
	}

	return &TurnOutput{
		AIResponse:      aiMsg.Content,
		ConversationID:  conv.ID,
		MessageID:       aiMsg.ID,
		NewConversation: created,
		CompletionErr:   completionErr,
	}, nil
}

// complete never fails: errors are folded into an apology completion
func (s *Service) complete(ctx context.Context, turns []llm.Message) (*llm.Completion, error) {
	start := time.Now()
	completion, err := s.provider.Chat(ctx, turns)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		kind := llm.KindOf(err)
		metrics.RecordCompletionFailure(string(kind), elapsed)
		s.log.Error("completion failed (%s) after %.2fs: %v", kind, elapsed, err)
		return &llm.Completion{Content: llm.Apology(err)}, err
	}

	metrics.RecordCompletion(completion.Model, completion.TokensUsed, elapsed)
	s.log.Debug("completion from %s: %d tokens in %.2fs", completion.Model, completion.TokensUsed, elapsed)
	return completion, nil
}

// Conversations lists the default user's conversations, most recent first
func (s *Service) Conversations(ctx context.Context, limit, offset int) ([]*db.Conversation, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 0 || limit > MaxPageSize {
		return nil, NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	if offset < 0 {
		return nil, NewValidationError("offset", "must not be negative")
	}

	userID, err := s.store.EnsureUser(ctx, s.cfg.DefaultUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return s.store.ListConversations(ctx, userID, limit, offset)
}

// History returns a conversation of the default user with all its messages.
// Conversations of other users are reported as db.ErrNotFound.
func (s *Service) History(ctx context.Context, conversationID int64) (*db.Conversation, []*db.Message, error) {
	userID, err := s.store.EnsureUser(ctx, s.cfg.DefaultUsername)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	conv, err := s.store.GetUserConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, messages, nil
}

// Export builds the export document of a conversation
func (s *Service) Export(ctx context.Context, conversationID int64) (*utils.ConversationExport, error) {
	conv, messages, err := s.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return utils.NewConversationExport(conv, messages, s.now().UTC()), nil
}

// Products returns the product catalog in load order
func (s *Service) Products(ctx context.Context) ([]*db.Product, error) {
	return s.store.ListProducts(ctx)
}

// Orders returns the order log in load order
func (s *Service) Orders(ctx context.Context) ([]*db.Order, error) {
	return s.store.ListOrders(ctx)
}

// IsNotFound reports whether err means the requested row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"think41-chat/chat"
	"think41-chat/utils"
)

func (s *HttpServer) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Conversational AI Backend!"})
}

func (s *HttpServer) handleProducts(c *gin.Context) {
	products, err := s.chat.Products(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProductsResponse{Products: toProductResponses(products)})
}

func (s *HttpServer) handleOrders(c *gin.Context) {
	orders, err := s.chat.Orders(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, OrdersResponse{Orders: orders})
}

// handleChat runs one turn. Completion failures still answer 200 with the
// apology text; only store failures produce a 500.
func (s *HttpServer) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	out, err := s.chat.Turn(c.Request.Context(), chat.TurnInput{
		UserMessage:    req.UserMessage,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if out.CompletionErr != nil {
		_ = c.Error(out.CompletionErr)
	}

	c.JSON(http.StatusOK, ChatResponse{
		AIResponse:     out.AIResponse,
		ConversationID: out.ConversationID,
		MessageID:      out.MessageID,
	})
}

func (s *HttpServer) handleListConversations(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	if limit == 0 {
		limit = chat.DefaultPageSize
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}

	convs, err := s.chat.Conversations(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := ConversationsResponse{
		Conversations: make([]ConversationResponse, 0, len(convs)),
		Limit:         limit,
		Offset:        offset,
	}
	for _, conv := range convs {
		resp.Conversations = append(resp.Conversations, toConversationResponse(conv))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HttpServer) handleMessages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	conv, messages, err := s.chat.History(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessagesResponse{
		Conversation: toConversationResponse(conv),
		Messages:     messages,
	})
}

func (s *HttpServer) handleExport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	format, err := utils.ParseExportFormat(c.Query("format"))
	if err != nil {
		badRequest(c, "format", err.Error())
		return
	}

	export, err := s.chat.Export(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	filename := utils.GenerateExportFilename(export.Title, format, time.Now())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := utils.WriteExport(c.Writer, export, format); err != nil {
		_ = c.Error(err)
	}
}

func (s *HttpServer) handleReady(c *gin.Context) {
	status, err := s.health.Health(c.Request.Context())
	if err != nil {
		s.log.Warn("readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "database": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "database": status})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id", "must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, 0 when absent
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name, "must be an integer")
		return 0, false
	}
	return v, true
}

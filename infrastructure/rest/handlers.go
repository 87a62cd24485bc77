package rest

import (
	"casechat/auth"
	"casechat/domain"
	"casechat/errors"
	"casechat/projection"
	"casechat/repositories"
	"casechat/search"
	"casechat/services"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type Handler struct {
	log         *slog.Logger
	authService services.IAuthService
	router      services.IMessageRouter
	receipts    *services.ReadReceipts
	aggregator  *projection.Aggregator
	index       *search.MessageIndex
	users       repositories.IUserRepository
}

func NewHandler(log *slog.Logger, authService services.IAuthService,
	router services.IMessageRouter, receipts *services.ReadReceipts,
	aggregator *projection.Aggregator, index *search.MessageIndex,
	users repositories.IUserRepository) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		router:      router,
		receipts:    receipts,
		aggregator:  aggregator,
		index:       index,
		users:       users,
	}
}

type messageResponse struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	ReceiverID   string    `json:"receiverId"`
	ReceiverName string    `json:"receiverName"`
	CreatedAt    time.Time `json:"createdAt"`
	Read         bool      `json:"read"`
	IsOwnMessage bool      `json:"isOwnMessage"`
}

type conversationResponse struct {
	UserID          string      `json:"userId"`
	UserName        string      `json:"userName"`
	UserRole        domain.Role `json:"userRole"`
	LastMessage     string      `json:"lastMessage"`
	LastMessageTime time.Time   `json:"lastMessageTime"`
	UnreadCount     int         `json:"unreadCount"`
}

func (h *Handler) handleRegister(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "malformed body",
		})
	}
	token, user, err := h.authService.Register(req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    userResponse(user),
	})
}

func (h *Handler) handleLogin(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "malformed body",
		})
	}
	if err := auth.ValidateLogin(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "email and password are required",
		})
	}
	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    userResponse(user),
	})
}

// handleListMessages returns every message of the caller, both
// directions, chronological.
func (h *Handler) handleListMessages(c *fiber.Ctx) error {
	caller := callerFrom(c)
	messages, err := h.aggregator.ListAllFor(caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.toResponses(caller, messages))
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

func (h *Handler) handleSendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "malformed body",
		})
	}
	caller := callerFrom(c)
	routed, err := h.router.Send(c.UserContext(), caller, req.ReceiverID, req.Content)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(messageResponse{
		ID:           routed.Message.ID.String(),
		Content:      routed.Message.Content,
		SenderID:     routed.Message.SenderID,
		SenderName:   routed.SenderName,
		ReceiverID:   routed.Message.ReceiverID,
		ReceiverName: routed.ReceiverName,
		CreatedAt:    routed.Message.CreatedAt,
		Read:         routed.Message.Read,
		IsOwnMessage: true,
	})
}

// handleListMessagesWith returns the conversation with one counterparty.
// Opening a conversation marks its unread messages read first, so the
// returned list and the sender's messages_read notification agree.
func (h *Handler) handleListMessagesWith(c *fiber.Ctx) error {
	caller := callerFrom(c)
	counterpartyID := c.Params("userId")

	// Authorization first: a rejected request must not flip read flags
	// or push messages_read to the counterparty.
	if err := h.aggregator.EnsureCounterparty(caller, counterpartyID); err != nil {
		return h.fail(c, err)
	}
	if err := h.receipts.MarkRead(c.UserContext(), caller, counterpartyID); err != nil {
		return h.fail(c, err)
	}
	messages, err := h.aggregator.ListMessagesWith(caller, counterpartyID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(h.toResponses(caller, messages))
}

func (h *Handler) handleListConversations(c *fiber.Ctx) error {
	caller := callerFrom(c)
	conversations, err := h.aggregator.ListConversations(caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(lo.Map(conversations, func(conv domain.Conversation, _ int) conversationResponse {
		return conversationResponse{
			UserID:          conv.CounterpartyID,
			UserName:        conv.CounterpartyName,
			UserRole:        conv.CounterpartyRole,
			LastMessage:     conv.LastMessage,
			LastMessageTime: conv.LastMessageTime,
			UnreadCount:     conv.UnreadCount,
		}
	}))
}

func (h *Handler) handleUnreadCount(c *fiber.Ctx) error {
	caller := callerFrom(c)
	count, err := h.receipts.TotalUnreadFor(caller.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) handleSearch(c *fiber.Ctx) error {
	caller := callerFrom(c)
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false, "error": "query parameter q is required",
		})
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	matches, err := h.index.Search(c.UserContext(), caller.ID, query, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    matches,
	})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := errors.MapToHTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error("Request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"kind":    errors.Kind(err),
		"error":   err.Error(),
	})
}

// toResponses maps messages to the wire shape, resolving display names
// once per distinct user.
func (h *Handler) toResponses(caller domain.User, messages []domain.Message) []messageResponse {
	names := map[string]string{caller.ID: caller.DisplayName}
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := ""
		if user, err := h.users.GetUserByID(id); err == nil {
			name = user.DisplayName
		}
		names[id] = name
		return name
	}

	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return messageResponse{
			ID:           m.ID.String(),
			Content:      m.Content,
			SenderID:     m.SenderID,
			SenderName:   resolve(m.SenderID),
			ReceiverID:   m.ReceiverID,
			ReceiverName: resolve(m.ReceiverID),
			CreatedAt:    m.CreatedAt,
			Read:         m.Read,
			IsOwnMessage: m.SenderID == caller.ID,
		}
	})
}

func callerFrom(c *fiber.Ctx) domain.User {
	claims := ClaimsFrom(c)
	return domain.User{
		ID:          claims.UserID,
		Role:        claims.Role,
		DisplayName: claims.DisplayName,
	}
}

func userResponse(user domain.User) fiber.Map {
	return fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"role":        user.Role,
	}
}

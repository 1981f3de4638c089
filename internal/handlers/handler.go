package handlers

import (
	"context"
	"log"

	"github.com/ad/go-telegram-recipes/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// CallbackAnswerer acknowledges a button press.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type BotHandler struct {
	router       *Router
	answerer     CallbackAnswerer
	queue        *services.ChatQueue
	errorManager *services.ErrorManager
}

func NewBotHandler(
	router *Router,
	answerer CallbackAnswerer,
	queue *services.ChatQueue,
	errorManager *services.ErrorManager,
) *BotHandler {
	return &BotHandler{
		router:       router,
		answerer:     answerer,
		queue:        queue,
		errorManager: errorManager,
	}
}

// HandleUpdate queues the update behind earlier updates of the same chat.
// Chats are handled independently of each other.
func (h *BotHandler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	chatID, ok := updateChatID(update)
	if !ok {
		return
	}
	h.queue.Enqueue(chatID, func() {
		defer h.recoverPanic(ctx, update)
		h.process(ctx, update)
	})
}

func (h *BotHandler) process(ctx context.Context, update *tgmodels.Update) {
	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *BotHandler) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		h.errorManager.NotifyAdmin(ctx, r, update)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgmodels.Message) {
	if msg.Text == "" {
		return
	}
	if err := h.router.HandleCommand(ctx, msg.Chat.ID, msg.Text); err != nil {
		log.Printf("[MSG] chat %d: %v", msg.Chat.ID, err)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, callback *tgmodels.CallbackQuery) {
	chatID, messageID, ok := callbackTarget(callback)
	if !ok {
		_ = h.answerer.AnswerCallback(ctx, callback.ID, NoticeUnknown)
		return
	}

	res := h.router.HandleCallback(ctx, chatID, messageID, callback.Data)
	log.Printf("[CALLBACK] chat %d data=%q policy=%s", chatID, callback.Data, res.Policy)
	_ = h.answerer.AnswerCallback(ctx, callback.ID, res.Ack)
}

func updateChatID(update *tgmodels.Update) (int64, bool) {
	switch {
	case update == nil:
		return 0, false
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil:
		if chatID, _, ok := callbackTarget(update.CallbackQuery); ok {
			return chatID, true
		}
		return update.CallbackQuery.From.ID, true
	}
	return 0, false
}

func callbackTarget(callback *tgmodels.CallbackQuery) (int64, int, bool) {
	switch {
	case callback.Message.Message != nil:
		return callback.Message.Message.Chat.ID, callback.Message.Message.ID, true
	case callback.Message.InaccessibleMessage != nil:
		return callback.Message.InaccessibleMessage.Chat.ID, callback.Message.InaccessibleMessage.MessageID, true
	}
	return 0, 0, false
}

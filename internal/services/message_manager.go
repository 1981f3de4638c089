package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// TelegramAPI is the part of *bot.Bot the managers use.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*tgmodels.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type MessageManager struct {
	api      TelegramAPI
	errMgr   *ErrorManager
	maxRetry int
}

func NewMessageManager(api TelegramAPI, errMgr *ErrorManager) *MessageManager {
	return &MessageManager{
		api:      api,
		errMgr:   errMgr,
		maxRetry: 2,
	}
}

func (m *MessageManager) SendText(ctx context.Context, chatID int64, text string, keyboard *tgmodels.InlineKeyboardMarkup) (int, error) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := m.SendWithRetry(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

func (m *MessageManager) SendImage(ctx context.Context, chatID int64, imageURL, caption string, keyboard *tgmodels.InlineKeyboardMarkup) (int, error) {
	params := &bot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &tgmodels.InputFileString{Data: imageURL},
		Caption:   caption,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := m.SendPhotoWithRetry(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// EditText replaces the text and keyboard of an existing message. Re-rendering
// identical content is not an error.
func (m *MessageManager) EditText(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgmodels.InlineKeyboardMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := m.api.EditMessageText(ctx, params)
	if err != nil && IsNotModified(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

func (m *MessageManager) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := m.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		log.Printf("[MSG] answer callback %s: %v", callbackID, err)
	}
	return err
}

func (m *MessageManager) SendWithRetry(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	var lastErr error
	for attempt := 0; attempt < m.maxRetry; attempt++ {
		msg, err := m.api.SendMessage(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	chatID, _ := params.ChatID.(int64)
	m.errMgr.NotifySendFailure(ctx, chatID, "sendMessage", params, lastErr)
	return nil, lastErr
}

func (m *MessageManager) SendPhotoWithRetry(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	var lastErr error
	for attempt := 0; attempt < m.maxRetry; attempt++ {
		msg, err := m.api.SendPhoto(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	chatID, _ := params.ChatID.(int64)
	m.errMgr.NotifySendFailure(ctx, chatID, "sendPhoto", params, lastErr)
	return nil, lastErr
}

func IsNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const maxAdminReport = 4000

type ErrorManager struct {
	api     TelegramAPI
	adminID int64
}

// NewErrorManager reports to adminID. With adminID 0 reports are only logged.
func NewErrorManager(api TelegramAPI, adminID int64) *ErrorManager {
	return &ErrorManager{
		api:     api,
		adminID: adminID,
	}
}

func (e *ErrorManager) NotifyAdmin(ctx context.Context, panicValue interface{}, update *models.Update) {
	msg := fmt.Sprintf("🚨 Panic in handler\nUser: %s\nAction: %s\nError: %v\n\nStack trace:\n%s",
		describeUser(update), describeAction(update), panicValue, string(debug.Stack()))
	e.report(ctx, msg)
}

func (e *ErrorManager) NotifySendFailure(ctx context.Context, chatID int64, method string, request interface{}, err error) {
	msg := fmt.Sprintf("❌ Failed to %s\nChat: [%d]\nError: %v\n\nCurl:\n%s",
		method, chatID, err, buildCurlCommand(method, request))
	e.report(ctx, msg)
}

func (e *ErrorManager) report(ctx context.Context, msg string) {
	if len(msg) > maxAdminReport {
		msg = msg[:maxAdminReport] + "\n... (truncated)"
	}
	log.Printf("[ERROR] %s", msg)

	if e == nil || e.api == nil || e.adminID == 0 {
		return
	}
	_, _ = e.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.adminID,
		Text:   msg,
	})
}

func describeUser(update *models.Update) string {
	var from *models.User
	switch {
	case update == nil:
	case update.Message != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	}
	if from == nil || from.ID == 0 {
		return "unknown"
	}

	info := fmt.Sprintf("[%d]", from.ID)
	if from.FirstName != "" {
		info = from.FirstName + " " + info
	}
	if from.Username != "" {
		info = info + " @" + from.Username
	}
	return info
}

func describeAction(update *models.Update) string {
	switch {
	case update == nil:
		return "unknown"
	case update.CallbackQuery != nil:
		return "callback " + update.CallbackQuery.Data
	case update.Message != nil:
		return "message " + TruncateRunes(update.Message.Text, 64)
	}
	return "unknown"
}

func buildCurlCommand(method string, request interface{}) string {
	jsonData, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return fmt.Sprintf("# Failed to serialize request: %v", err)
	}

	return fmt.Sprintf("curl -X POST 'https://api.telegram.org/bot[BOT_TOKEN]/%s' \\\n  -H 'Content-Type: application/json' \\\n  -d '%s'",
		method, string(jsonData))
}

// Package bot is the Telegram transport: it turns updates into dialog
// events and dialog responses into messages, keeping exactly one live
// prompt per chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/dialog"
	applog "kopilka/internal/log"
	"kopilka/internal/session"
)

// Sender is the part of tgbotapi.BotAPI the transport uses. Tests plug in
// a recording fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api      Sender
	machine  *dialog.Machine
	sessions *session.Store
}

func New(api Sender, machine *dialog.Machine, sessions *session.Store) *Bot {
	return &Bot{api: api, machine: machine, sessions: sessions}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Update loop stopped",
				applog.FieldComponent, applog.ComponentBot, "reason", ctx.Err())
			return
		case update, ok := <-updates:
			if !ok {
				slog.InfoContext(ctx, "Update channel closed",
					applog.FieldComponent, applog.ComponentBot)
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	var ev dialog.Event
	switch {
	case text == "/start" || text == "/menu":
		ev = dialog.MainMenu{}
	case text == "/cancel":
		ev = dialog.Cancel{}
	default:
		sess := b.sessions.Get(userID)
		switch sess.Step {
		case session.StepComment:
			ev = dialog.SubmitComment{Text: text}
		case session.StepAmount:
			ev = dialog.SubmitAmount{Text: text}
		default:
			// Free text outside a flow just re-opens the menu.
			ev = dialog.MainMenu{}
		}
	}

	resp, err := b.machine.Handle(ctx, userID, chatID, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			applog.FieldComponent, applog.ComponentBot,
			applog.FieldUserID, userID,
			applog.FieldError, err)
		return
	}
	// A user's own message always stays; the bot's previous prompt is
	// retired so only one prompt is live.
	resp.EditInPlace = false
	b.present(ctx, userID, chatID, resp)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID

	ev, err := dialog.ParseToken(cb.Data)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring malformed callback",
			applog.FieldComponent, applog.ComponentBot,
			applog.FieldOperation, applog.OpParse,
			applog.FieldUserID, userID,
			"data", cb.Data,
			applog.FieldError, err)
		b.answerCallback(ctx, cb.ID)
		return
	}

	if cb.Message == nil {
		b.answerCallback(ctx, cb.ID)
		return
	}
	chatID := cb.Message.Chat.ID

	// The pressed button's message is the live prompt.
	sess := b.sessions.Get(userID)
	sess.LastPromptID = cb.Message.MessageID

	resp, err := b.machine.Handle(ctx, userID, chatID, ev)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to handle callback",
			applog.FieldComponent, applog.ComponentBot,
			applog.FieldUserID, userID,
			"data", cb.Data,
			applog.FieldError, err)
		b.answerCallback(ctx, cb.ID)
		return
	}

	b.present(ctx, userID, chatID, resp)
	b.answerCallback(ctx, cb.ID)
}

func (b *Bot) answerCallback(ctx context.Context, id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		slog.WarnContext(ctx, "Failed to answer callback",
			applog.FieldComponent, applog.ComponentBot, applog.FieldError, err)
	}
}

// present delivers a response. Edit-in-place rewrites the live prompt;
// otherwise the old prompt is deleted first and a fresh message becomes the
// live prompt. Artifacts are sent as documents before the new prompt.
func (b *Bot) present(ctx context.Context, userID, chatID int64, resp dialog.Response) {
	sess := b.sessions.Get(userID)

	for _, path := range resp.Files {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		if _, err := b.api.Send(doc); err != nil {
			slog.ErrorContext(ctx, "Failed to send document",
				applog.FieldComponent, applog.ComponentBot,
				applog.FieldUserID, userID,
				"file", path,
				applog.FieldError, err)
		}
	}

	markup := keyboard(resp.Choices)

	if resp.EditInPlace && sess.LastPromptID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, sess.LastPromptID, resp.Text)
		if markup != nil {
			edit.ReplyMarkup = markup
		}
		if _, err := b.api.Send(edit); err != nil {
			slog.WarnContext(ctx, "Failed to edit prompt, sending fresh",
				applog.FieldComponent, applog.ComponentBot,
				applog.FieldUserID, userID,
				applog.FieldError, err)
		} else {
			return
		}
	}

	if sess.LastPromptID != 0 {
		del := tgbotapi.NewDeleteMessage(chatID, sess.LastPromptID)
		if _, err := b.api.Request(del); err != nil {
			slog.WarnContext(ctx, "Failed to retire prompt",
				applog.FieldComponent, applog.ComponentBot,
				applog.FieldUserID, userID,
				"message_id", sess.LastPromptID,
				applog.FieldError, err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, resp.Text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send prompt",
			applog.FieldComponent, applog.ComponentBot,
			applog.FieldUserID, userID,
			applog.FieldError, err)
		return
	}
	sess.LastPromptID = sent.MessageID
}

// SendDocuments delivers rendered artifacts outside the dialogue flow; the
// report worker uses it.
func (b *Bot) SendDocuments(ctx context.Context, chatID int64, caption string, files []string) error {
	for i, path := range files {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		if i == 0 && caption != "" {
			doc.Caption = caption
		}
		if _, err := b.api.Send(doc); err != nil {
			return fmt.Errorf("send document %s: %w", path, err)
		}
	}
	return nil
}

// SendText sends a plain message without touching the prompt lifecycle.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func keyboard(rows [][]dialog.Choice) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, c := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Token))
		}
		kb = append(kb, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kb...)
	return &markup
}

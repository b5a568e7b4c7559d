package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"

	"trustline/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the part of *tgbotapi.BotAPI used for delivery.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender delivers outbound messages to Telegram chats. It implements bot.Messenger
// for "tg:" channel refs.
type Sender struct {
	api           botAPI
	bridgedHeader string
}

// NewSender creates a sender. bridgedHeader is put above bridged text so the
// receiver can tell it from bot prompts; empty disables it.
func NewSender(api botAPI, bridgedHeader string) *Sender {
	return &Sender{api: api, bridgedHeader: bridgedHeader}
}

// SendMessage sends the text with its keyboard first, then every attachment by file id.
func (s *Sender) SendMessage(ctx context.Context, msg models.OutboundMessage) error {
	chatID, err := ParseChannelRef(msg.ChannelRef)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := msg.Text
	if msg.Origin == models.OriginBridged && s.bridgedHeader != "" {
		switch {
		case text != "":
			text = s.bridgedHeader + "\n" + text
		case len(msg.Attachments) > 0:
			// лише вкладення: заголовок іде окремим повідомленням перед ними
			text = s.bridgedHeader
		}
	}

	var errs []error
	if text != "" || len(msg.Keyboard) > 0 {
		out := tgbotapi.NewMessage(chatID, text)
		if len(msg.Keyboard) > 0 {
			out.ReplyMarkup = inlineKeyboard(msg.Keyboard)
		}
		if _, err := s.api.Send(out); err != nil {
			errs = append(errs, fmt.Errorf("send text to %d: %w", chatID, err))
		}
	}

	for _, a := range msg.Attachments {
		media, ok := mediaConfig(chatID, a)
		if !ok {
			log.Printf("WARN: attachment %s of unsupported type %q skipped", a.ID, a.Type)
			continue
		}
		if _, err := s.api.Send(media); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %d: %w", a.Type, chatID, err))
		}
	}
	return errors.Join(errs...)
}

// AcknowledgeCallback removes the "loading" state of the pressed button.
func (s *Sender) AcknowledgeCallback(_ context.Context, callbackID string) error {
	if callbackID == "" {
		return nil
	}
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func inlineKeyboard(kb models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Payload))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// mediaConfig пересилає файл за його FileID, без повторного завантаження.
func mediaConfig(chatID int64, a models.Attachment) (tgbotapi.Chattable, bool) {
	file := tgbotapi.FileID(a.ContentRef)
	switch a.Type {
	case models.AttachmentPhoto:
		return tgbotapi.NewPhoto(chatID, file), true
	case models.AttachmentDocument:
		return tgbotapi.NewDocument(chatID, file), true
	case models.AttachmentVideo:
		return tgbotapi.NewVideo(chatID, file), true
	case models.AttachmentVoice:
		return tgbotapi.NewVoice(chatID, file), true
	case models.AttachmentAudio:
		return tgbotapi.NewAudio(chatID, file), true
	default:
		return nil, false
	}
}

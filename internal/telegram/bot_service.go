// Package telegram handles the integration with the Telegram Bot API.
// It normalizes incoming updates into events for the dispatcher and
// delivers outbound messages back to Telegram chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChannelPrefix marks channel refs that belong to Telegram chats.
const ChannelPrefix = "tg:"

// EventDispatcher accepts normalized events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev models.Event) error
}

// updatesAPI is the part of *tgbotapi.BotAPI the service needs for receiving updates.
type updatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// BotService is responsible for receiving Telegram updates and routing them to the dispatcher.
type BotService struct {
	api        updatesAPI
	dispatcher EventDispatcher
}

// NewBotAPI authorizes the bot token.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)
	return bot, nil
}

// NewBotService creates a new BotService instance.
func NewBotService(api updatesAPI, d EventDispatcher) *BotService {
	return &BotService{api: api, dispatcher: d}
}

// ChannelRef builds the channel ref of a Telegram chat.
func ChannelRef(chatID int64) string {
	return ChannelPrefix + strconv.FormatInt(chatID, 10)
}

// ParseChannelRef returns the chat id of a "tg:" channel ref.
func ParseChannelRef(ref string) (int64, error) {
	raw, ok := strings.CutPrefix(ref, ChannelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a telegram channel ref: %q", ref)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chatID == 0 {
		return 0, fmt.Errorf("bad telegram chat id in %q", ref)
	}
	return chatID, nil
}

// Run is the main loop for receiving Telegram updates by long polling. It
// returns when ctx is cancelled.
func (s *BotService) Run(ctx context.Context) error {
	// якщо раніше був вебхук, Telegram не віддасть getUpdates
	if _, err := s.api.MakeRequest("deleteWebhook", tgbotapi.Params{}); err != nil {
		log.Printf("WARN: deleteWebhook failed: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)
	defer s.api.StopReceivingUpdates()

	log.Println("INFO: Telegram long polling started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if err := s.HandleUpdate(ctx, update); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("ERROR: dispatch telegram update %d: %v", update.UpdateID, err)
			}
		}
	}
}

// SetWebhook registers url with Telegram. Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every webhook call.
func (s *BotService) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	resp, err := s.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set telegram webhook: %s", resp.Description)
	}
	log.Printf("INFO: Telegram webhook set to %s", url)
	return nil
}

// HandleUpdate normalizes one update and hands it to the dispatcher.
// Updates that carry nothing the conversation understands are dropped.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ev, ok := NormalizeUpdate(update)
	if !ok {
		return nil
	}
	return s.dispatcher.Dispatch(ctx, ev)
}

// NormalizeUpdate converts a Telegram update into an Event. Only private chat
// messages and callback queries are accepted.
func NormalizeUpdate(update tgbotapi.Update) (models.Event, bool) {
	switch {
	case update.Message != nil:
		return normalizeMessage(update.Message)
	case update.CallbackQuery != nil:
		return normalizeCallback(update.CallbackQuery)
	default:
		return models.Event{}, false
	}
}

func normalizeMessage(msg *tgbotapi.Message) (models.Event, bool) {
	if msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return models.Event{}, false
	}
	text := extractMessageContent(msg)
	if cmd := "/" + msg.Command(); msg.IsCommand() && slices.Contains(config.ResetCommands, cmd) {
		// "/start@TrustLineBot payload" -> "/start"; інші "команди" лишаються текстом звернення
		text = cmd
	}
	return models.Event{
		Kind:        models.EventMessage,
		SenderID:    strconv.FormatInt(msg.From.ID, 10),
		ChannelRef:  ChannelRef(msg.Chat.ID),
		Text:        text,
		Attachments: extractAttachments(msg),
		Language:    msg.From.LanguageCode,
	}, true
}

func normalizeCallback(cq *tgbotapi.CallbackQuery) (models.Event, bool) {
	if cq.From == nil {
		return models.Event{}, false
	}
	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		if !cq.Message.Chat.IsPrivate() {
			return models.Event{}, false
		}
		chatID = cq.Message.Chat.ID
	}
	return models.Event{
		Kind:       models.EventCallback,
		SenderID:   strconv.FormatInt(cq.From.ID, 10),
		ChannelRef: ChannelRef(chatID),
		CallbackID: cq.ID,
		Payload:    cq.Data,
		Language:   cq.From.LanguageCode,
	}, true
}

// extractMessageContent uniformly extracts text or a caption from a message.
func extractMessageContent(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// extractAttachments keeps the Telegram file ids of the message media. Only the
// largest photo size is kept.
func extractAttachments(msg *tgbotapi.Message) []models.Attachment {
	var out []models.Attachment
	add := func(kind, fileID, uniqueID, mime, name string, size int) {
		if fileID == "" {
			return
		}
		id := uniqueID
		if id == "" {
			id = fileID
		}
		out = append(out, models.Attachment{
			ID:         id,
			Type:       kind,
			ContentRef: fileID,
			MimeType:   mime,
			Size:       int64(size),
			Name:       name,
		})
	}

	if n := len(msg.Photo); n > 0 {
		p := msg.Photo[n-1]
		add(models.AttachmentPhoto, p.FileID, p.FileUniqueID, "image/jpeg", "", p.FileSize)
	}
	if d := msg.Document; d != nil {
		add(models.AttachmentDocument, d.FileID, d.FileUniqueID, d.MimeType, d.FileName, d.FileSize)
	}
	if v := msg.Video; v != nil {
		add(models.AttachmentVideo, v.FileID, v.FileUniqueID, v.MimeType, v.FileName, v.FileSize)
	}
	if v := msg.Voice; v != nil {
		add(models.AttachmentVoice, v.FileID, v.FileUniqueID, v.MimeType, "", v.FileSize)
	}
	if a := msg.Audio; a != nil {
		add(models.AttachmentAudio, a.FileID, a.FileUniqueID, a.MimeType, a.FileName, a.FileSize)
	}
	return out
}

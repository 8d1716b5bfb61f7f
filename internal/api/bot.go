package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	app "github.com/agroscan/agroscan-bot/internal/application"
	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Hi! I diagnose crop leaf diseases.

📸 Send me a photo of a leaf, then tap Analyze. You will get the disease, a pesticide and a recommendation in English and Telugu.

📋 Commands:
/analyze — analyze the last photo
/reset — start over
/help — help`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ Send a photo of one leaf
2️⃣ Tap Analyze
3️⃣ Read the diagnosis in English and Telugu

💡 Tips:
• Shoot in daylight, avoid strong glare
• Fill the frame with the affected leaf
• Keep the photo in focus

📋 Commands:
/analyze — analyze the last photo
/reset — start over`

	msgSendPhoto       = "📸 Please send a photo of a crop leaf."
	msgUnknownCommand  = "❓ Unknown command. Use /help for help."
	msgNotImage        = "⚠️ That file is not a supported image. Send a JPEG, PNG or WebP photo."
	msgTooLarge        = "⚠️ The photo is too large. Please send a smaller one."
	msgDownloadError   = "⚠️ Could not download the photo. Please send it again."
	msgSomethingBroken = "⚠️ Something went wrong. Please try /reset."
)

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram front-end. Every chat has its own analysis session.
type Bot struct {
	api           botAPI
	service       *app.DiagnosisService
	httpClient    *http.Client
	maxImageBytes int64

	// tracks goroutines waiting for analysis results
	wg sync.WaitGroup
}

// NewBot creates the bot and authorizes against the Telegram API.
func NewBot(token string, service *app.DiagnosisService, maxImageBytes int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Infof("Authorized on account %s", api.Self.UserName)

	return newBot(api, service, maxImageBytes, http.DefaultClient), nil
}

func newBot(api botAPI, service *app.DiagnosisService, maxImageBytes int64, httpClient *http.Client) *Bot {
	return &Bot{
		api:           api,
		service:       service,
		httpClient:    httpClient,
		maxImageBytes: maxImageBytes,
	}
}

// Run processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			log.Debug("exiting bot by closing channel")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
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

// handleMessage processes an incoming message
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		// Telegram sends several sizes, the last one is the largest
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg.Chat.ID, incomingFile{
			ID:       photo.FileID,
			Size:     int64(photo.FileSize),
			Name:     "photo.jpg",
			MIMEType: "image/jpeg",
			SendAsID: true,
		})
		return
	}

	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		doc := msg.Document
		// a document file_id is refused by sendPhoto, so its preview goes out as bytes
		b.handleImage(ctx, msg.Chat.ID, incomingFile{
			ID:       doc.FileID,
			Size:     int64(doc.FileSize),
			Name:     doc.FileName,
			MIMEType: doc.MimeType,
		})
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "analyze":
		b.analyze(ctx, chatID)

	case "reset", "cancel":
		b.reset(ctx, chatID)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Acknowledge so the client stops showing the spinner on the button.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.WithError(err).Warn("error answering callback")
	}

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case callbackAnalyze:
		b.analyze(ctx, chatID)
	case callbackReset:
		b.reset(ctx, chatID)
	default:
		log.WithField("data", cq.Data).Warn("unknown callback data")
	}
}

// incomingFile is an image the user sent, as a photo or as a document.
type incomingFile struct {
	ID       string
	Size     int64
	Name     string
	MIMEType string
	// SendAsID marks files Telegram accepts back by ID in sendPhoto
	SendAsID bool
}

// handleImage downloads the photo and makes it the chat's current image.
func (b *Bot) handleImage(ctx context.Context, chatID int64, file incomingFile) {
	logger := log.WithField("chat_id", chatID).WithField("file_id", file.ID)

	if file.Size > b.maxImageBytes {
		logger.WithField("size", file.Size).Info("refusing oversized image")
		b.sendMessage(chatID, msgTooLarge)
		return
	}

	data, err := b.downloadFile(ctx, file.ID)
	if err != nil {
		logger.WithError(err).Error("error downloading image")
		b.sendMessage(chatID, msgDownloadError)
		return
	}
	if int64(len(data)) > b.maxImageBytes {
		logger.WithField("size", len(data)).Info("refusing oversized image")
		b.sendMessage(chatID, msgTooLarge)
		return
	}

	mimeType := sniffImageType(data, file.MIMEType)
	if !entity.IsSupportedImageType(mimeType) {
		logger.WithField("mime", mimeType).Info("refusing unsupported image")
		b.sendMessage(chatID, msgNotImage)
		return
	}

	img := &entity.Image{Data: data, MIMEType: mimeType, Name: file.Name}
	if file.SendAsID {
		img.SourceID = file.ID
	}
	view, err := b.service.Upload(ctx, chatID, img)
	if err != nil {
		logger.WithError(err).Error("error storing image")
		b.sendMessage(chatID, msgSomethingBroken)
		return
	}

	logger.WithField("size", len(data)).WithField("mime", mimeType).Info("image received")
	b.render(chatID, view)
}

func (b *Bot) analyze(ctx context.Context, chatID int64) {
	req, view, err := b.service.Analyze(ctx, chatID)
	if err != nil {
		log.WithField("chat_id", chatID).WithError(err).Error("error starting analysis")
		b.sendMessage(chatID, msgSomethingBroken)
		return
	}

	b.render(chatID, view)
	if req == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.deliverResult(ctx, chatID, req)
	}()
}

// deliverResult renders the outcome once the analysis finishes. Responses
// discarded by a reset or a new upload render nothing.
func (b *Bot) deliverResult(ctx context.Context, chatID int64, req *app.Request) {
	applied, err := req.Wait(ctx)
	if err != nil || !applied {
		log.WithField("chat_id", chatID).WithField("request_id", req.ID).Debug("analysis result not delivered")
		return
	}

	view, err := b.service.View(ctx, chatID)
	if err != nil {
		log.WithField("chat_id", chatID).WithError(err).Error("error reading session view")
		return
	}
	b.render(chatID, view)
}

func (b *Bot) reset(ctx context.Context, chatID int64) {
	view, err := b.service.Reset(ctx, chatID)
	if err != nil {
		log.WithField("chat_id", chatID).WithError(err).Error("error resetting session")
		b.sendMessage(chatID, msgSomethingBroken)
		return
	}
	b.render(chatID, view)
}

// render sends the chat reply for a view
func (b *Bot) render(chatID int64, view entity.View) {
	r := renderView(view)

	if r.Photo != nil {
		var file tgbotapi.RequestFileData
		if r.Photo.SourceID != "" {
			file = tgbotapi.FileID(r.Photo.SourceID)
		} else {
			file = tgbotapi.FileBytes{Name: r.Photo.Name, Bytes: r.Photo.Data}
		}
		if _, err := b.api.Send(tgbotapi.NewPhoto(chatID, file)); err != nil {
			log.WithField("chat_id", chatID).WithError(err).Error("error sending preview")
		}
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Keyboard != nil {
		msg.ReplyMarkup = *r.Keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		log.WithField("chat_id", chatID).WithError(err).Error("error sending message")
	}
}

// downloadFile fetches a file from Telegram, reading at most maxImageBytes+1 bytes
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage sends a plain text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithField("chat_id", chatID).WithError(err).Error("error sending message")
	}
}

// sniffImageType trusts the bytes first and the sender's hint second.
func sniffImageType(data []byte, hint string) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return strings.ToLower(hint)
}

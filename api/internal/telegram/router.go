package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"task-solver/api/internal/format"
	"task-solver/api/internal/metrics"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/store"
)

// BotAPI — часть *tgbotapi.BotAPI, которой пользуется роутер.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot        BotAPI
	Engines    *solver.Engines
	EngManager *solver.Manager

	// Strategy — режим вывода по умолчанию, /mode меняет его для чата.
	Strategy format.Strategy
	Timeout  time.Duration

	// MaxTokens 0 и отрицательная Temperature — значения по умолчанию
	MaxTokens   int
	Temperature float32

	Metrics *metrics.Metrics
	Usage   store.Recorder
	Log     *zap.Logger

	// Download скачивает файл по прямой ссылке Telegram; nil — обычный HTTP GET.
	Download func(ctx context.Context, url string) ([]byte, error)
	// AlbumDebounce — сколько ждать следующих фото альбома перед склейкой.
	AlbumDebounce time.Duration

	state chatState
	wg    sync.WaitGroup
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}

	// фото или картинка, отправленная файлом
	if len(msg.Photo) > 0 || isImageDocument(msg.Document) {
		r.acceptPhoto(*msg)
		return
	}

	if msg.Text != "" {
		r.send(msg.Chat.ID, "Пришлите фото задания — я пришлю решение.")
	}
}

// Wait ждёт завершения всех начатых решений; нужен при остановке.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) usage() store.Recorder {
	if r.Usage == nil {
		return store.Nop{}
	}
	return r.Usage
}

func (r *Router) timeout() time.Duration {
	if r.Timeout <= 0 {
		return 180 * time.Second
	}
	return r.Timeout
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendHTML(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, userError(err))
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	if r.Download != nil {
		return r.Download(ctx, url)
	}
	return httpDownload(ctx, url)
}

func httpDownload(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"task-solver/api/internal/format"
	"task-solver/api/internal/solver"
	"task-solver/api/internal/store"
	"task-solver/api/internal/util"
)

const solutionTitle = "<b>📝 Решение:</b>\n\n"

// startSolve запускает решение в фоне. В чате одновременно идёт не больше
// одного решения.
func (r *Router) startSolve(chatID int64, img []byte) {
	if !r.state.tryAcquire(chatID) {
		r.send(chatID, "⏳ Ещё решаю предыдущее задание, подождите немного.")
		return
	}
	r.state.rememberImage(chatID, img)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.state.release(chatID)
		r.solve(chatID, img)
	}()
}

func (r *Router) solve(chatID int64, img []byte) {
	eng := r.EngManager.Get(chatID)
	if eng == nil {
		r.send(chatID, "❌ Движок не настроен.")
		return
	}
	r.send(chatID, "🔎 Решаю задачу, это может занять до минуты…")
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	start := time.Now()
	done := r.Metrics.SolveStarted()
	res, err := eng.Solve(ctx, solver.SolveRequest{
		Image:       img,
		MIME:        util.PickMIME("", "", img),
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	})
	done()
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = solver.ErrEmptySolution
	}

	rec := store.UsageRecord{
		RequestID:        uuid.NewString(),
		Source:           "bot",
		ChatID:           chatID,
		Engine:           eng.Name(),
		Model:            res.Model,
		Status:           "ok",
		Duration:         time.Since(start),
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
	}
	if rec.Model == "" {
		rec.Model = eng.GetModel()
	}
	if err != nil {
		rec.Status = "error"
	}
	r.record(rec)

	if err != nil {
		r.logger().Error("solve failed",
			zap.String("request_id", rec.RequestID),
			zap.Int64("chat_id", chatID),
			zap.String("engine", rec.Engine),
			zap.Error(err),
		)
		msg := tgbotapi.NewMessage(chatID, userError(err))
		msg.ReplyMarkup = makeRetryKeyboard()
		_, _ = r.Bot.Send(msg)
		return
	}

	r.logger().Info("solve ok",
		zap.Int64("chat_id", chatID),
		zap.String("engine", rec.Engine),
		zap.String("model", rec.Model),
		zap.Duration("took", rec.Duration),
	)
	r.sendSolution(chatID, res.Text)
}

// sendSolution режет решение на сообщения по границам блоков; кнопка
// повтора висит на последнем.
func (r *Router) sendSolution(chatID int64, text string) {
	mode := r.state.getMode(chatID, r.Strategy)
	blocks := format.Blocks(text, mode)
	parts := format.TelegramMessages(blocks, mode, format.TelegramLimit)
	if len(parts) == 0 {
		parts = []string{"(пусто)"}
	}
	parts[0] = solutionTitle + parts[0]

	for i, p := range parts {
		var kb any
		if i == len(parts)-1 {
			kb = makeRetryKeyboard()
		}
		r.sendHTML(chatID, p, kb)
	}
}

func (r *Router) record(rec store.UsageRecord) {
	r.Metrics.ObserveSolve(rec.Source, rec.Engine, rec.Status, rec.Duration, rec.PromptTokens, rec.CompletionTokens)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.usage().Record(ctx, rec); err != nil {
		r.logger().Warn("usage record failed", zap.Int64("chat_id", rec.ChatID), zap.Error(err))
	}
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-solver/api/internal/solver"
	"task-solver/api/internal/util"
)

const cbSolveAgain = "solve_again"

const helpText = `Пришлите фото школьного задания — я пришлю пошаговое решение.
Если задание на нескольких фото, отправьте их одним альбомом.

Команды:
/engine — текущий движок
/engine openrouter [model] | /engine gemini [model]
/mode paragraphs | /mode lines — вывод абзацами или построчно
/health — проверка`

// Кнопка повторного решения того же фото
func makeRetryKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Решить ещё раз", cbSolveAgain)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

// userError — текст ошибки для ученика, без внутренних деталей там, где
// они ничего не скажут.
func userError(err error) string {
	switch {
	case errors.Is(err, util.ErrNotImage), errors.Is(err, util.ErrEmptyImage):
		return "Пожалуйста, выберите изображение"
	case errors.Is(err, util.ErrImageTooLarge):
		return "Размер файла не должен превышать 10MB"
	case errors.Is(err, context.DeadlineExceeded):
		return "Ошибка при решении задачи: модель не ответила вовремя, попробуйте ещё раз"
	}
	var up *solver.UpstreamError
	if errors.As(err, &up) {
		return "Ошибка при решении задачи: " + up.Error()
	}
	return fmt.Sprintf("Ошибка при решении задачи: %v", err)
}

func isImageDocument(d *tgbotapi.Document) bool {
	return d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "image/")
}

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch cb.Data {
	case cbSolveAgain:
		r.onSolveAgain(cid, cb.Message.MessageID)
	}
}

func (r *Router) onSolveAgain(chatID int64, msgID int) {
	img, ok := r.state.lastImageOf(chatID)
	if !ok {
		r.send(chatID, "Не нашёл предыдущее фото. Пришлите фото ещё раз.")
		return
	}
	if r.state.isBusy(chatID) {
		r.send(chatID, "⏳ Ещё решаю предыдущее задание, подождите немного.")
		return
	}
	// убрать кнопку со старого ответа
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{})
	_, _ = r.Bot.Send(edit)
	r.startSolve(chatID, img)
}

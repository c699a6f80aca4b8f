package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-solver/api/internal/format"
)

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngineCommand(cid, strings.Fields(msg.CommandArguments()))
	case "mode":
		r.handleModeCommand(cid, strings.TrimSpace(msg.CommandArguments()))
	default:
		r.send(cid, "Неизвестная команда. /help — список команд")
	}
}

// handleEngineCommand переключает движок для чата.
//
//	/engine
//	/engine openrouter [model]
//	/engine gemini [model]
func (r *Router) handleEngineCommand(chatID int64, args []string) {
	if len(args) == 0 {
		cur := r.EngManager.Get(chatID)
		if cur == nil {
			r.send(chatID, "Движок не настроен.")
			return
		}
		r.send(chatID, "Текущий движок: "+cur.Name()+" ("+cur.GetModel()+")"+
			"\nИспользование:\n/engine openrouter [model]\n/engine gemini [model]")
		return
	}

	eng, err := r.Engines.GetEngine(args[0])
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}

	// некоторые движки умеют менять модель на лету
	type modelSetter interface{ SetModel(string) }
	if len(args) > 1 {
		if ms, ok := eng.(modelSetter); ok {
			ms.SetModel(args[1])
		}
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, "✅ Движок: "+eng.Name()+" ("+eng.GetModel()+").")
}

func (r *Router) handleModeCommand(chatID int64, arg string) {
	if arg == "" {
		r.send(chatID, "Текущий режим: "+string(r.state.getMode(chatID, r.Strategy))+
			"\nИспользование: /mode paragraphs | /mode lines")
		return
	}
	mode, err := format.ParseStrategy(arg)
	if err != nil {
		r.send(chatID, "Неизвестный режим. Доступны: paragraphs | lines")
		return
	}
	r.state.setMode(chatID, mode)
	r.send(chatID, "✅ Режим вывода: "+string(mode))
}

package telegram

import (
	"sync"

	"task-solver/api/internal/format"
)

// chatState — всё, что бот помнит о чате между сообщениями. Живёт в
// памяти процесса.
type chatState struct {
	modes     sync.Map // chatID -> format.Strategy
	busy      sync.Map // chatID -> struct{}
	lastImage sync.Map // chatID -> []byte, для «Решить ещё раз»
	batches   sync.Map // key -> *photoBatch
}

func (s *chatState) setMode(chatID int64, mode format.Strategy) { s.modes.Store(chatID, mode) }

func (s *chatState) getMode(chatID int64, def format.Strategy) format.Strategy {
	if v, ok := s.modes.Load(chatID); ok {
		if m, _ := v.(format.Strategy); m != "" {
			return m
		}
	}
	if def == "" {
		return format.Paragraphs
	}
	return def
}

// tryAcquire помечает чат занятым; false — решение уже идёт.
func (s *chatState) tryAcquire(chatID int64) bool {
	_, loaded := s.busy.LoadOrStore(chatID, struct{}{})
	return !loaded
}

func (s *chatState) release(chatID int64) { s.busy.Delete(chatID) }

func (s *chatState) isBusy(chatID int64) bool {
	_, ok := s.busy.Load(chatID)
	return ok
}

func (s *chatState) rememberImage(chatID int64, img []byte) { s.lastImage.Store(chatID, img) }

func (s *chatState) lastImageOf(chatID int64) ([]byte, bool) {
	v, ok := s.lastImage.Load(chatID)
	if !ok {
		return nil, false
	}
	img, _ := v.([]byte)
	return img, len(img) > 0
}

package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"task-solver/api/internal/util"
)

const (
	defaultAlbumDebounce = 1200 * time.Millisecond
	maxPixels            = 18_000_000
)

// photoBatch копит фото одного альбома, пока Telegram досылает их
// отдельными апдейтами. closed ставит processBatch: в закрытый батч фото
// уже не добавляются.
type photoBatch struct {
	ChatID int64

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
	closed bool
}

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.state.isBusy(cid) {
		r.send(cid, "⏳ Ещё решаю предыдущее задание, подождите немного.")
		return
	}

	fileID, hintMIME := "", ""
	if len(msg.Photo) > 0 {
		// берём самое большое превью
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	} else {
		if msg.Document.FileSize > util.MaxImageBytes {
			r.SendError(cid, util.ErrImageTooLarge)
			return
		}
		fileID, hintMIME = msg.Document.FileID, msg.Document.MimeType
	}

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, fmt.Errorf("не удалось получить файл: %w", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	img, err := r.download(ctx, url)
	cancel()
	if err != nil {
		r.logger().Warn("photo download failed", zap.Int64("chat_id", cid), zap.Error(err))
		r.SendError(cid, fmt.Errorf("не удалось скачать фото: %w", err))
		return
	}
	if err := util.ValidateImage(img, util.PickMIME("", hintMIME, img)); err != nil {
		r.SendError(cid, err)
		return
	}

	if msg.MediaGroupID == "" {
		r.startSolve(cid, img)
		return
	}
	r.addToAlbum(cid, msg.MediaGroupID, img)
}

func (r *Router) addToAlbum(chatID int64, groupID string, img []byte) {
	key := "grp:" + groupID
	debounce := r.AlbumDebounce
	if debounce <= 0 {
		debounce = defaultAlbumDebounce
	}

	for {
		bi, loaded := r.state.batches.LoadOrStore(key, &photoBatch{ChatID: chatID, images: make([][]byte, 0, 4)})
		b := bi.(*photoBatch)

		b.mu.Lock()
		if b.closed {
			// таймер уже забрал батч; начинаем новый
			b.mu.Unlock()
			r.state.batches.CompareAndDelete(key, b)
			continue
		}
		b.images = append(b.images, img)
		if b.timer != nil {
			b.timer.Stop()
		}
		b.timer = time.AfterFunc(debounce, func() { r.processBatch(key, b) })
		b.mu.Unlock()

		if !loaded {
			r.send(chatID, "Фото принято. Если задание на нескольких фото — пришлите их одним альбомом, я склею страницы.")
		}
		return
	}
}

func (r *Router) processBatch(key string, b *photoBatch) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	b.mu.Unlock()
	r.state.batches.CompareAndDelete(key, b)

	switch len(images) {
	case 0:
		return
	case 1:
		r.startSolve(chatID, images[0])
		return
	}

	merged, err := combineAsOne(images)
	if err != nil {
		r.SendError(chatID, fmt.Errorf("склейка: %w", err))
		return
	}
	if err := util.ValidateImage(merged, "image/jpeg"); err != nil {
		r.SendError(chatID, err)
		return
	}
	r.startSolve(chatID, merged)
}

// combineAsOne ставит страницы друг под другом на белом фоне и при
// необходимости уменьшает результат до maxPixels. Ориентация из EXIF
// учитывается: телефоны часто пишут фото тетради повёрнутым.
func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0

	for i, b := range images {
		img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("фото %d: %w", i+1, err)
		}
		decoded = append(decoded, img)
		if w := img.Bounds().Dx(); w > maxW {
			maxW = w
		}
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("пустые изображения")
	}

	dst := imaging.New(maxW, sumH, color.White)
	y := 0
	for _, img := range decoded {
		x := (maxW - img.Bounds().Dx()) / 2
		dst = imaging.Paste(dst, img, image.Pt(x, y))
		y += img.Bounds().Dy()
	}

	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(int(float64(maxW)*scale+0.5), 1)
		newH := max(int(float64(sumH)*scale+0.5), 1)
		dst = imaging.Resize(dst, newW, newH, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, dst, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

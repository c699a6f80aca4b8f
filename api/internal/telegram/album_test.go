package telegram

import (
	"bytes"
	"context"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func albumPhoto(chatID int64, group, fileID string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:         &tgbotapi.Chat{ID: chatID},
		MediaGroupID: group,
		Photo:        []tgbotapi.PhotoSize{{FileID: fileID}},
	}}
}

// newAlbumRouter отдаёт по file id свою картинку.
func newAlbumRouter(t *testing.T, eng *fakeEngine, files map[string][]byte, debounce time.Duration) *Router {
	t.Helper()
	r, _, _ := newTestRouter(eng, nil)
	r.AlbumDebounce = debounce
	r.Download = func(_ context.Context, url string) ([]byte, error) {
		b, ok := files[url[strings.LastIndex(url, "/")+1:]]
		require.True(t, ok, url)
		return b, nil
	}
	return r
}

func TestAlbum_MergesIntoOneSolve(t *testing.T) {
	eng := &fakeEngine{name: "openrouter", text: "ok"}
	r := newAlbumRouter(t, eng, map[string][]byte{
		"p1": pngOf(t, 10, 5),
		"p2": pngOf(t, 6, 5),
	}, 50*time.Millisecond)

	r.HandleUpdate(albumPhoto(7, "g1", "p1"))
	r.HandleUpdate(albumPhoto(7, "g1", "p2"))

	require.Eventually(t, func() bool { return len(eng.solved()) == 1 }, 2*time.Second, 10*time.Millisecond)
	r.Wait()
	time.Sleep(100 * time.Millisecond)

	images := eng.solved()
	require.Len(t, images, 1)
	img, err := jpeg.Decode(bytes.NewReader(images[0]))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())

	_, ok := r.state.batches.Load("grp:g1")
	assert.False(t, ok)
}

func TestAlbum_SinglePhotoSolvedAsIs(t *testing.T) {
	eng := &fakeEngine{name: "openrouter", text: "ok"}
	page := pngOf(t, 4, 4)
	r := newAlbumRouter(t, eng, map[string][]byte{"p1": page}, 20*time.Millisecond)

	r.HandleUpdate(albumPhoto(7, "g1", "p1"))

	require.Eventually(t, func() bool { return len(eng.solved()) == 1 }, 2*time.Second, 10*time.Millisecond)
	r.Wait()
	assert.Equal(t, page, eng.solved()[0])
}

func TestAlbum_NextPhotoRestartsDebounce(t *testing.T) {
	const debounce = 300 * time.Millisecond
	eng := &fakeEngine{name: "openrouter", text: "ok"}
	r := newAlbumRouter(t, eng, map[string][]byte{
		"p1": pngOf(t, 10, 5),
		"p2": pngOf(t, 6, 5),
	}, debounce)

	r.HandleUpdate(albumPhoto(7, "g1", "p1"))
	time.Sleep(150 * time.Millisecond)
	r.HandleUpdate(albumPhoto(7, "g1", "p2"))

	// первый таймер уже истёк бы, второй ещё нет
	time.Sleep(220 * time.Millisecond)
	assert.Empty(t, eng.solved())

	require.Eventually(t, func() bool { return len(eng.solved()) == 1 }, 2*time.Second, 10*time.Millisecond)
	r.Wait()
	img, err := jpeg.Decode(bytes.NewReader(eng.solved()[0]))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestAlbum_PhotoAfterBatchClosedStartsNewBatch(t *testing.T) {
	eng := &fakeEngine{name: "openrouter", text: "ok"}
	r, _, _ := newTestRouter(eng, nil)
	r.AlbumDebounce = time.Hour

	// батч уже забран таймером, но ещё лежит в карте
	stale := &photoBatch{ChatID: 7, images: [][]byte{[]byte("old")}, closed: true}
	r.state.batches.Store("grp:g1", stale)

	r.addToAlbum(7, "g1", []byte("new"))

	v, ok := r.state.batches.Load("grp:g1")
	require.True(t, ok)
	fresh := v.(*photoBatch)
	require.NotSame(t, stale, fresh)
	fresh.mu.Lock()
	defer fresh.mu.Unlock()
	fresh.timer.Stop()
	assert.Equal(t, [][]byte{[]byte("new")}, fresh.images)
	assert.Equal(t, [][]byte{[]byte("old")}, stale.images)
}

func TestAlbum_ProcessBatchRunsOnce(t *testing.T) {
	eng := &fakeEngine{name: "openrouter", text: "ok"}
	r, _, _ := newTestRouter(eng, nil)
	r.AlbumDebounce = time.Hour

	r.addToAlbum(7, "g1", jpegBytes)
	v, _ := r.state.batches.Load("grp:g1")
	b := v.(*photoBatch)
	b.mu.Lock()
	b.timer.Stop()
	b.mu.Unlock()

	r.processBatch("grp:g1", b)
	r.processBatch("grp:g1", b)
	r.Wait()

	assert.Len(t, eng.solved(), 1)
	_, ok := r.state.batches.Load("grp:g1")
	assert.False(t, ok)
}

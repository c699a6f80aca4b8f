package util

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxImageBytes — предел размера фото задания (10 MiB).
const MaxImageBytes = 10 << 20

var (
	ErrEmptyImage    = errors.New("image is empty")
	ErrNotImage      = errors.New("file is not an image")
	ErrImageTooLarge = errors.New("image exceeds 10 MiB")
)

func SniffMimeHTTP(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	return "application/octet-stream"
}

func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64MaybeDataURL декодирует base64. Если это data:URI, вернёт MIME из префикса.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if strings.HasPrefix(s, "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	// стандартная base64, затем URL-safe — на случай вариаций
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hintMIME, nil
	} else if b2, err2 := base64.URLEncoding.DecodeString(s); err2 == nil {
		return b2, hintMIME, nil
	} else {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
}

// PickMIME берёт явный MIME, затем из data:URI, иначе детектит по байтам.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "image/jpeg"
}

// ValidateImage проверяет то же, что проверяла форма загрузки: тип image/*
// и размер не больше MaxImageBytes.
func ValidateImage(data []byte, mime string) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// Package format превращает текстовый ответ модели в HTML для показа
// школьнику: LaTeX-команды заменяются Unicode-символами, текст режется
// на абзацы или строки, каждый фрагмент получает свой CSS-класс.
package format

import (
	"fmt"
	"strings"
)

// Strategy — способ нарезки текста на блоки.
type Strategy string

const (
	Paragraphs Strategy = "paragraphs"
	Lines      Strategy = "lines"
)

// ParseStrategy понимает пустую строку как абзацный режим.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Paragraphs:
		return Paragraphs, nil
	case Lines:
		return Lines, nil
	}
	return "", fmt.Errorf("unknown format strategy %q; use %q or %q", s, Paragraphs, Lines)
}

// Blocks нормализует raw и режет его выбранной стратегией.
func Blocks(raw string, s Strategy) []Block {
	text := Normalize(raw)
	if s == Lines {
		return LineBlocks(text)
	}
	return ParagraphBlocks(text)
}

// Format — весь конвейер: Normalize, затем сегментация и HTML.
func Format(raw string, s Strategy) string {
	return Render(Blocks(raw, s), s)
}

// Formatter фиксирует стратегию для вызывающих, которые выбирают её один
// раз (HTTP-ручки, бот).
type Formatter struct {
	Strategy Strategy
}

func (f Formatter) Format(raw string) string { return Format(raw, f.Strategy) }

func (f Formatter) Blocks(raw string) []Block { return Blocks(raw, f.Strategy) }

func (f Formatter) Render(blocks []Block) string { return Render(blocks, f.Strategy) }

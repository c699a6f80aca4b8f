package format

import (
	"html"
	"regexp"
	"strings"
)

var reBold = regexp.MustCompile(`\*\*(.*?)\*\*`)

// RenderHTML оборачивает блоки в фиксированные теги и склеивает без
// разделителей. Текст блока экранируется до вставки тегов: ответ модели
// не может внедрить свою разметку. **X** становится <strong>X</strong>.
func RenderHTML(blocks []Block) string {
	return render(blocks, emphasize)
}

// RenderLinesHTML — вывод построчного режима: жирным бывает только
// заголовок, остальные строки выводятся как есть (экранированными).
func RenderLinesHTML(blocks []Block) string {
	return render(blocks, html.EscapeString)
}

// Render выбирает вывод по стратегии нарезки.
func Render(blocks []Block, s Strategy) string {
	if s == Lines {
		return RenderLinesHTML(blocks)
	}
	return RenderHTML(blocks)
}

func render(blocks []Block, body func(string) string) string {
	var b strings.Builder
	for _, blk := range blocks {
		writeHTML(&b, blk, body)
	}
	return b.String()
}

func writeHTML(b *strings.Builder, blk Block, body func(string) string) {
	switch blk.Kind {
	case Blank:
		b.WriteString("<br>")
	case Header:
		b.WriteString(`<h4 class="solution-header">`)
		b.WriteString(html.EscapeString(strings.ReplaceAll(blk.Text, "**", "")))
		b.WriteString("</h4>")
	case NumberedStep:
		wrap(b, `<div class="numbered-step">`, "</div>", body(blk.Text))
	case MathStep:
		wrap(b, `<div class="math-step">`, "</div>", body(blk.Text))
	case ListItem:
		wrap(b, `<div class="list-item">`, "</div>", body(blk.Text))
	default:
		wrap(b, `<p class="solution-text">`, "</p>", body(blk.Text))
	}
}

func wrap(b *strings.Builder, open, close, body string) {
	b.WriteString(open)
	b.WriteString(body)
	b.WriteString(close)
}

// emphasize экранирует текст и превращает **X** в <strong>X</strong>.
func emphasize(s string) string {
	return reBold.ReplaceAllString(html.EscapeString(s), "<strong>$1</strong>")
}

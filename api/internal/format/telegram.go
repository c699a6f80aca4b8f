package format

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"
)

// TelegramLimit — запас до лимита Telegram в 4096 символов на сообщение.
const TelegramLimit = 3900

// minTelegramLimit — самая длинная руна в самых длинных тегах; при меньшем
// limit в сообщение может не влезть ни одной руны.
const minTelegramLimit = len("<code>&#34;</code>")

// TelegramHTML рендерит блоки тегами, которые понимает ParseMode=HTML в
// Telegram (<b>, <code>). Абзацы разделяются пустой строкой, строки — \n.
func TelegramHTML(blocks []Block, s Strategy) string {
	parts := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		parts = append(parts, telegramBlock(blk))
	}
	return strings.Join(parts, separator(s))
}

// TelegramMessages режет вывод на сообщения не длиннее limit рун, не
// разрывая теги: граница всегда проходит между блоками, а слишком длинный
// блок сам делится на куски того же вида.
func TelegramMessages(blocks []Block, s Strategy, limit int) []string {
	if limit < minTelegramLimit {
		limit = TelegramLimit
	}
	sep := separator(s)

	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, blk := range blocks {
		for _, piece := range splitBlock(blk, limit) {
			rendered := telegramBlock(piece)
			size := utf8.RuneCountInString(rendered)
			if n > 0 && n+len(sep)+size > limit {
				flush()
			}
			if n > 0 {
				cur.WriteString(sep)
				n += len(sep)
			}
			cur.WriteString(rendered)
			n += size
		}
	}
	flush()
	return out
}

func separator(s Strategy) string {
	if s == Lines {
		return "\n"
	}
	return "\n\n"
}

func telegramBlock(blk Block) string {
	switch blk.Kind {
	case Blank:
		return ""
	case Header:
		return "<b>" + html.EscapeString(strings.ReplaceAll(blk.Text, "**", "")) + "</b>"
	case MathStep:
		// внутри <code> Telegram не разрешает других тегов
		return "<code>" + html.EscapeString(strings.ReplaceAll(blk.Text, "**", "")) + "</code>"
	}
	return reBold.ReplaceAllString(html.EscapeString(blk.Text), "<b>$1</b>")
}

// splitBlock делит текст блока по рунам так, чтобы каждый кусок после
// telegramBlock (экранирование, теги, **X** -> <b>X</b>) помещался в limit.
// Длина вывода не убывает при удлинении префикса, поэтому границу куска
// ищем двоичным поиском.
func splitBlock(blk Block, limit int) []Block {
	if renderedLen(blk.Kind, []rune(blk.Text)) <= limit {
		return []Block{blk}
	}
	var out []Block
	rest := []rune(blk.Text)
	for len(rest) > 0 {
		n := sort.Search(len(rest), func(i int) bool {
			return renderedLen(blk.Kind, rest[:i+1]) > limit
		})
		if n == 0 {
			n = 1
		}
		out = append(out, Block{Kind: blk.Kind, Text: string(rest[:n])})
		rest = rest[n:]
	}
	return out
}

func renderedLen(kind BlockKind, text []rune) int {
	return utf8.RuneCountInString(telegramBlock(Block{Kind: kind, Text: string(text)}))
}

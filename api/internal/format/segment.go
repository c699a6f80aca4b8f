package format

import (
	"regexp"
	"strings"
)

var reParagraphBreak = regexp.MustCompile(`\n\s*\n`)

// ParagraphBlocks режет текст по пустым строкам и классифицирует каждый
// абзац. Пустые после обрезки абзацы отбрасываются.
func ParagraphBlocks(text string) []Block {
	chunks := reParagraphBreak.Split(text, -1)
	blocks := make([]Block, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		blocks = append(blocks, Block{Kind: Classify(ParagraphRules, c), Text: c})
	}
	return blocks
}

// LineBlocks классифицирует каждую физическую строку. Пустые строки не
// выбрасываются, а становятся блоками Blank.
func LineBlocks(text string) []Block {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		blocks = append(blocks, Block{Kind: Classify(LineRules, l), Text: l})
	}
	return blocks
}

// SegmentParagraphs — абзацный режим, именно он выводится пользователю.
func SegmentParagraphs(text string) string {
	return RenderHTML(ParagraphBlocks(text))
}

// SegmentLines — построчный режим.
func SegmentLines(text string) string {
	return RenderLinesHTML(LineBlocks(text))
}

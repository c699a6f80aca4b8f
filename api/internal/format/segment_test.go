package format

import (
	"html"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentParagraphs_SolutionExample(t *testing.T) {
	got := SegmentParagraphs("**Решение:**\n\n1. Шаг первый\n\n2x+3=5")
	want := `<p class="solution-text"><strong>Решение:</strong></p>` +
		`<div class="numbered-step">1. Шаг первый</div>` +
		`<div class="math-step">2x+3=5</div>`
	assert.Equal(t, want, got)
}

func TestSegmentParagraphs_WhitespaceOnly(t *testing.T) {
	assert.Equal(t, "", SegmentParagraphs("   \n\n  "))
	assert.Empty(t, ParagraphBlocks(""))
}

func TestParagraphBlocks_Classification(t *testing.T) {
	tests := []struct {
		in   string
		want BlockKind
	}{
		{in: "1. x=2", want: NumberedStep},
		{in: "12. Второй шаг", want: NumberedStep},
		{in: "1.без пробела", want: PlainParagraph},
		{in: "S = a · b", want: MathStep},
		{in: "√9 это три", want: MathStep},
		{in: "что-то", want: MathStep},
		{in: "Ответ: 5 яблок", want: PlainParagraph},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			blocks := ParagraphBlocks(tt.in)
			require.Len(t, blocks, 1)
			assert.Equal(t, tt.want, blocks[0].Kind)
		})
	}
}

func TestParagraphBlocks_SplitsOnBlankLines(t *testing.T) {
	blocks := ParagraphBlocks("  первый\nвсё ещё первый \n \t\n\nвторой\r\n\r\nтретий  ")
	require.Len(t, blocks, 3)
	assert.Equal(t, "первый\nвсё ещё первый", blocks[0].Text)
	assert.Equal(t, "второй", blocks[1].Text)
	assert.Equal(t, "третий", blocks[2].Text)
}

func TestSegmentParagraphs_EscapesMarkup(t *testing.T) {
	got := SegmentParagraphs("<script>alert(1)</script>\n\nТом & Джерри")
	assert.Equal(t,
		`<div class="math-step">&lt;script&gt;alert(1)&lt;/script&gt;</div>`+
			`<p class="solution-text">Том &amp; Джерри</p>`,
		got)
}

var reWrapper = regexp.MustCompile(`(?s)^<[^>]+>(.*)</[^>]+>$`)

// Видимый текст блока совпадает с исходным фрагментом.
func TestRenderHTML_PreservesChunkText(t *testing.T) {
	inputs := []string{
		"Дано: a < b & c > d\n\n2. шаг \"два\"\n\n  просто текст  ",
		"x=1\n\n\n\ny=2",
		"'кавычки' и <теги>",
	}
	for _, in := range inputs {
		for _, blk := range ParagraphBlocks(in) {
			out := RenderHTML([]Block{blk})
			m := reWrapper.FindStringSubmatch(out)
			require.NotNil(t, m, out)
			assert.Equal(t, blk.Text, html.UnescapeString(m[1]))
		}
	}
}

func TestLineBlocks_Classification(t *testing.T) {
	in := "Заголовок\n\n**Ответ**\n- пункт\n* пункт\n3. шаг\nx=1"
	var kinds []BlockKind
	for _, b := range LineBlocks(in) {
		kinds = append(kinds, b.Kind)
	}
	// "- пункт" содержит минус и уходит в MathStep раньше ListItem
	assert.Equal(t, []BlockKind{PlainLine, Blank, Header, MathStep, ListItem, NumberedStep, MathStep}, kinds)
}

func TestSegmentLines(t *testing.T) {
	got := SegmentLines("  **Ответ**\nа\n\n* б\n")
	want := `<h4 class="solution-header">Ответ</h4>` +
		`<p class="solution-text">а</p>` +
		`<br>` +
		`<div class="list-item">* б</div>`
	assert.Equal(t, want, got)
}

func TestSegmentLines_BlankLineIsBreak(t *testing.T) {
	blocks := LineBlocks("a\n   \nb")
	require.Len(t, blocks, 3)
	assert.Equal(t, Blank, blocks[1].Kind)
	assert.Equal(t, `<p class="solution-text">a</p><br><p class="solution-text">b</p>`, SegmentLines("a\n   \nb"))
}

func TestSegmentLines_BoldOnlyInHeaders(t *testing.T) {
	got := SegmentLines("**Ответ**\nэто **важно**\n1. шаг **один**")
	want := `<h4 class="solution-header">Ответ</h4>` +
		`<p class="solution-text">это **важно**</p>` +
		`<div class="numbered-step">1. шаг **один**</div>`
	assert.Equal(t, want, got)

	// в абзацном режиме те же маркеры становятся <strong>
	assert.Equal(t, `<p class="solution-text">это <strong>важно</strong></p>`, Format("это **важно**", Paragraphs))
	assert.Equal(t, `<p class="solution-text">это **важно**</p>`, Format("это **важно**", Lines))
}

func TestClassify_FirstRuleWins(t *testing.T) {
	rules := []Rule{
		{Kind: Header, Match: func(string) bool { return true }},
		{Kind: MathStep, Match: func(string) bool { return true }},
	}
	assert.Equal(t, Header, Classify(rules, "x"))
	assert.Equal(t, PlainParagraph, Classify(nil, "x"))
}

func TestBlockKind_String(t *testing.T) {
	assert.Equal(t, "numbered_step", NumberedStep.String())
	assert.Equal(t, "blank", Blank.String())
	assert.Equal(t, "unknown", BlockKind(99).String())
}

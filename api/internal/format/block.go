package format

import (
	"regexp"
	"strings"
)

// BlockKind — категория блока, определяет обёртку при выводе.
type BlockKind int

const (
	PlainParagraph BlockKind = iota
	NumberedStep
	MathStep
	Header
	ListItem
	PlainLine
	Blank
)

func (k BlockKind) String() string {
	switch k {
	case PlainParagraph:
		return "plain_paragraph"
	case NumberedStep:
		return "numbered_step"
	case MathStep:
		return "math_step"
	case Header:
		return "header"
	case ListItem:
		return "list_item"
	case PlainLine:
		return "plain_line"
	case Blank:
		return "blank"
	}
	return "unknown"
}

// MarshalText lets blocks go out as {"kind":"math_step"} in JSON responses.
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Block — один классифицированный фрагмент текста. Text хранит исходный
// (обрезанный) фрагмент без разметки.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Rule — предикат и категория, которую он назначает.
type Rule struct {
	Kind  BlockKind
	Match func(s string) bool
}

// mathChars — символы, по которым блок считается математическим.
const mathChars = "+-×÷=<>≤≥≠≈√π"

var (
	reNumbered = regexp.MustCompile(`^\d+\.\s`)
	reHeader   = regexp.MustCompile(`^\*\*.*\*\*$`)
	reListItem = regexp.MustCompile(`^[-*]\s`)
)

func isNumbered(s string) bool { return reNumbered.MatchString(s) }
func hasMath(s string) bool    { return strings.ContainsAny(s, mathChars) }
func isEmpty(s string) bool    { return s == "" }
func isHeader(s string) bool   { return reHeader.MatchString(s) }
func isListItem(s string) bool { return reListItem.MatchString(s) }
func always(string) bool       { return true }

// ParagraphRules — порядок проверки абзацев; побеждает первое совпадение.
var ParagraphRules = []Rule{
	{Kind: NumberedStep, Match: isNumbered},
	{Kind: MathStep, Match: hasMath},
	{Kind: PlainParagraph, Match: always},
}

// LineRules — порядок проверки строк в построчном режиме.
var LineRules = []Rule{
	{Kind: Blank, Match: isEmpty},
	{Kind: NumberedStep, Match: isNumbered},
	{Kind: Header, Match: isHeader},
	{Kind: MathStep, Match: hasMath},
	{Kind: ListItem, Match: isListItem},
	{Kind: PlainLine, Match: always},
}

// Classify returns the kind of the first rule that matches s. Both rule
// lists end with a catch-all, so the fallback is only reached for custom
// lists.
func Classify(rules []Rule, s string) BlockKind {
	for _, r := range rules {
		if r.Match(s) {
			return r.Kind
		}
	}
	return PlainParagraph
}

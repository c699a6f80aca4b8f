package format

import (
	"regexp"
)

var (
	reFrac       = regexp.MustCompile(`\\frac\{([^}]+)\}\{([^}]+)\}`)
	reBracedPow  = regexp.MustCompile(`\{([^}]+)\}\^\{([^}]+)\}`)
	rePow        = regexp.MustCompile(`\^\{([^}]+)\}`)
	reSub        = regexp.MustCompile(`_\{([^}]+)\}`)
	reCommand    = regexp.MustCompile(`\\[a-zA-Z]+`)
	reBraces     = regexp.MustCompile(`[{}]`)
	reHSpace     = regexp.MustCompile(`[ \t]+`)
	reOperator   = regexp.MustCompile(`[ \t]*([+\-×÷=<>≤≥≠≈])[ \t]*`)
	reParenSpace = regexp.MustCompile(`[ \t]*([()])[ \t]*`)
)

// Symbols — таблица LaTeX-команд, которые заменяются одним Unicode-символом.
// Ключ — имя команды без обратного слэша.
var Symbols = map[string]string{
	// операции
	"times": "×",
	"div":   "÷",
	"cdot":  "·",
	"pm":    "±",
	"sqrt":  "√",

	// греческие буквы
	"pi":     "π",
	"alpha":  "α",
	"beta":   "β",
	"gamma":  "γ",
	"delta":  "δ",
	"theta":  "θ",
	"lambda": "λ",
	"mu":     "μ",
	"sigma":  "σ",
	"phi":    "φ",
	"omega":  "ω",

	// стрелки
	"rightarrow": "→",
	"leftarrow":  "←",
	"Rightarrow": "⇒",
	"Leftarrow":  "⇐",

	// сравнения
	"leq":    "≤",
	"geq":    "≥",
	"neq":    "≠",
	"approx": "≈",

	// множества
	"in":     "∈",
	"notin":  "∉",
	"subset": "⊂",
	"supset": "⊃",
	"cup":    "∪",
	"cap":    "∩",

	"int":      "∫",
	"sum":      "∑",
	"prod":     "∏",
	"infty":    "∞",
	"angle":    "∠",
	"triangle": "△",
	"parallel": "∥",
	"perp":     "⊥",
}

// Normalize переводит LaTeX-разметку ответа модели в обычную запись с
// Unicode-символами. Порядок шагов важен: дроби и степени разбираются до
// удаления фигурных скобок, а операторы расставляются после схлопывания
// пробелов. Переводы строк сохраняются, их использует сегментатор.
//
// Normalize не идемпотентна: повторный проход может изменить пробелы
// вокруг соседних операторов.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := reFrac.ReplaceAllString(text, "($1)/($2)")
	s = reBracedPow.ReplaceAllString(s, "$1^$2")
	s = rePow.ReplaceAllString(s, "^$1")
	s = reSub.ReplaceAllString(s, "_$1")

	// \left, \text и прочий структурный шум; символы из таблицы не трогаем
	s = reCommand.ReplaceAllStringFunc(s, func(tok string) string {
		if _, ok := Symbols[tok[1:]]; ok {
			return tok
		}
		return ""
	})
	// символы подставляем до удаления скобок: иначе \sqrt{x} склеится в \sqrtx
	s = replaceSymbols(s)
	s = reBraces.ReplaceAllString(s, "")
	s = reCommand.ReplaceAllString(s, "")

	s = reHSpace.ReplaceAllString(s, " ")
	s = reOperator.ReplaceAllString(s, " $1 ")
	s = reParenSpace.ReplaceAllString(s, "$1")
	return s
}

// replaceSymbols заменяет команды целиком по токену, поэтому \in не
// съедает начало \infty или \int.
func replaceSymbols(s string) string {
	return reCommand.ReplaceAllStringFunc(s, func(tok string) string {
		if sym, ok := Symbols[tok[1:]]; ok {
			return sym
		}
		return tok
	})
}

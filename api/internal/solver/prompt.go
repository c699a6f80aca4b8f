package solver

const (
	DefaultModel       = "openai/gpt-4o"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
)

// DefaultPrompt просит модель писать простыми символами вместо LaTeX;
// то, что она всё же пришлёт в LaTeX, добирает format.Normalize.
const DefaultPrompt = `Пожалуйста, решите эту школьную задачу. Предоставьте подробное пошаговое решение с объяснениями.

ВАЖНО: Используйте простые математические символы вместо LaTeX:
- Вместо \frac{a}{b} пишите a/b или "a делить на b"
- Вместо \times пишите × или "умножить на"
- Вместо \div пишите ÷ или "делить на"
- Вместо \sqrt пишите √
- Вместо ^ пишите степень обычным текстом (например, x в квадрате)
- Вместо сложных формул используйте простые выражения

Если это математическая задача, покажите все вычисления пошагово. Если это задача по физике, химии или другому предмету, объясните принципы и формулы простыми словами. Ответ должен быть на русском языке и понятен школьнику.`

package docforge

import (
	"regexp"
	"strings"
	"time"

	expro "github.com/expr-lang/expr"
	"github.com/xuri/excelize/v2"
)

// Резолвер плейсхолдеров. Грамматика токенов:
// - {{Path.To.Field}}                — прямая подстановка
// - {{Path.To.Field\# #,##0.##}}     — числовой формат (2 знака, разделители тысяч)
// - {{Path.To.Field\@dd/MM/yyyy}}    — формат даты
// - {{TableStart:Имя}} / {{TableEnd:Имя}} — маркеры табличной области, резолвер их не трогает
// - {{#if Path == 'Литерал'}}A{{else}}B{{/if}} — условный блок, заменяется целиком

var (
	rxToken   = regexp.MustCompile(`\{\{([^{}]+?)\}\}`)
	rxIfBlock = regexp.MustCompile(`(?s)\{\{#if\s+(.+?)\}\}(.*?)\{\{else\}\}(.*?)\{\{/if\}\}`)
	// форма равенства из грамматики; кавычки вокруг == допускаются для
	// совместимости со старыми шаблонами
	rxIfEq = regexp.MustCompile(`^\s*([\w.]+)\s*(?:'=='|==)\s*'([^']*)'\s*$`)
)

type directiveKind int

const (
	directiveNone directiveKind = iota
	directiveNumber
	directiveDate
)

// splitDirective отделяет путь токена от директивы формата (\# или \@).
func splitDirective(body string) (path string, kind directiveKind, spec string) {
	if i := strings.Index(body, `\#`); i >= 0 {
		return strings.TrimSpace(body[:i]), directiveNumber, strings.TrimSpace(body[i+2:])
	}
	if i := strings.Index(body, `\@`); i >= 0 {
		return strings.TrimSpace(body[:i]), directiveDate, strings.TrimSpace(body[i+2:])
	}
	return strings.TrimSpace(body), directiveNone, ""
}

// isControlToken — тело токена, которое резолвер обязан оставить нетронутым.
func isControlToken(body string) bool {
	return strings.HasPrefix(body, "TableStart:") ||
		strings.HasPrefix(body, "TableEnd:") ||
		strings.HasPrefix(body, "#if") ||
		body == "else" || body == "/if"
}

// ResolveText разрешает все токены текста ячейки за один проход: сначала
// условные блоки целиком, затем подстановки. Известный путь заменяется
// строковым видом значения (nil — пустая строка), неизвестный остаётся в
// тексте до финального StripTokens. Остатки литерала "None" (артефакт
// строкования null) вычищаются после подстановок. Повторный вызов на уже
// разрешённом тексте ничего не меняет.
func ResolveText(text string, rec Record) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	replaced := false
	out := rxIfBlock.ReplaceAllStringFunc(text, func(m string) string {
		sub := rxIfBlock.FindStringSubmatch(m)
		replaced = true
		if evalCondition(rec, sub[1]) {
			return sub[2]
		}
		return sub[3]
	})
	out = rxToken.ReplaceAllStringFunc(out, func(m string) string {
		body := strings.TrimSpace(m[2 : len(m)-2])
		if isControlToken(body) {
			return m
		}
		path, kind, spec := splitDirective(body)
		v, ok := rec[path]
		if !ok {
			return m
		}
		replaced = true
		switch kind {
		case directiveNumber:
			return formatNumber(v, spec)
		case directiveDate:
			return formatDate(v, spec)
		default:
			return toString(v)
		}
	})
	if replaced {
		out = strings.ReplaceAll(out, "None", "")
	}
	return out
}

// StripTokens снимает все оставшиеся токены {{...}} — финальное правило:
// после всех проходов разрешения неразрешённых тегов в документе не остаётся.
func StripTokens(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return rxToken.ReplaceAllString(text, "")
}

// formatNumber применяет числовую директиву. Значение, не приводимое к числу,
// отдаётся как есть — ошибка формата никогда не фатальна.
func formatNumber(v interface{}, spec string) string {
	if v == nil {
		return ""
	}
	f, ok := toFloat(v)
	if !ok || !strings.Contains(spec, "#,##0.##") {
		return toString(v)
	}
	return FormatThousands(f)
}

// formatDate рендерит дату по шаблону dd/MM/yyyy. CRM отдаёт даты строками
// ISO-вида, значимы первые 10 символов.
func formatDate(v interface{}, spec string) string {
	if v == nil {
		return ""
	}
	s := toString(v)
	raw := s
	if len(raw) > 10 {
		raw = raw[:10]
	}
	dt, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return s
	}
	layout := strings.NewReplacer("dd", "02", "MM", "01", "yyyy", "2006").Replace(spec)
	return dt.Format(layout)
}

// evalCondition вычисляет условие блока #if. Форма равенства из грамматики
// сравнивается без учёта регистра; любое другое условие компилируется через
// expr-lang с доступом к значениям записи по path("...").
func evalCondition(rec Record, cond string) bool {
	if m := rxIfEq.FindStringSubmatch(cond); m != nil {
		return strings.EqualFold(strings.TrimSpace(toString(rec[m[1]])), m[2])
	}
	env := map[string]interface{}{
		"path": func(p string) interface{} { return rec[p] },
		"exists": func(v interface{}) bool {
			return v != nil && toString(v) != ""
		},
	}
	program, err := expro.Compile(rewriteConditionPaths(cond), expro.Env(env))
	if err != nil {
		return false
	}
	out, err := expro.Run(program, env)
	if err != nil {
		return false
	}
	if b, ok := out.(bool); ok {
		return b
	}
	return truthy(out)
}

// rewriteConditionPaths оборачивает пути полей в path("..."), чтобы expr-lang
// не пытался трактовать точки в именах CRM-полей как доступ к членам.
// Участки в кавычках и имена вызываемых функций не трогаются.
func rewriteConditionPaths(src string) string {
	var out strings.Builder
	inQuote := byte(0)
	i := 0
	for i < len(src) {
		ch := src[i]
		if inQuote == 0 && (ch == '\'' || ch == '"') {
			inQuote = ch
			out.WriteByte(ch)
			i++
			continue
		}
		if inQuote != 0 {
			out.WriteByte(ch)
			if ch == inQuote {
				inQuote = 0
			}
			i++
			continue
		}
		if isIdentStart(ch) {
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			word := src[i:j]
			switch {
			case word == "true" || word == "false" || word == "nil" ||
				word == "and" || word == "or" || word == "not" || word == "in":
				out.WriteString(word)
			case j < len(src) && src[j] == '(':
				out.WriteString(word)
			default:
				out.WriteString(`path("`)
				out.WriteString(word)
				out.WriteString(`")`)
			}
			i = j
			continue
		}
		out.WriteByte(ch)
		i++
	}
	return out.String()
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || ch == '.' || (ch >= '0' && ch <= '9')
}

// ResolveSheet применяет ResolveText к каждой ячейке листа ровно один раз.
// Результат, выглядящий как чистое число, записывается числом, чтобы формулы
// листа продолжали считаться; ячейка с директивой \# дополнительно получает
// денежный числовой формат — иначе коэрция стёрла бы разделители тысяч.
func (t *Template) ResolveSheet(sheet string, rec Record) error {
	rows, err := t.f.GetRows(sheet)
	if err != nil {
		return err
	}
	for rIdx, row := range rows {
		for cIdx, cell := range row {
			if !strings.Contains(cell, "{{") {
				continue
			}
			resolved := ResolveText(cell, rec)
			if resolved == cell {
				continue
			}
			addr, _ := excelize.CoordinatesToCellName(cIdx+1, rIdx+1)
			if num, ok := CoerceNumeric(resolved); ok {
				if err = t.f.SetCellValue(sheet, addr, num); err != nil {
					return err
				}
				if strings.Contains(cell, `\#`) {
					err = t.SetCellNumberFormat(sheet, addr, "#,##0.00")
				}
			} else {
				err = t.f.SetCellValue(sheet, addr, resolved)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// StripSheetTokens — финальный проход: снимает оставшиеся токены по всему
// листу, опустевшие ячейки обнуляет.
func (t *Template) StripSheetTokens(sheet string) error {
	rows, err := t.f.GetRows(sheet)
	if err != nil {
		return err
	}
	for rIdx, row := range rows {
		for cIdx, cell := range row {
			if !strings.Contains(cell, "{{") {
				continue
			}
			stripped := StripTokens(cell)
			addr, _ := excelize.CoordinatesToCellName(cIdx+1, rIdx+1)
			if strings.TrimSpace(stripped) == "" {
				stripped = ""
			}
			if err := t.f.SetCellValue(sheet, addr, stripped); err != nil {
				return err
			}
		}
	}
	return nil
}

package docforge

import (
	"fmt"
	"strconv"
	"strings"
)

// Record — плоское отображение путей полей на значения, как их отдаёт CRM:
// ключи вида "Shipment__c.Consignee__r.Name", значения строки/числа/nil.
type Record map[string]interface{}

// RecordSet — упорядоченный набор записей. Порядок значим: он определяет
// порядок строк таблицы в выходном документе.
type RecordSet []Record

// Merge возвращает копию записи, дополненную ключами other.
func (r Record) Merge(other Record) Record {
	out := make(Record, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// toString приводит значение записи к строковому виду; nil — пустая строка.
func toString(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		if vv {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", vv)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(vv, ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case float64:
		return vv != 0
	case []interface{}:
		return len(vv) > 0
	case map[string]interface{}:
		return len(vv) > 0
	default:
		return true
	}
}

// CoerceNumeric распознаёт чистый числовой литерал, возможно с разделителями
// тысяч: "1,234.50" -> 1234.5. Строки с ведущим нулём без десятичной части
// ("0123") остаются текстом, чтобы не терять артикулы и номера заказов.
func CoerceNumeric(s string) (float64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, false
	}
	neg := clean
	if strings.HasPrefix(neg, "-") || strings.HasPrefix(neg, "+") {
		neg = neg[1:]
	}
	if neg == "" || neg[0] < '0' || neg[0] > '9' {
		return 0, false
	}
	if len(neg) > 1 && neg[0] == '0' && !strings.HasPrefix(neg, "0.") {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatThousands — денежный вид с двумя знаками и разделителями тысяч,
// соответствует директиве формата "#,##0.##".
func FormatThousands(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	if neg {
		return "-" + b.String() + frac
	}
	return b.String() + frac
}

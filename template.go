package docforge

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Движок слияния шаблонов Excel с записями CRM.
// Шаблон — обычная книга xlsx, в ячейках которой размечены плейсхолдеры
// {{...}} (см. placeholder.go) и табличные области {{TableStart:Имя}} /
// {{TableEnd:Имя}} (см. table.go). Шаблон загружается на каждую генерацию
// заново, состояние между запросами не разделяется.

// Template — загруженная книга-шаблон.
type Template struct {
	f *excelize.File
}

// LoadTemplate открывает книгу-шаблон с диска.
func LoadTemplate(path string) (*Template, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("открытие шаблона %s: %w", path, err)
	}
	return &Template{f: f}, nil
}

// Wrap оборачивает уже открытую книгу.
func Wrap(f *excelize.File) *Template {
	return &Template{f: f}
}

// File отдаёт книгу для прямого доступа к ячейкам.
func (t *Template) File() *excelize.File { return t.f }

// SheetOrDefault возвращает name, если такой лист есть, иначе первый лист
// книги.
func (t *Template) SheetOrDefault(name string) string {
	for _, s := range t.f.GetSheetList() {
		if s == name {
			return name
		}
	}
	return t.f.GetSheetName(0)
}

// Save сохраняет книгу в файл.
func (t *Template) Save(path string) error { return t.f.SaveAs(path) }

// Bytes сериализует книгу в память (для выгрузки в CRM).
func (t *Template) Bytes() ([]byte, error) {
	buf, err := t.f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close освобождает ресурсы книги.
func (t *Template) Close() error { return t.f.Close() }

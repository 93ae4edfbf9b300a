// Package docs собирает выходные документы: тянет записи из CRM, прогоняет
// их через шаблоны и выгружает готовые файлы обратно в CRM.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
	"github.com/nikitaxru/docforge/internal/crm"
	"github.com/nikitaxru/docforge/internal/history"
)

// RecordSource — читающая сторона CRM. Реализуется crm.Client; в тестах
// подменяется фейком.
type RecordSource interface {
	Query(ctx context.Context, soql string) (docforge.RecordSet, error)
	QueryAll(ctx context.Context, soql string) (docforge.RecordSet, error)
	PicklistValues(ctx context.Context, object, field string) ([]string, error)
}

// Sink — приёмник готовых файлов (ContentVersion в CRM).
type Sink interface {
	UploadContentVersion(ctx context.Context, title, fileName string, data []byte, parentID string) (string, error)
}

// Manifest описывает результат генерации; имена полей JSON совпадают с
// ответами HTTP-API.
type Manifest struct {
	FilePath         string   `json:"file_path"`
	FileName         string   `json:"file_name"`
	ContentVersionID string   `json:"salesforce_content_version_id"`
	ItemCount        int      `json:"item_count,omitempty"`
	DepositCount     int      `json:"deposit_count,omitempty"`
	RefundCount      int      `json:"refund_count,omitempty"`
	DiscountApplied  bool     `json:"discount_exists,omitempty"`
	TemplateUsed     string   `json:"template_used,omitempty"`
	FreightOptions   []string `json:"freight_options_used,omitempty"`
	Sheets           []string `json:"sheets,omitempty"`
}

// Generator держит зависимости всех сборщиков документов.
type Generator struct {
	src       RecordSource
	sink      Sink
	templates config.Templates
	outputDir string
	log       *zap.Logger
	journal   *history.Journal
	now       func() time.Time
}

func NewGenerator(src RecordSource, sink Sink, templates config.Templates, outputDir string, log *zap.Logger, journal *history.Journal) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		src:       src,
		sink:      sink,
		templates: templates,
		outputDir: outputDir,
		log:       log,
		journal:   journal,
		now:       time.Now,
	}
}

const fileTimestamp = "2006-01-02_15-04-05"

// saveAndUpload сохраняет книгу на диск и выгружает её в CRM одной копией.
// Имя файла: <prefix>_<label>_<timestamp>.xlsx.
func (g *Generator) saveAndUpload(ctx context.Context, t *docforge.Template, prefix, label, parentID string) (filePath, fileName, versionID string, err error) {
	fileName = fmt.Sprintf("%s_%s_%s.xlsx", prefix, safeLabel(label), g.now().Format(fileTimestamp))
	if err = os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("каталог вывода %s: %w", g.outputDir, err)
	}
	filePath = filepath.Join(g.outputDir, fileName)
	if err = t.Save(filePath); err != nil {
		return "", "", "", fmt.Errorf("сохранение %s: %w", filePath, err)
	}
	data, err := t.Bytes()
	if err != nil {
		return "", "", "", err
	}
	title := strings.TrimSuffix(fileName, ".xlsx")
	versionID, err = g.sink.UploadContentVersion(ctx, title, fileName, data, parentID)
	if err != nil {
		return "", "", "", fmt.Errorf("выгрузка %s в CRM: %w", fileName, err)
	}
	g.log.Info("документ сформирован",
		zap.String("file", fileName),
		zap.String("content_version", versionID))
	return filePath, fileName, versionID, nil
}

// record пишет строку журнала; журнал необязателен и не влияет на результат.
func (g *Generator) record(ctx context.Context, docType, objectID string, m *Manifest) {
	g.journal.Record(ctx, history.Entry{
		DocumentType:     docType,
		ObjectID:         objectID,
		FileName:         m.FileName,
		ContentVersionID: m.ContentVersionID,
		ItemCount:        m.ItemCount,
		DepositCount:     m.DepositCount,
		RefundCount:      m.RefundCount,
		TemplateUsed:     m.TemplateUsed,
	})
}

// fetchOne выполняет запрос первичной записи; пустой результат — ErrNotFound.
func (g *Generator) fetchOne(ctx context.Context, soql, object, id string) (docforge.Record, error) {
	rs, err := g.src.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", object, id, crm.ErrNotFound)
	}
	return rs[0], nil
}

// picklist возвращает значения пиклиста; ошибка деградирует до предупреждения
// и пустого списка — документ собирается без чекбоксов.
func (g *Generator) picklist(ctx context.Context, object, field string) []string {
	opts, err := g.src.PicklistValues(ctx, object, field)
	if err != nil {
		g.log.Warn("пиклист недоступен",
			zap.String("object", object),
			zap.String("field", field),
			zap.Error(err))
		return nil
	}
	return opts
}

// safeLabel чистит пользовательскую часть имени файла от разделителей путей.
func safeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Draft"
	}
	r := strings.NewReplacer("/", "-", "\\", "-", "..", "-")
	return r.Replace(s)
}

// str приводит значение записи к строке; nil — пустая строка.
func str(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		return docforge.CoerceNumeric(x)
	default:
		return 0, false
	}
}

// prefixRecord возвращает копию записи с ключами prefix+key.
func prefixRecord(prefix string, rec docforge.Record) docforge.Record {
	out := make(docforge.Record, len(rec))
	for k, v := range rec {
		out[prefix+k] = v
	}
	return out
}

// discountExists проверяет скидку отгрузки: процент либо сумма отличны от
// нуля и пустоты.
func discountExists(rec docforge.Record) bool {
	for _, key := range []string{"Discount_Percentage__c", "Discount_Amount__c"} {
		switch v := rec[key].(type) {
		case nil:
		case string:
			if v != "" && v != "0" {
				return true
			}
		case float64:
			if v != 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

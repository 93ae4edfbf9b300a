// Package history — локальный журнал сгенерированных документов.
// Журнал ведётся по возможности: хранилище может быть эфемерным, поэтому
// любая ошибка записи — предупреждение, а не отказ генерации.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Entry — одна строка журнала.
type Entry struct {
	ID               int64     `json:"id"`
	DocumentType     string    `json:"document_type"`
	ObjectID         string    `json:"object_id"`
	FileName         string    `json:"file_name"`
	ContentVersionID string    `json:"content_version_id"`
	ItemCount        int       `json:"item_count"`
	DepositCount     int       `json:"deposit_count"`
	RefundCount      int       `json:"refund_count"`
	TemplateUsed     string    `json:"template_used"`
	CreatedAt        time.Time `json:"created_at"`
}

// Journal — журнал на sqlite. Нулевой указатель допустим: все операции
// превращаются в no-op.
type Journal struct {
	db  *sql.DB
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_type TEXT NOT NULL,
	object_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	content_version_id TEXT,
	item_count INTEGER NOT NULL DEFAULT 0,
	deposit_count INTEGER NOT NULL DEFAULT 0,
	refund_count INTEGER NOT NULL DEFAULT 0,
	template_used TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func Open(path string, log *zap.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, log: log}, nil
}

// Record добавляет строку журнала. Ошибки журналирования не фатальны.
func (j *Journal) Record(ctx context.Context, e Entry) {
	if j == nil || j.db == nil {
		return
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO generations
		 (document_type, object_id, file_name, content_version_id,
		  item_count, deposit_count, refund_count, template_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DocumentType, e.ObjectID, e.FileName, e.ContentVersionID,
		e.ItemCount, e.DepositCount, e.RefundCount, e.TemplateUsed)
	if err != nil {
		j.log.Warn("журнал генераций недоступен", zap.Error(err))
	}
}

// Recent возвращает последние limit записей журнала, новые первыми.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, document_type, object_id, file_name,
		        COALESCE(content_version_id, ''), item_count, deposit_count,
		        refund_count, COALESCE(template_used, ''), created_at
		 FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DocumentType, &e.ObjectID, &e.FileName,
			&e.ContentVersionID, &e.ItemCount, &e.DepositCount,
			&e.RefundCount, &e.TemplateUsed, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

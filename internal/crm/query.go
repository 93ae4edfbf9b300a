package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nikitaxru/docforge"
)

type queryResponse struct {
	TotalSize      int                      `json:"totalSize"`
	Done           bool                     `json:"done"`
	NextRecordsURL string                   `json:"nextRecordsUrl"`
	Records        []map[string]interface{} `json:"records"`
}

// Query выполняет SOQL-запрос и возвращает первую страницу результатов,
// сплющенных в плоские записи (связанные объекты — через точку, служебный
// блок attributes отбрасывается). Порядок записей сохраняется.
func (c *Client) Query(ctx context.Context, soql string) (docforge.RecordSet, error) {
	page, err := c.queryPage(ctx, "/services/data/"+c.cfg.APIVersion+"/query?q="+url.QueryEscape(soql))
	if err != nil {
		return nil, err
	}
	return flattenRecords(page.Records), nil
}

// QueryAll выполняет SOQL-запрос и докачивает все страницы результатов.
func (c *Client) QueryAll(ctx context.Context, soql string) (docforge.RecordSet, error) {
	path := "/services/data/" + c.cfg.APIVersion + "/query?q=" + url.QueryEscape(soql)
	var out docforge.RecordSet
	for {
		page, err := c.queryPage(ctx, path)
		if err != nil {
			return nil, err
		}
		out = append(out, flattenRecords(page.Records)...)
		if page.Done || page.NextRecordsURL == "" {
			return out, nil
		}
		path = page.NextRecordsURL
	}
}

func (c *Client) queryPage(ctx context.Context, path string) (*queryResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("запрос CRM: статус %d", resp.StatusCode)
	}
	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("запрос CRM: %w", err)
	}
	return &qr, nil
}

// flattenRecords приводит сырые записи к плоской форме с точечными путями.
func flattenRecords(raw []map[string]interface{}) docforge.RecordSet {
	out := make(docforge.RecordSet, 0, len(raw))
	for _, r := range raw {
		rec := docforge.Record{}
		flattenInto(rec, "", r)
		out = append(out, rec)
	}
	return out
}

func flattenInto(dst docforge.Record, prefix string, src map[string]interface{}) {
	for k, v := range src {
		if k == "attributes" {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flattenInto(dst, key, nested)
			continue
		}
		dst[key] = v
	}
}

// EscapeSOQL экранирует строковый литерал для подстановки в запрос.
func EscapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

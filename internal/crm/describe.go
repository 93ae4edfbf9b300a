package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type describeResponse struct {
	Fields []struct {
		Name           string `json:"name"`
		Type           string `json:"type"`
		PicklistValues []struct {
			Value  string `json:"value"`
			Active bool   `json:"active"`
		} `json:"picklistValues"`
	} `json:"fields"`
}

// PicklistValues возвращает активные значения пиклиста поля объекта.
// Вызывающая сторона трактует ошибку как предупреждение: документ
// генерируется дальше с пустым списком вариантов.
func (c *Client) PicklistValues(ctx context.Context, object, field string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet,
		"/services/data/"+c.cfg.APIVersion+"/sobjects/"+object+"/describe", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("describe %s: статус %d", object, resp.StatusCode)
	}
	var dr describeResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("describe %s: %w", object, err)
	}
	for _, f := range dr.Fields {
		if f.Name != field {
			continue
		}
		if f.Type != "picklist" && f.Type != "multipicklist" {
			return nil, fmt.Errorf("%s.%s не является пиклистом (тип %s)", object, field, f.Type)
		}
		var out []string
		for _, pv := range f.PicklistValues {
			if pv.Active {
				out = append(out, pv.Value)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("поле %s не найдено на объекте %s", field, object)
}

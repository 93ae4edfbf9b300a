package crm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// UploadContentVersion загружает готовый документ как вложение к записи
// parentID и возвращает идентификатор созданного объекта.
func (c *Client) UploadContentVersion(ctx context.Context, title, fileName string, data []byte, parentID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"Title":                  title,
		"PathOnClient":           fileName,
		"VersionData":            base64.StdEncoding.EncodeToString(data),
		"FirstPublishLocationId": parentID,
	})
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost,
		"/services/data/"+c.cfg.APIVersion+"/sobjects/ContentVersion",
		bytes.NewReader(body), "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("выгрузка ContentVersion: статус %d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("выгрузка ContentVersion: %w", err)
	}
	return created.ID, nil
}

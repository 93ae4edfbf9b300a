package crm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient поднимает фейковую CRM: авторизация, постраничный query,
// describe и приём ContentVersion.
func newTestClient(t *testing.T) (*Client, *httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/services/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.Form.Get("grant_type"))
		assert.Equal(t, "user@example.com", r.Form.Get("username"))
		// пароль склеивается с security token
		assert.Equal(t, "pwTOKEN", r.Form.Get("password"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-1",
			"instance_url": srv.URL,
		})
	})
	mux.HandleFunc("/services/data/v59.0/query", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"totalSize":      2,
			"done":           false,
			"nextRecordsUrl": "/services/data/v59.0/query/next-01",
			"records": []map[string]interface{}{
				{
					"attributes": map[string]interface{}{"type": "Shipment__c"},
					"Name":       "SHP-001",
					"Consignee__r": map[string]interface{}{
						"attributes": map[string]interface{}{"type": "Account"},
						"Name":       "ООО Гранит",
					},
				},
			},
		})
	})
	mux.HandleFunc("/services/data/v59.0/query/next-01", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]interface{}{
				{"attributes": map[string]interface{}{}, "Name": "SHP-002"},
			},
		})
	})
	mux.HandleFunc("/services/data/v59.0/sobjects/Shipment__c/describe", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"fields": []map[string]interface{}{
				{
					"name": "Freight__c",
					"type": "picklist",
					"picklistValues": []map[string]interface{}{
						{"value": "Sea", "active": true},
						{"value": "Rail", "active": false},
						{"value": "Air", "active": true},
					},
				},
			},
		})
	})
	mux.HandleFunc("/services/data/v59.0/sobjects/ContentVersion", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, err := base64.StdEncoding.DecodeString(body["VersionData"])
		require.NoError(t, err)
		assert.Equal(t, "данные файла", string(raw))
		assert.Equal(t, "Invoice_SHP-001", body["Title"])
		assert.Equal(t, "a0X000001", body["FirstPublishLocationId"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "068000042"})
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		LoginURL:       srv.URL,
		Username:       "user@example.com",
		Password:       "pw",
		SecurityToken:  "TOKEN",
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
	}, zap.NewNop())
	return c, srv, &paths
}

func TestQueryFlattensNestedRecords(t *testing.T) {
	c, _, _ := newTestClient(t)

	rs, err := c.Query(context.Background(), "SELECT Name FROM Shipment__c")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	// attributes отброшены, вложенная карта развёрнута в точечные ключи
	assert.Equal(t, "SHP-001", rs[0]["Name"])
	assert.Equal(t, "ООО Гранит", rs[0]["Consignee__r.Name"])
	assert.NotContains(t, rs[0], "attributes")
}

func TestQueryAllFollowsPaging(t *testing.T) {
	c, _, paths := newTestClient(t)

	rs, err := c.QueryAll(context.Background(), "SELECT Name FROM Shipment__c")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "SHP-002", rs[1]["Name"])
	assert.Equal(t, []string{
		"/services/data/v59.0/query",
		"/services/data/v59.0/query/next-01",
	}, *paths)
}

func TestPicklistValuesActiveOnly(t *testing.T) {
	c, _, _ := newTestClient(t)

	opts, err := c.PicklistValues(context.Background(), "Shipment__c", "Freight__c")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sea", "Air"}, opts)

	_, err = c.PicklistValues(context.Background(), "Shipment__c", "Nothing__c")
	require.Error(t, err)
}

func TestUploadContentVersion(t *testing.T) {
	c, _, _ := newTestClient(t)

	id, err := c.UploadContentVersion(context.Background(),
		"Invoice_SHP-001", "Invoice_SHP-001.xlsx", []byte("данные файла"), "a0X000001")
	require.NoError(t, err)
	assert.Equal(t, "068000042", id)
}

func TestEscapeSOQL(t *testing.T) {
	assert.Equal(t, `O\'Brien`, EscapeSOQL("O'Brien"))
	assert.Equal(t, `a\\b`, EscapeSOQL(`a\b`))
}

// Package crm — клиент CRM: выборки записей (SOQL), значения пиклистов и
// выгрузка готовых документов как вложений ContentVersion.
package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound — первичная запись по идентификатору отсутствует.
var ErrNotFound = errors.New("запись не найдена")

// Config — учётные данные и адреса CRM.
type Config struct {
	LoginURL       string
	Username       string
	Password       string
	SecurityToken  string
	ConsumerKey    string
	ConsumerSecret string
	APIVersion     string
}

// Client — REST-клиент CRM с ленивой авторизацией (OAuth2 password flow).
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	mu          sync.Mutex
	accessToken string
	instanceURL string
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.LoginURL == "" {
		cfg.LoginURL = "https://login.salesforce.com"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v59.0"
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	InstanceURL      string `json:"instance_url"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" {
		return nil
	}
	if c.cfg.Username == "" || c.cfg.Password == "" || c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return errors.New("учётные данные CRM не заданы")
	}
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.cfg.ConsumerKey},
		"client_secret": {c.cfg.ConsumerSecret},
		"username":      {c.cfg.Username},
		"password":      {c.cfg.Password + c.cfg.SecurityToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.LoginURL, "/")+"/services/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("авторизация в CRM: %w", err)
	}
	defer resp.Body.Close()
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("авторизация в CRM: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		return fmt.Errorf("авторизация в CRM: %s %s", tok.Error, tok.ErrorDescription)
	}
	c.accessToken = tok.AccessToken
	c.instanceURL = strings.TrimRight(tok.InstanceURL, "/")
	c.log.Info("сессия CRM открыта", zap.String("instance", c.instanceURL))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	base, token := c.instanceURL, c.accessToken
	c.mu.Unlock()
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}

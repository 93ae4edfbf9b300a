// Package config — конфигурация сервиса: YAML-файл плюс переменные
// окружения (переменные имеют приоритет, их имена сохранены от прежних
// развёртываний).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Salesforce struct {
	LoginURL       string `yaml:"login_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SecurityToken  string `yaml:"security_token"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	APIVersion     string `yaml:"api_version"`
}

// Templates — пути к шаблонам по типам документов.
type Templates struct {
	PackingList     string `yaml:"packing_list"`
	Invoice         string `yaml:"invoice"`
	InvoiceDiscount string `yaml:"invoice_discount"`
	ProformaInvoice string `yaml:"proforma_invoice"`
	ProductionOrder string `yaml:"production_order"`
	Quote           string `yaml:"quote"`
}

type Config struct {
	Listen     string     `yaml:"listen"`
	OutputDir  string     `yaml:"output_dir"`
	HistoryDB  string     `yaml:"history_db"`
	Salesforce Salesforce `yaml:"salesforce"`
	Templates  Templates  `yaml:"templates"`
}

func defaults() *Config {
	return &Config{
		Listen:    ":8080",
		OutputDir: "output",
		HistoryDB: "docforge_history.db",
		Templates: Templates{
			PackingList:     "templates/packing_list_template.xlsx",
			Invoice:         "templates/invoice_template.xlsx",
			InvoiceDiscount: "templates/invoice_template_w_discount.xlsx",
			ProformaInvoice: "templates/proforma_invoice_template_no_discount.xlsx",
			ProductionOrder: "templates/production_order_template.xlsx",
			Quote:           "templates/quotation_template_no_discount.xlsx",
		},
	}
}

// Load читает конфигурацию из файла path (пустой path — только значения по
// умолчанию) и накладывает переменные окружения.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setenv(&c.Listen, "LISTEN")
	if port := os.Getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	setenv(&c.OutputDir, "OUTPUT_DIR")
	setenv(&c.HistoryDB, "HISTORY_DB")
	setenv(&c.Salesforce.LoginURL, "SALESFORCE_LOGIN_URL")
	setenv(&c.Salesforce.Username, "SALESFORCE_USERNAME")
	setenv(&c.Salesforce.Password, "SALESFORCE_PASSWORD")
	setenv(&c.Salesforce.SecurityToken, "SALESFORCE_SECURITY_TOKEN")
	setenv(&c.Salesforce.ConsumerKey, "SALESFORCE_CONSUMER_KEY")
	setenv(&c.Salesforce.ConsumerSecret, "SALESFORCE_CONSUMER_SECRET")
	setenv(&c.Templates.PackingList, "TEMPLATE_PATH")
	setenv(&c.Templates.Invoice, "INVOICE_TEMPLATE_PATH")
	setenv(&c.Templates.InvoiceDiscount, "INVOICE_DISCOUNT_TEMPLATE_PATH")
	setenv(&c.Templates.ProformaInvoice, "PI_NO_DISCOUNT_TEMPLATE_PATH")
	setenv(&c.Templates.ProductionOrder, "PRODUCTION_ORDER_TEMPLATE_PATH")
	setenv(&c.Templates.Quote, "QUOTE_NO_DISCOUNT_TEMPLATE_PATH")
}

func setenv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// ResolveTemplate возвращает path, если файл существует, иначе пробует
// запасной путь — файл с тем же именем в текущем каталоге.
func ResolveTemplate(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	base := filepath.Base(path)
	if _, err := os.Stat(base); err == nil {
		return base, nil
	}
	return "", fmt.Errorf("шаблон не найден: %s: %w", path, os.ErrNotExist)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "docforge_history.db", cfg.HistoryDB)
	assert.Equal(t, "templates/packing_list_template.xlsx", cfg.Templates.PackingList)
	assert.Equal(t, "templates/invoice_template_w_discount.xlsx", cfg.Templates.InvoiceDiscount)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9000"
output_dir: /var/docforge
salesforce:
  login_url: https://login.salesforce.com
  username: svc@example.com
  api_version: v59.0
templates:
  invoice: special/invoice.xlsx
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/var/docforge", cfg.OutputDir)
	assert.Equal(t, "svc@example.com", cfg.Salesforce.Username)
	assert.Equal(t, "special/invoice.xlsx", cfg.Templates.Invoice)
	// незатронутые поля остаются со значениями по умолчанию
	assert.Equal(t, "docforge_history.db", cfg.HistoryDB)
	assert.Equal(t, "templates/packing_list_template.xlsx", cfg.Templates.PackingList)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "нет.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "чтение конфигурации")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("SALESFORCE_USERNAME", "env@example.com")
	t.Setenv("TEMPLATE_PATH", "/opt/tpl/packing.xlsx")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "env@example.com", cfg.Salesforce.Username)
	assert.Equal(t, "/opt/tpl/packing.xlsx", cfg.Templates.PackingList)
}

func TestEnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o644))
	t.Setenv("LISTEN", ":6000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Listen)
}

func TestResolveTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))

	got, err := ResolveTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolveTemplateFallsBackToCwd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.xlsx"), []byte("xlsx"), 0o644))
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	got, err := ResolveTemplate("/nonexistent/dir/invoice.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "invoice.xlsx", got)
}

func TestResolveTemplateMissing(t *testing.T) {
	_, err := ResolveTemplate(filepath.Join(t.TempDir(), "нет.xlsx"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

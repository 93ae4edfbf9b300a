package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/crm"
	"github.com/nikitaxru/docforge/internal/docs"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// envelope — единый конверт ответов API.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("запись ответа не удалась", zap.Error(err))
	}
}

func (s *Server) ok(w http.ResponseWriter, message string, data interface{}) {
	s.writeJSON(w, http.StatusOK, envelope{Status: "success", Message: message, Data: data})
}

// writeError переводит ошибки генерации в коды HTTP: отсутствующая запись —
// 404, дефект шаблона — 422, остальное — 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, crm.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, docforge.ErrMarkerNotFound),
		errors.Is(err, docforge.ErrTotalRowNotFound),
		errors.Is(err, os.ErrNotExist):
		code = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, code, envelope{Status: "error", Message: err.Error()})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.ok(w, "Сервис генерации документов CRM", map[string]string{
		"GET /health":                                  "проверка состояния",
		"GET|POST /generate-packing-list":              "упаковочный лист",
		"GET /generate-invoice/{shipment_id}":          "инвойс",
		"GET /generate-combined-export/{shipment_id}":  "упаковочный лист и инвойс одной книгой",
		"GET /generate-pi-no-discount/{contract_id}":   "проформа-инвойс",
		"GET /generate-production-order/{contract_id}": "производственный заказ",
		"GET /generate-quote-no-discount/{quote_id}":   "коммерческое предложение",
		"GET /download/{file_name}":                    "скачивание готового файла",
		"GET /history":                                 "журнал генераций",
	})
}

// handleHealth проверяет доступность CRM живым запросом метаданных.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	opts, err := s.src.PicklistValues(r.Context(), "Shipment__c", "Freight__c")
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, envelope{
			Status:  "error",
			Message: "CRM недоступна: " + err.Error(),
		})
		return
	}
	s.ok(w, "healthy", map[string]interface{}{
		"freight_options": opts,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handlePackingListGet(w http.ResponseWriter, r *http.Request) {
	shipmentID := r.URL.Query().Get("shipment_id")
	if shipmentID == "" {
		s.writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "параметр shipment_id обязателен"})
		return
	}
	s.generate(r.Context(), w, "упаковочный лист", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.PackingList(ctx, shipmentID)
	})
}

func (s *Server) handlePackingListPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShipmentID string `json:"shipment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShipmentID == "" {
		s.writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "тело запроса должно содержать shipment_id"})
		return
	}
	s.generate(r.Context(), w, "упаковочный лист", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.PackingList(ctx, req.ShipmentID)
	})
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["shipment_id"]
	s.generate(r.Context(), w, "инвойс", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.Invoice(ctx, id)
	})
}

func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["shipment_id"]
	s.generate(r.Context(), w, "объединённый экспорт", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.CombinedExport(ctx, id)
	})
}

func (s *Server) handleProforma(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["contract_id"]
	s.generate(r.Context(), w, "проформа-инвойс", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.ProformaInvoice(ctx, id)
	})
}

func (s *Server) handleProductionOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["contract_id"]
	s.generate(r.Context(), w, "производственный заказ", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.ProductionOrder(ctx, id)
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["quote_id"]
	s.generate(r.Context(), w, "коммерческое предложение", func(ctx context.Context) (*docs.Manifest, error) {
		return s.gen.Quote(ctx, id)
	})
}

func (s *Server) generate(ctx context.Context, w http.ResponseWriter, what string, fn func(context.Context) (*docs.Manifest, error)) {
	m, err := fn(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.ok(w, what+" сформирован", m)
}

// handleDownload отдаёт готовый файл из каталога вывода. Имя файла
// ограничено базовым именем, выход за каталог невозможен.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file_name"]
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".xlsx") {
		s.writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "недопустимое имя файла"})
		return
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		s.writeJSON(w, http.StatusNotFound, envelope{Status: "error", Message: "файл не найден"})
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.ok(w, "журнал генераций", entries)
}

// Package httpapi — HTTP-интерфейс сервиса генерации документов.
package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nikitaxru/docforge/internal/docs"
	"github.com/nikitaxru/docforge/internal/history"
)

type Server struct {
	gen       *docs.Generator
	src       docs.RecordSource
	journal   *history.Journal
	outputDir string
	log       *zap.Logger
}

func NewServer(gen *docs.Generator, src docs.RecordSource, journal *history.Journal, outputDir string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{gen: gen, src: src, journal: journal, outputDir: outputDir, log: log}
}

// Router собирает маршруты сервиса.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLog)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/generate-packing-list", s.handlePackingListGet).Methods(http.MethodGet)
	r.HandleFunc("/generate-packing-list", s.handlePackingListPost).Methods(http.MethodPost)
	r.HandleFunc("/generate-invoice/{shipment_id}", s.handleInvoice).Methods(http.MethodGet)
	r.HandleFunc("/generate-combined-export/{shipment_id}", s.handleCombined).Methods(http.MethodGet)
	r.HandleFunc("/generate-pi-no-discount/{contract_id}", s.handleProforma).Methods(http.MethodGet)
	r.HandleFunc("/generate-production-order/{contract_id}", s.handleProductionOrder).Methods(http.MethodGet)
	r.HandleFunc("/generate-quote-no-discount/{quote_id}", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/download/{file_name}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	return r
}

// requestLog присваивает запросу идентификатор и пишет итоговую строку лога.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info("запрос обработан",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

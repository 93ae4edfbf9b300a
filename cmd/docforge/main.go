// Команда docforge: HTTP-сервис генерации документов из шаблонов Excel по
// данным CRM, плюс разовая генерация из командной строки.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nikitaxru/docforge/internal/config"
	"github.com/nikitaxru/docforge/internal/crm"
	"github.com/nikitaxru/docforge/internal/docs"
	"github.com/nikitaxru/docforge/internal/history"
	"github.com/nikitaxru/docforge/internal/httpapi"
)

var (
	cfgPath string
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docforge",
	Short: "Генерация документов Excel по данным CRM",
	Long: `docforge заполняет шаблоны Excel данными CRM: упаковочные листы,
инвойсы, проформы, производственные заказы и коммерческие предложения.
Готовые файлы сохраняются локально и выгружаются в CRM.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("инициализация логгера: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP-сервис",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		gen, client, journal, err := buildGenerator(cfg)
		if err != nil {
			return err
		}
		defer journal.Close()

		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           httpapi.NewServer(gen, client, journal, cfg.OutputDir, logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("сервис запущен", zap.String("addr", cfg.Listen))
			errCh <- srv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("получен сигнал остановки", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("остановка сервера не удалась", zap.Error(err))
			_ = srv.Close()
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <тип> <id>",
	Short: "Сформировать один документ и вывести манифест",
	Long: `Типы документов: packing-list, invoice, combined, proforma,
production-order, quote. Идентификатор — Id первичной записи CRM.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		gen, _, journal, err := buildGenerator(cfg)
		if err != nil {
			return err
		}
		defer journal.Close()

		ctx := cmd.Context()
		var m *docs.Manifest
		switch args[0] {
		case "packing-list":
			m, err = gen.PackingList(ctx, args[1])
		case "invoice":
			m, err = gen.Invoice(ctx, args[1])
		case "combined":
			m, err = gen.CombinedExport(ctx, args[1])
		case "proforma":
			m, err = gen.ProformaInvoice(ctx, args[1])
		case "production-order":
			m, err = gen.ProductionOrder(ctx, args[1])
		case "quote":
			m, err = gen.Quote(ctx, args[1])
		default:
			return fmt.Errorf("неизвестный тип документа: %s", args[0])
		}
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func buildGenerator(cfg *config.Config) (*docs.Generator, *crm.Client, *history.Journal, error) {
	client := crm.NewClient(crm.Config{
		LoginURL:       cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		Password:       cfg.Salesforce.Password,
		SecurityToken:  cfg.Salesforce.SecurityToken,
		ConsumerKey:    cfg.Salesforce.ConsumerKey,
		ConsumerSecret: cfg.Salesforce.ConsumerSecret,
		APIVersion:     cfg.Salesforce.APIVersion,
	}, logger)

	journal, err := history.Open(cfg.HistoryDB, logger)
	if err != nil {
		// Без журнала сервис работает, история просто не пишется.
		logger.Warn("журнал генераций не открылся", zap.Error(err))
		journal = nil
	}

	gen := docs.NewGenerator(client, client, cfg.Templates, cfg.OutputDir, logger, journal)
	return gen, client, journal, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "путь к файлу конфигурации YAML")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "подробное логирование")
	rootCmd.AddCommand(serveCmd, generateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

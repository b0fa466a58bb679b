package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harvestlab/ecomharvest/internal/cleaner"
	"github.com/harvestlab/ecomharvest/internal/config"
	"github.com/harvestlab/ecomharvest/internal/db"
	"github.com/harvestlab/ecomharvest/internal/domain"
	"github.com/harvestlab/ecomharvest/internal/export"
	"github.com/harvestlab/ecomharvest/internal/repository"
	"github.com/harvestlab/ecomharvest/internal/scraper"
)

func main() {
	apiProducts := flag.Int("api-products", 0, "maximum products to fetch from the API (0 = configured default)")
	webProducts := flag.Int("web-products", 0, "maximum products to crawl from the web catalog (0 = configured default)")
	webPages := flag.Int("web-pages", 0, "maximum catalog pages to crawl (0 = configured default)")
	apiOnly := flag.Bool("api-only", false, "collect from the API source only")
	webOnly := flag.Bool("web-only", false, "collect from the web source only")
	outDir := flag.String("out", "", "output directory (overrides configuration)")
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if *apiOnly && *webOnly {
		logger.Fatalf("-api-only and -web-only are mutually exclusive")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *apiProducts > 0 {
		cfg.API.MaxProducts = *apiProducts
	}
	if *webProducts > 0 {
		cfg.Web.MaxProducts = *webProducts
	}
	if *webPages > 0 {
		cfg.Web.MaxPages = *webPages
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, !*webOnly, !*apiOnly); err != nil {
		logger.Fatalf("Pipeline failed: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger, useAPI, useWeb bool) error {
	run := domain.NewPipelineRun(time.Now())
	clean := cleaner.New(logger)

	// Phase 1: collection.
	logger.Printf("=== Phase 1: data collection ===")
	var apiTable, webTable *domain.Table

	if useAPI {
		client := scraper.NewAPIClient(cfg.API, logger)
		records, err := client.FetchProducts(ctx, cfg.API.MaxProducts)
		if err != nil {
			logger.Printf("API collection failed: %v (continuing with %d records)", err, len(records))
		}
		apiTable = clean.CleanAPIData(records)
		run.APIProducts = apiTable.Len()
	} else {
		apiTable = domain.NewTable()
	}

	if useWeb {
		crawler, err := scraper.NewCatalogCrawler(cfg.Web, logger)
		if err != nil {
			return fmt.Errorf("build catalog crawler: %w", err)
		}
		records, err := crawler.CrawlProducts(ctx, cfg.Web.MaxProducts, cfg.Web.MaxPages)
		if err != nil {
			logger.Printf("Web collection failed: %v (continuing with %d records)", err, len(records))
		}
		webTable = clean.CleanWebData(records)
		run.WebProducts = webTable.Len()
	} else {
		webTable = domain.NewTable()
	}

	if apiTable.IsEmpty() && webTable.IsEmpty() {
		return fmt.Errorf("no products collected from any source")
	}

	// Phase 2: merge and enrich.
	logger.Printf("=== Phase 2: merge and enrichment ===")
	merged := clean.Merge(apiTable, webTable)
	enriched := clean.Enrich(merged)
	stats := clean.Statistics(enriched)
	run.TotalProducts = stats.TotalProducts
	run.TotalColumns = stats.TotalColumns

	// Phase 3: export.
	logger.Printf("=== Phase 3: export ===")
	exporter := export.NewService(cfg.Output.Dir, logger)
	ts := exporter.Timestamp()
	if _, err := exporter.WriteCSV(enriched, "ecommerce_products_"+ts); err != nil {
		return err
	}
	if _, err := exporter.WriteJSON(enriched, "ecommerce_products_"+ts); err != nil {
		return err
	}
	if _, err := exporter.WriteXLSX(enriched, "ecommerce_products_"+ts); err != nil {
		return err
	}
	if _, err := exporter.WriteStatistics(stats, "statistics_"+ts); err != nil {
		return err
	}
	if _, err := exporter.WriteReport(enriched, stats, "report_"+ts); err != nil {
		return err
	}

	// Phase 4: optional persistence.
	if cfg.Database.Enabled {
		logger.Printf("=== Phase 4: persistence ===")
		if err := persist(ctx, cfg.Database.URL, enriched, &run, logger); err != nil {
			return err
		}
	}

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = "completed"
	logger.Printf("Pipeline completed: %d products, %d columns in %s",
		run.TotalProducts, run.TotalColumns, finished.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

func persist(ctx context.Context, url string, table *domain.Table, run *domain.PipelineRun, logger *log.Logger) error {
	if err := db.RunMigrations(url); err != nil {
		return fmt.Errorf("migrate product store: %w", err)
	}

	conn, err := db.NewConnection(ctx, url)
	if err != nil {
		return fmt.Errorf("connect product store: %w", err)
	}
	defer conn.Close()

	products := repository.NewProductRepository(conn)
	written, err := products.SaveTable(ctx, table)
	if err != nil {
		return fmt.Errorf("persist products: %w", err)
	}
	logger.Printf("[db] upserted %d products", written)

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = "completed"
	runs := repository.NewRunRepository(conn)
	if err := runs.Record(ctx, *run); err != nil {
		return fmt.Errorf("record pipeline run: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"investor_intel/pkg/core/growjo"
	"investor_intel/pkg/core/pipeline"
	"investor_intel/pkg/core/refine"
)

var growjoCmd = &cobra.Command{
	Use:   "growjo-update",
	Short: "Scrape recent Growjo updates and merge them into the warehouse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := wire(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		defer logger.Sync()

		updater, err := a.GrowjoUpdater()
		if err != nil {
			return err
		}
		report, err := updater.Run(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("growjo update finished",
			zap.Int("scraped", report.Scraped),
			zap.Int64("new_rows", report.NewRows),
			zap.Duration("duration", report.Duration))
		return printJSON(cmd, report)
	},
}

var importCmd = &cobra.Command{
	Use:   "growjo-import <html-file|url>",
	Short: "Import a Growjo company table into the refined warehouse table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		src := args[0]
		remote := strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")

		var rows []refine.RawRecord
		if !remote {
			html, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			if rows, err = growjo.ParseCompanyTable(string(html)); err != nil {
				return err
			}
		}

		if dryRun && !remote {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			refined, err := refine.RefineParallel(cmd.Context(), rows, cfg.Refine.Workers)
			if err != nil {
				return err
			}
			return printJSON(cmd, refined)
		}

		a, logger, err := wire(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		defer logger.Sync()

		if remote {
			if rows, err = a.GrowjoScraper().CompanyTable(cmd.Context(), src); err != nil {
				return err
			}
		}
		if dryRun {
			refined, err := refine.RefineParallel(cmd.Context(), rows, a.Config.Refine.Workers)
			if err != nil {
				return err
			}
			return printJSON(cmd, refined)
		}

		updater, err := a.GrowjoUpdater()
		if err != nil {
			return err
		}
		report, err := updater.Import(cmd.Context(), rows)
		if err != nil {
			return err
		}
		return printJSON(cmd, report)
	},
}

var reportCmd = &cobra.Command{
	Use:   "index-report <markdown-file>",
	Short: "Store an industry report and index it for search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		industry, _ := cmd.Flags().GetString("industry")
		year, _ := cmd.Flags().GetInt("year")
		title, _ := cmd.Flags().GetString("title")
		pdfPath, _ := cmd.Flags().GetString("pdf")

		markdown, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		in := pipeline.ReportInput{
			Title:    title,
			Industry: industry,
			Year:     year,
			Filename: strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
			Markdown: string(markdown),
		}
		if pdfPath != "" {
			if in.PDF, err = os.ReadFile(pdfPath); err != nil {
				return err
			}
		}

		a, logger, err := wire(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		defer logger.Sync()

		indexer, err := a.ReportIndexer()
		if err != nil {
			return err
		}
		rep, err := indexer.Run(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(cmd, rep)
	},
}

var deckCmd = &cobra.Command{
	Use:   "summarize-deck <pdf>",
	Short: "Summarize a pitch deck, store it and index the summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !strings.EqualFold(filepath.Ext(args[0]), ".pdf") {
			return fmt.Errorf("%s is not a PDF", args[0])
		}
		flags := cmd.Flags()
		in := pipeline.DeckInput{PDFPath: args[0], OriginalFilename: filepath.Base(args[0])}
		in.StartupName, _ = flags.GetString("startup")
		in.Industry, _ = flags.GetString("industry")
		in.Website, _ = flags.GetString("website")
		in.FundingAsk, _ = flags.GetString("funding-ask")

		a, logger, err := wire(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		defer logger.Sync()

		decks, err := a.DeckPipeline()
		if err != nil {
			return err
		}
		res, err := decks.Run(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "print refined rows instead of writing them")

	reportCmd.Flags().String("industry", "", "industry the report covers")
	reportCmd.Flags().Int("year", 0, "publication year")
	reportCmd.Flags().String("title", "", "title; defaults to the first heading")
	reportCmd.Flags().String("pdf", "", "optional source PDF stored next to the markdown")
	_ = reportCmd.MarkFlagRequired("industry")

	deckCmd.Flags().String("startup", "", "startup name; extracted from the deck when empty")
	deckCmd.Flags().String("industry", "", "industry; extracted from the deck when empty")
	deckCmd.Flags().String("website", "", "company website")
	deckCmd.Flags().String("funding-ask", "", "funding ask, e.g. \"$2M\"")
}

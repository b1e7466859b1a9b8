package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ctldb/internal/config"
	"ctldb/internal/fetch"
	"ctldb/internal/logging"
	"ctldb/internal/oscal"
	"ctldb/internal/report"
	"ctldb/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logger := logging.New(cfg.LogLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "catalog:ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		xmlPath := fs.String("xml", "", "catalog xml path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*xmlPath) == "" {
			must(fmt.Errorf("--xml is required"))
		}

		// parse before any write so a bad document aborts cleanly
		doc, err := oscal.LoadDocument(*xmlPath)
		must(err)

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		tx, err := db.Begin()
		must(err)
		if err := oscal.NewIngestor(tx, logger).IngestCatalog(doc); err != nil {
			_ = tx.Rollback()
			must(err)
		}
		must(tx.Commit())
		fmt.Printf("catalog ingested from %s\n", *xmlPath)

	case "profile:ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		xmlPath := fs.String("xml", "", "profile xml path")
		name := fs.String("name", "", "baseline name, e.g. MODERATE")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*xmlPath) == "" || strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--xml and --name are required"))
		}

		doc, err := oscal.LoadDocument(*xmlPath)
		must(err)

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		tx, err := db.Begin()
		must(err)
		if err := oscal.NewIngestor(tx, logger).IngestProfile(doc, *name); err != nil {
			_ = tx.Rollback()
			must(err)
		}
		must(tx.Commit())
		fmt.Printf("baseline %s ingested from %s\n", *name, *xmlPath)

	case "docs:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rawURL := fs.String("url", cfg.CatalogURL, "document url")
		out := fs.String("out", "", "output path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		client := fetch.NewClient(time.Duration(cfg.FetchTimeoutMs)*time.Millisecond, cfg.FetchRateLimitRPS)
		must(client.Download(context.Background(), *rawURL, *out))
		fmt.Printf("downloaded %s to %s\n", *rawURL, *out)

	case "report:pdf":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "pdf volume path")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pdfPath) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--pdf and --out are required"))
		}

		content, err := os.ReadFile(*pdfPath)
		must(err)
		rows, err := report.ExtractControlTables(content)
		must(err)
		must(report.ExportRows(rows, *out))
		fmt.Printf("exported %d controls to %s\n", len(rows), *out)

	case "control:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "control id, e.g. ac-2")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		control, err := db.GetControl(*id)
		must(err)
		if control == nil {
			must(fmt.Errorf("control not found: %s", *id))
		}
		fmt.Printf("%s %s\n", control.ID, deref(control.Title))
		if control.Statement != nil {
			fmt.Println(*control.Statement)
		}
		params, err := db.ListParametersByControl(*id)
		must(err)
		for _, p := range params {
			fmt.Printf("  param %s: %s\n", p.ID, p.Label)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`usage: ctldb <command> [flags]

commands:
  catalog:ingest  --xml <path>
  profile:ingest  --xml <path> --name <baseline>
  docs:fetch      --url <url> --out <path>
  report:pdf      --pdf <path> --out <xlsx>
  control:show    --id <control-id>`)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

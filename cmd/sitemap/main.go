package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"marketplace-sitemap/internal/app"
	"marketplace-sitemap/internal/config"
	"marketplace-sitemap/internal/domain"
	"marketplace-sitemap/internal/export"
	"marketplace-sitemap/internal/sftpclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		outPath    = flag.String("out", cfg.OutPath, "output sitemap path")
		compress   = flag.Bool("brotli", false, "also write <out>.br")
		upload     = flag.Bool("upload", false, "upload to SFTP after generating the file")
		allowEmpty = flag.Bool("allow-empty", false, "write the file even when the sitemap is empty")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	rootCtx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		log.Printf("job finished in %s", time.Since(start))
	}()

	a := app.New(cfg, log.Default())
	entries := a.Generator.Generate(rootCtx)

	if !shouldWrite(entries, *allowEmpty) {
		// keep the previous sitemap instead of publishing an empty one
		log.Printf("WARN: sitemap is empty, leaving %s untouched", *outPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(*outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	written, err := export.WriteSitemap(*outPath, entries, *compress)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d entries to %v", len(entries), written)

	if *upload {
		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			KnownHostsFile:        cfg.SFTPKnownHosts,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}

		upCtx, upCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer upCancel()

		if err := sftpclient.Upload(upCtx, upCfg, written...); err != nil {
			log.Fatal(err)
		}
		log.Printf("uploaded %d file(s) to sftp://%s:%d%s", len(written), upCfg.Host, upCfg.Port, upCfg.RemoteDir)
	}
}

func shouldWrite(entries []domain.Entry, allowEmpty bool) bool {
	return len(entries) > 0 || allowEmpty
}

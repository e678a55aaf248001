package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketplace-sitemap/internal/app"
	"marketplace-sitemap/internal/config"
	"marketplace-sitemap/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	addr := flag.String("addr", cfg.ListenAddr, "listen address")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log.Default())
	srv := server.New(a.Generator, a.Settings, a.Responses, cfg.Revalidate, log.Default())

	log.Printf("listening on %s (revalidate=%s)", *addr, cfg.Revalidate)
	if err := server.ListenAndServe(ctx, *addr, srv.Routes()); err != nil {
		log.Fatal(err)
	}
	log.Printf("server stopped")
}

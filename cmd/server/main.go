package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subodhkmahto/student-teacher-management-system/internal/auth"
	"github.com/subodhkmahto/student-teacher-management-system/internal/clients"
	"github.com/subodhkmahto/student-teacher-management-system/internal/config"
	internalhttp "github.com/subodhkmahto/student-teacher-management-system/internal/http"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platformClients := clients.New(cfg)
	authenticator := auth.NewAuthenticator(platformClients.Identity, platformClients.Store)
	accounts := auth.NewService(platformClients.Identity, platformClients.Store, cfg.FrontendURL)

	server := internalhttp.NewServer(cfg, authenticator, accounts, platformClients.Store)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

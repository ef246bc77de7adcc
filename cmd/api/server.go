package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"nestegg/internal/scheduler"
	"nestegg/internal/shared/config"
	"nestegg/internal/shared/middleware"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

// appServers owns the HTTP listeners and the optional in-process scheduler,
// so startup and shutdown live in one place.
type appServers struct {
	main     *http.Server
	redirect *http.Server
	sched    *scheduler.Scheduler
	tls      config.TLSConfig
}

func newAppServers(handler http.Handler, cfg *config.Config, sched *scheduler.Scheduler) *appServers {
	s := &appServers{
		main: &http.Server{
			Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		sched: sched,
		tls:   cfg.TLS,
	}

	if cfg.TLS.Enabled && cfg.TLS.RedirectHTTP {
		s.redirect = &http.Server{
			Addr:         ":80",
			Handler:      redirectToHTTPS(cfg.Server.AllowedHosts),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		}
	}

	return s
}

// Start brings up the listeners. Listen errors other than a clean shutdown
// are fatal since the process is useless without its main listener.
func (s *appServers) Start() {
	if s.redirect != nil {
		go func() {
			log.Println("HTTP redirect server starting on :80")
			if err := s.redirect.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP redirect server error: %v", err)
			}
		}()
	}

	go func() {
		if s.tls.Enabled {
			log.Printf("HTTPS server starting on %s", s.main.Addr)
			if err := s.main.ListenAndServeTLS(s.tls.CertPath, s.tls.KeyPath); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTPS server error: %v", err)
			}
		} else {
			log.Printf("HTTP server starting on %s", s.main.Addr)
			if err := s.main.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("HTTP server error: %v", err)
			}
		}
	}()
}

// Shutdown drains the scheduler first so no sync pass is cut off mid-write,
// then closes the listeners.
func (s *appServers) Shutdown(timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.sched != nil {
		s.sched.Shutdown(timeout)
	}

	if s.redirect != nil {
		if err := s.redirect.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down HTTP redirect server: %v", err)
		}
	}

	if err := s.main.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down main server: %v", err)
	}

	log.Println("Server stopped")
}

// redirectToHTTPS sends plain-HTTP traffic to the canonical HTTPS host.
func redirectToHTTPS(allowedHosts []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}

		if !middleware.IsHostAllowed(host, allowedHosts) {
			http.Error(w, "Invalid host", http.StatusBadRequest)
			return
		}

		host, _, _ = strings.Cut(host, ":")
		http.Redirect(w, r, "https://"+host+r.RequestURI, http.StatusMovedPermanently)
	})
}

// The chess-server command serves the game API over HTTP with optional
// SQLite persistence and JWT authentication. `chess-server db ...`
// runs the database administration subcommands instead.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chesscore/cmd/chess-server/cli"
	"chesscore/internal/http"
	"chesscore/internal/processor"
	"chesscore/internal/service"
	"chesscore/internal/storage"
)

const shutdownGrace = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("db command failed: %v", err)
		}
		return
	}

	var (
		apiHost     = flag.String("api-host", "localhost", "address to bind the API server to")
		apiPort     = flag.Int("api-port", 8080, "port for the API server")
		dev         = flag.Bool("dev", false, "development mode: fixed JWT secret, relaxed rate limits, WAL journal")
		storagePath = flag.String("storage-path", "", "SQLite database file; empty disables persistence and accounts")
		pidPath     = flag.String("pid", "", "write the server PID to this file")
		pidLock     = flag.Bool("pid-lock", false, "hold a lock on the PID file so only one instance runs")
	)
	flag.Parse()

	if *pidLock && *pidPath == "" {
		log.Fatal("-pid-lock requires -pid")
	}
	if *pidPath != "" {
		releasePID, err := writePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatalf("PID file: %v", err)
		}
		defer releasePID()
		log.Printf("PID file at %s (lock=%v)", *pidPath, *pidLock)
	}

	var store *storage.Store
	if *storagePath == "" {
		log.Printf("persistence disabled, pass -storage-path to enable accounts and game history")
	} else {
		var err error
		store, err = storage.NewStore(*storagePath, *dev)
		if err != nil {
			log.Fatalf("open storage: %v", err)
		}
		if err := store.InitDB(); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("storage close: %v", err)
			}
		}()
		log.Printf("persistence enabled at %s", *storagePath)
	}

	jwtSecret := resolveJWTSecret(*dev)

	svc := service.New(store, jwtSecret)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go svc.RunCleanupJob(cleanupCtx, service.CleanupJobInterval)

	proc := processor.New(svc)
	app := http.NewFiberApp(proc, svc, *dev)

	addr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)
	go func() {
		log.Printf("serving API v1 at http://%s/api/v1 (health at /health)", addr)
		if *dev {
			log.Printf("dev mode: 20 req/s per IP, fixed JWT secret")
		}
		if err := app.Listen(addr); err != nil {
			log.Printf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	stopCleanup()
	if err := svc.Shutdown(shutdownGrace); err != nil {
		log.Printf("service shutdown: %v", err)
	}
	log.Println("stopped")
}

// resolveJWTSecret returns a fixed secret in dev mode so tokens stay
// valid across restarts during development, and a random one otherwise.
func resolveJWTSecret(dev bool) []byte {
	if dev {
		return []byte("dev-secret-minimum-32-characters-long")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("generate JWT secret: %v", err)
	}
	log.Printf("JWT secret generated, sessions reset on restart")
	return secret
}

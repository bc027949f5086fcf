package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hebench-backend/api"
	"hebench-backend/service"
	"hebench-backend/storage"
)

func main() {
	port := flag.Int("port", 8080, "port for the API server")
	storageDir := flag.String("storage-dir", "benchmark_data", "directory for benchmark history")
	flag.Parse()

	history, err := storage.NewJSONStore(*storageDir)
	if err != nil {
		log.Fatalf("failed to open benchmark history: %v", err)
	}

	srv := api.NewServer(fmt.Sprintf(":%d", *port), service.NewStore(), history)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received %s, shutting down", sig)
		os.Exit(0)
	}()

	log.Fatal(srv.Start())
}

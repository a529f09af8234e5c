package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/ScanFlow"
)

func main() {
	st, err := scanflow.Open("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("scan runtime exited: %v", err)
	}
}

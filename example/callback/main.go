package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/ScanFlow/pkg/scanflow"
)

// Scans the configured device in a loop and prints every accepted code.
func main() {
	st, err := scanflow.Open("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer := func(_ context.Context, rec scanflow.ScanRecord) error {
		fmt.Printf("%s %s %s\n", rec.CapturedAt.Format(time.RFC3339Nano), rec.Symbology, rec.Value)
		return nil
	}

	rt, err := st.Deliver(scanflow.ToCallback("stdout", true, printer))
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}
	defer rt.Shutdown(context.Background())

	for ctx.Err() == nil {
		if _, err := rt.Scan(ctx); err != nil {
			if errors.Is(err, scanflow.ErrScanCancelled) || errors.Is(err, scanflow.ErrNoDecode) {
				return
			}
			log.Printf("scan: %v", err)
		}
	}
}

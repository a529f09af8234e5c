package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghalamif/ScanFlow"
)

func main() {
	st, err := scanflow.Open("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, records, closeRecords := scanflow.NewChannelSink("fanout", 32)
	defer closeRecords()

	go fanoutWorker("inventory", records)

	if err := st.Run(ctx, scanflow.ToSink(sink, false)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, records <-chan scanflow.ScanRecord) {
	for rec := range records {
		fmt.Printf("[%s] forwarding %s %q at %s\n", name, rec.Symbology, rec.Value, time.Now().Format(time.RFC3339))
	}
}

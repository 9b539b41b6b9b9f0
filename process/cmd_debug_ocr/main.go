package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"meterocr/pkg/log"
	"meterocr/process/batch"
)

func main() {
	f := flag.String("file", "", "image file to validate")
	claim := flag.String("claim", "", "claimed reading (defaults to the one in the file name)")
	var engine batch.EngineFlags
	engine.Register(flag.CommandLine)
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	log.SetLevel("debug")
	if *claim == "" {
		*claim, _ = batch.ClaimFromFilename(*f)
	}

	v, rec, err := engine.Build()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer rec.Close()

	data, err := os.ReadFile(*f)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), engine.Timeout)
	defer cancel()
	res, err := v.Validate(ctx, data, *claim)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	for _, d := range res.Detections {
		fmt.Printf("x=%7.1f conf=%.2f text=%q\n", d.Box[0].X, d.Confidence, d.Text)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"observed": res.ObservedDigits,
		"claimed":  res.Claimed,
		"match":    res.Match,
		"status":   res.Match.Tier.Status(),
		"elapsed":  res.Elapsed.String(),
	})
}

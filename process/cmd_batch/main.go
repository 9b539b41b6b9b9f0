package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"meterocr/pkg/log"
	"meterocr/process/batch"
)

func main() {
	dir := flag.String("dir", "photos", "directory of meter photos named <anything>_<reading>.<ext>")
	processed := flag.String("processed", "", "move validated files into this directory")
	watch := flag.Bool("watch", false, "keep watching -dir for new files")
	out := flag.String("out", "", "write JSON lines here instead of stdout")
	verbose := flag.Bool("verbose", false, "verbose per-file logging")
	var engine batch.EngineFlags
	engine.Register(flag.CommandLine)
	flag.Parse()
	if *verbose {
		log.SetLevel("debug")
	}

	v, rec, err := engine.Build()
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer rec.Close()

	output := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("open output: %v", err)
		}
		defer f.Close()
		output = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sum, err := batch.Run(ctx, v, batch.Options{
		Dir:          *dir,
		ProcessedDir: *processed,
		Workers:      engine.Workers,
		Timeout:      engine.Timeout,
		Watch:        *watch,
		Output:       output,
	})
	if err != nil {
		log.Errorf("batch: %v", err)
	}
	summary, _ := json.Marshal(sum)
	log.Infof("done (%s) backend=%s: %s", *dir, rec.Name(), summary)
	if err != nil {
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"meterocr/pkg/log"
	"meterocr/pkg/ocr"
)

func main() {
	in := flag.String("file", "", "meter photo to preprocess")
	out := flag.String("out", "", "output prefix (default: next to -file)")
	cfgPath := flag.String("config", "", "pipeline YAML overriding the defaults")
	flag.Parse()
	if *in == "" {
		log.Fatalf("-file required")
	}
	if *out == "" {
		*out = strings.TrimSuffix(*in, filepath.Ext(*in))
	}

	cfg, err := ocr.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	img, err := ocr.DecodeImage(data, cfg.Input.MaxPixels)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	suppressed := ocr.Suppress(img, cfg.Suppression)
	enhanced := ocr.Enhance(suppressed, cfg.Enhancement)
	sPath := *out + ".suppressed.png"
	ePath := *out + ".enhanced.png"
	if err := imaging.Save(suppressed, sPath); err != nil {
		log.Fatalf("save: %v", err)
	}
	if err := imaging.Save(enhanced, ePath); err != nil {
		log.Fatalf("save: %v", err)
	}
	b := enhanced.Bounds()
	fmt.Printf("%s\n%s (%dx%d)\n", sPath, ePath, b.Dx(), b.Dy())
}

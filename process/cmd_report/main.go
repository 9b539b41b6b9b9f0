package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"meterocr/pkg/log"
	"meterocr/pkg/ocr"
	"meterocr/process/report"
)

func main() {
	in := flag.String("in", "-", "batch JSON lines file, - for stdin")
	list := flag.String("list", "", "list rows of one tier (ACCEPT, PARTIAL, REJECT) or 'failed'")
	flag.Parse()

	var src io.Reader = os.Stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			log.Fatalf("open: %v", err)
		}
		defer f.Close()
		src = f
	}

	var keep report.Filter
	switch l := strings.ToUpper(strings.TrimSpace(*list)); l {
	case "":
	case "FAILED":
		keep = report.TierFilter("")
	case string(ocr.TierAccept), string(ocr.TierPartial), string(ocr.TierReject):
		keep = report.TierFilter(ocr.Tier(l))
	default:
		log.Fatalf("unknown -list %q", *list)
	}

	rep, err := report.Build(src, keep)
	if err != nil {
		log.Fatalf("read report: %v", err)
	}
	report.Print(os.Stdout, rep)
}

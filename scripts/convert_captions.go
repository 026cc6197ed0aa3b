package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"

	"yeahplayer/services/captions"
)

// Converts a TTML caption file to WebVTT on stdout. Pass --dash for a raw
// DASH segment: the binary container prefix is stripped and the DASH
// timestamp offset is used.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: convert_captions <ttml_file> [--dash]")
	}

	path := os.Args[1]
	dash := len(os.Args) > 2 && os.Args[2] == "--dash"

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read caption file: %v", err)
	}

	body := raw
	offset := captions.DefaultTimestampOffset
	if dash {
		body, err = captions.ExtractTTML(raw)
		if err != nil {
			log.Fatalf("Failed to locate ttml document in segment: %v", err)
		}
		offset = captions.DashTimestampOffset
	}

	doc := captions.ParseTTML(bytes.NewReader(body))
	if len(doc.Subtitles) == 0 {
		log.Fatal("No cues parsed from the document")
	}

	fmt.Println(strings.Join(captions.FormatWebVTT(doc, offset), "\n"))
	log.Printf("Converted %d cues (%d styles, %d regions)", len(doc.Subtitles), len(doc.Styles), len(doc.Regions))
}

// Command normalize replays a saved raw model response through the JSON
// normalizer and prints what the generation pipeline would have seen.
//
//	normalize [-shape raw|course|section] [file]
//
// With no file, the response is read from stdin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"coursegen/internal/llmjson"
	"coursegen/internal/placeholder"
	"coursegen/services"
)

func main() {
	shape := flag.String("shape", "raw", "decode as raw, course or section")
	flag.Parse()

	var (
		raw []byte
		err error
	)
	if flag.NArg() > 0 {
		raw, err = os.ReadFile(flag.Arg(0))
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		os.Exit(2)
	}

	parsed, strategy, ok := llmjson.NormalizeWithStrategy(string(raw))
	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to parse model output. Raw model output (quoted):")
		fmt.Fprintf(os.Stderr, "%q\n", string(raw))
		os.Exit(1)
	}
	fmt.Printf("strategy: %s\n", strategy)

	var out any = parsed
	switch *shape {
	case "raw":
	case "course":
		course := services.DecodeCourseStructure(parsed)
		out = course
		fmt.Printf("placeholders: %v\n", placeholder.Tokens(course.Description))
	case "section":
		draft := services.DecodeSectionDraft(parsed)
		out = draft
		fmt.Printf("placeholders: %v\n", placeholder.Tokens(draft.Text))
	default:
		fmt.Fprintf(os.Stderr, "unknown shape %q\n", *shape)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode: %v\n", err)
		os.Exit(1)
	}
}

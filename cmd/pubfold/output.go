package main

import (
	"fmt"
	"os"

	"github.com/segmentio/encoding/json"

	"github.com/matsen/pubfold/internal/bundle"
	"github.com/matsen/pubfold/internal/pipeline"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse summarizes a bib or scholar run.
type RunResponse struct {
	RunID       string         `json:"run_id"`
	Mode        string         `json:"mode"`
	OutDir      string         `json:"out_dir"`
	DryRun      bool           `json:"dry_run"`
	Stats       pipeline.Stats `json:"stats"`
	Written     int            `json:"written"`
	Bundles     []string       `json:"bundles,omitempty"`
	BibAppended int            `json:"bib_appended,omitempty"`
	Probes      int            `json:"probes"`
	ProbeHits   int            `json:"probe_cache_hits"`
}

func printRun(resp RunResponse) {
	if !humanOutput {
		outputJSON(resp)
		return
	}
	verb := "Wrote"
	if resp.DryRun {
		verb = "Would write"
	}
	outputHuman("%s %d publication bundles into %s\n", verb, resp.Written, resp.OutDir)
	outputHuman("  input: %d  skipped: %d  kept: %d\n", resp.Stats.Input, resp.Stats.Skipped, resp.Stats.Kept)
	if resp.Stats.Authors > 0 || resp.Stats.Failed > 0 {
		outputHuman("  authors: %d  failed: %d\n", resp.Stats.Authors, resp.Stats.Failed)
	}
	outputHuman("  probes: %d  cache hits: %d\n", resp.Probes, resp.ProbeHits)
	if resp.BibAppended > 0 {
		outputHuman("  appended %d entries to the bib file\n", resp.BibAppended)
	}
}

func printFix(report bundle.FixReport, out string, dryRun bool) {
	if !humanOutput {
		outputJSON(struct {
			bundle.FixReport
			Out    string `json:"out"`
			DryRun bool   `json:"dry_run"`
		}{report, out, dryRun})
		return
	}
	outputHuman("Scanned %d bundles, modified %d, copied %d unchanged after errors\n",
		report.Scanned, report.Modified, report.Skipped)
	outputHuman("Output: %s\n", out)
}

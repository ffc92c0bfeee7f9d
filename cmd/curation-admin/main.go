// ABOUTME: Operator CLI for the curation gateway HTTP API
// ABOUTME: Inspects examples, backups, and the mutation audit trail

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

const banner = `
                           _   _
  ___ _   _ _ __ __ _ ___ (_) | |_ ___  _ __
 / __| | | | '__/ _' |___|| | || _/ _ \| '_ \
| (__| |_| | | | (_| |    | |_|| || (_) | | | |
 \___|\__,_|_|  \__,_|    |_(_)|_| \___/|_| |_|   admin
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	base := os.Getenv("CURATION_GATEWAY_URL")
	if base == "" {
		base = "http://localhost:3001"
	}
	base = strings.TrimRight(base, "/")

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "examples":
		err = cmdExamples(base, args)
	case "backups":
		err = cmdBackups(base, args)
	case "audit":
		err = cmdAudit(base)
	case "status":
		err = cmdStatus(base)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	color.New(color.FgCyan).Print(banner)
	fmt.Println(`
Usage: curation-admin <command> [args]

Commands:
  examples <domain>   List a domain's curated examples
  backups <domain>    List a domain's backups, newest first
  audit               Show the recent mutation audit trail
  status              Show gateway health and available models

Environment:
  CURATION_GATEWAY_URL   Gateway base URL (default http://localhost:3001)`)
}

// getJSON fetches a path and decodes the JSON response into out.
func getJSON(base, path string, out any) error {
	resp, err := http.Get(base + path)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

func cmdExamples(base string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: curation-admin examples <domain>")
	}
	domain := args[0]

	var resp struct {
		Examples []struct {
			ID                  string `json:"id"`
			SourceExpression    string `json:"sourceExpression"`
			TargetDaxFormula    string `json:"targetDaxFormula"`
			CorrectedDaxFormula string `json:"correctedDaxFormula"`
		} `json:"examples"`
	}
	if err := getJSON(base, "/api/v1/examples/"+domain, &resp); err != nil {
		return err
	}

	if len(resp.Examples) == 0 {
		fmt.Printf("No examples for %s\n", domain)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTARGET DAX\tCORRECTED")
	for _, ex := range resp.Examples {
		corrected := ex.CorrectedDaxFormula
		if corrected == "" {
			corrected = color.HiBlackString("(pending)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ex.ID, truncate(ex.SourceExpression, 40), truncate(ex.TargetDaxFormula, 40), truncate(corrected, 40))
	}
	return w.Flush()
}

func cmdBackups(base string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: curation-admin backups <domain>")
	}
	domain := args[0]

	var resp struct {
		Backups []string `json:"backups"`
	}
	if err := getJSON(base, "/api/v1/backups/"+domain, &resp); err != nil {
		return err
	}

	if len(resp.Backups) == 0 {
		fmt.Printf("No backups for %s\n", domain)
		return nil
	}

	for i, name := range resp.Backups {
		if i == 0 {
			color.New(color.FgGreen).Printf("%s  (newest)\n", name)
			continue
		}
		fmt.Println(name)
	}
	return nil
}

func cmdAudit(base string) error {
	var resp struct {
		Entries []struct {
			Action    string `json:"action"`
			ModelType string `json:"modelType"`
			ExampleID string `json:"exampleId"`
			Timestamp string `json:"timestamp"`
		} `json:"entries"`
	}
	if err := getJSON(base, "/api/v1/audit", &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Println("Audit trail is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tDOMAIN\tEXAMPLE")
	for _, e := range resp.Entries {
		when := e.Timestamp
		if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			when = ts.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", when, e.Action, e.ModelType, e.ExampleID)
	}
	return w.Flush()
}

func cmdStatus(base string) error {
	var resp struct {
		Status          string   `json:"status"`
		Timestamp       string   `json:"timestamp"`
		AvailableModels []string `json:"available_models"`
	}
	if err := getJSON(base, "/health", &resp); err != nil {
		return err
	}

	color.New(color.FgGreen).Printf("✓ %s\n", resp.Status)
	fmt.Printf("  gateway:  %s\n", base)
	fmt.Printf("  models:   %s\n", strings.Join(resp.AvailableModels, ", "))
	fmt.Printf("  reported: %s\n", resp.Timestamp)
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

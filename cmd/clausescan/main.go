package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	clausescan "github.com/clausescan/clausescan-go"
	"github.com/clausescan/clausescan-go/core"
)

func main() {
	rulePath := flag.String("rules", "", "path to a YAML rule file (default: built-in table)")
	clauseTypes := flag.String("types", "", "comma-separated clause categories (default: all)")
	highlight := flag.Bool("highlight", false, "print the document with matched spans marked")
	flag.Parse()

	text, err := readDocument(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading document: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", core.ErrEmptyDocument)
		os.Exit(1)
	}

	rules := core.DefaultRuleSet()
	if *rulePath != "" {
		rules, err = core.LoadRuleSet(*rulePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
			os.Exit(1)
		}
	}

	var categories []string
	for _, part := range strings.Split(*clauseTypes, ",") {
		if part = strings.TrimSpace(part); part != "" {
			categories = append(categories, part)
		}
	}

	result := clausescan.AnalyzeWithRules(rules, text, categories)

	fmt.Println("Clauses Found:")
	for _, match := range result.Matches {
		fmt.Printf(" - %s (%s, confidence %.2f) at %d: %q\n",
			match.Category, match.Risk, match.Confidence, match.Position, match.Text)
	}

	if result.Truncated() {
		fmt.Printf("\nShowing %d of %d matches.\n", len(result.Matches), result.TotalFound)
	} else {
		fmt.Printf("\nTotal matches: %d\n", result.TotalFound)
	}

	if *highlight {
		fmt.Println("\nHighlighted Document:")
		fmt.Println(core.ApplyHighlights(text, result.Matches))
	}
}

func readDocument(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}

	data, err := os.ReadFile(path)
	return string(data), err
}

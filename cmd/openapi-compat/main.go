// Package main provides a CLI that checks the OpenAPI document for breaking changes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func main() {
	basePath := flag.String("base", "", "base OpenAPI swagger.yaml path (optional)")
	revisionPath := flag.String("revision", "docs/swagger.yaml", "revision OpenAPI swagger.yaml path")
	flag.Parse()

	if strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat [-base <path>] -revision <path>")
		os.Exit(2)
	}

	revisionSpec, err := loadSpec(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	issues := checkRequired(revisionSpec)
	if strings.TrimSpace(*basePath) != "" {
		baseSpec, err := loadSpec(*basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
			os.Exit(1)
		}
		issues = append(issues, compare(baseSpec, revisionSpec)...)
	}

	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

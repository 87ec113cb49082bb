// Package main provides a CLI tool to generate the OpenAPI specification for
// the warmloop API. It registers the shared route definitions against empty
// handlers, so no database or external service is needed.
//
// Usage:
//
//	go run ./cmd/warmloop-openapi > openapi.json
//	go run ./cmd/warmloop-openapi -yaml > openapi.yaml
//	go run ./cmd/warmloop-openapi -output openapi.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/warmloop/warmloop/internal/http/handlers"
	"github.com/warmloop/warmloop/internal/http/routes"
	"github.com/warmloop/warmloop/internal/service"
	"github.com/warmloop/warmloop/internal/version"
)

func main() {
	outputFile := flag.String("output", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "http://localhost:8080", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	// A bare router: requests are never served, Huma only needs the route
	// shapes and handler signatures.
	router := chi.NewRouter()
	api := humachi.New(router, routes.NewHumaConfig(*baseURL))
	routes.Register(api, handlers.New(&service.Services{}, nil, nil))

	spec := api.OpenAPI()

	var data []byte
	var err error
	if *outputYAML {
		data, err = yaml.Marshal(spec)
	} else {
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI spec: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "OpenAPI spec written to %s\n", *outputFile)
	} else {
		fmt.Print(string(data))
	}
}

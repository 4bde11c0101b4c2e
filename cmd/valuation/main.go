// Command valuation runs a valuation from the terminal without the HTTP API.
//
//	go run ./cmd/valuation -ticker AAPL -model unified
//	go run ./cmd/valuation -ticker MSFT -model report -format html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"dcf_valuation/pkg/core/config"
	"dcf_valuation/pkg/core/llm"
	"dcf_valuation/pkg/core/logging"
	"dcf_valuation/pkg/core/pipeline"
	"dcf_valuation/pkg/core/provider"
	"dcf_valuation/pkg/core/report"
	"dcf_valuation/pkg/core/scenario"

	"github.com/joho/godotenv"
)

func main() {
	ticker := flag.String("ticker", "AAPL", "stock ticker to value")
	model := flag.String("model", "unified", "dcf | hmodel | sotp | unified | scenarios | sensitivity | report")
	format := flag.String("format", "json", "json | markdown | html (report only)")
	flag.Parse()

	godotenv.Load()
	logging.Init()
	defer logging.Sync()

	var source provider.SnapshotProvider
	switch os.Getenv("DATA_SOURCE") {
	case "web":
		source = provider.NewWebProvider(os.Getenv("FUNDAMENTALS_URL"))
	default:
		source = provider.NewMockProvider()
	}

	ctx := context.Background()
	snap, err := source.Fetch(ctx, *ticker)
	if err != nil {
		fatal("fetch fundamentals: %v", err)
	}

	engine := pipeline.NewEngine(config.Default())

	var result interface{}
	switch *model {
	case "dcf":
		result, err = engine.RunDCF(snap, nil)
	case "hmodel":
		result, err = engine.RunHModel(snap, nil)
	case "sotp":
		result, err = engine.RunSOTP(snap)
	case "unified":
		result, err = engine.RunUnified(snap, nil)
	case "scenarios":
		result, err = scenario.Run(engine, snap, nil)
	case "sensitivity":
		result, err = scenario.Analyze(engine, snap, nil)
	case "report":
		unified, runErr := engine.RunUnified(snap, nil)
		if runErr != nil {
			fatal("valuation failed: %v", runErr)
		}
		md := report.NewBuilder(llm.FromEnv()).Markdown(ctx, unified)
		if *format == "html" {
			html, renderErr := report.RenderHTML(md)
			if renderErr != nil {
				fatal("render report: %v", renderErr)
			}
			fmt.Println(html)
			return
		}
		fmt.Println(md)
		return
	default:
		fatal("unknown model %q", *model)
	}
	if err != nil {
		fatal("valuation failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatal("encode result: %v", err)
	}
	fmt.Println(string(out))
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

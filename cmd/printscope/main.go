/*
 * Copyright 2026 Chromatix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command printscope analyzes a Lexmark Cloud Fleet Management tenant for
// print cost and maintenance findings, either interactively (dashboard) or
// headless with a CSV report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chromatix/printscope/pkg/cfm"
	"github.com/chromatix/printscope/pkg/config"
	"github.com/chromatix/printscope/pkg/logger"
	"github.com/chromatix/printscope/pkg/models"
	"github.com/chromatix/printscope/pkg/pipeline"
	"github.com/chromatix/printscope/pkg/report"
	"github.com/chromatix/printscope/pkg/tui"
)

const defaultExportPath = "fleet_report.csv"

type agentConfig struct {
	CFM        cfm.Config      `json:"cfm"`
	Pipeline   pipeline.Config `json:"pipeline"`
	Logger     *logger.Config  `json:"logger,omitempty"`
	ExportPath string          `json:"export_path,omitempty"`
}

func (c *agentConfig) Validate() error {
	if err := c.CFM.Validate(); err != nil {
		return err
	}

	return c.Pipeline.Validate()
}

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	headless := flag.Bool("headless", false, "Run once without the dashboard and write the CSV report")
	out := flag.String("out", "", "CSV export path")
	region := flag.String("region", "", "CFM region (us or eu)")
	flag.Parse()

	ctx := context.Background()

	var cfg agentConfig

	if *configPath != "" {
		if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		cfg.ExportPath = *out
	}

	if cfg.ExportPath == "" {
		cfg.ExportPath = defaultExportPath
	}

	logCfg := cfg.Logger
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	if !*headless {
		// The dashboard owns stdout.
		logCfg.Output = "stderr"
	}

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cred := config.CredentialFromEnv(cfg.CFM.Region)
	if *region != "" {
		cred.Region = *region
	}

	// Each run builds its own token source and pipeline; tokens and
	// accumulated state never survive across runs.
	newRun := func(sink pipeline.Sink) tui.Runner {
		return runnerFunc(func(ctx context.Context, cred models.Credential) (*pipeline.Result, error) {
			p, err := buildPipeline(&cfg, cred, sink, log)
			if err != nil {
				return &pipeline.Result{Status: models.StatusIdle}, err
			}

			return p.Run(ctx, cred)
		})
	}

	if *headless {
		os.Exit(runHeadless(ctx, newRun(pipeline.NopSink{}), cred, cfg.ExportPath, log))
	}

	err = tui.Run(tui.Options{
		Credential: cred,
		ExportPath: cfg.ExportPath,
		NewRun:     newRun,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dashboard failed: %v\n", err)
		os.Exit(1)
	}
}

type runnerFunc func(ctx context.Context, cred models.Credential) (*pipeline.Result, error)

func (f runnerFunc) Run(ctx context.Context, cred models.Credential) (*pipeline.Result, error) {
	return f(ctx, cred)
}

func buildPipeline(cfg *agentConfig, cred models.Credential, sink pipeline.Sink, log logger.Logger) (*pipeline.FleetPipeline, error) {
	cfmCfg := cfg.CFM
	cfmCfg.Region = cred.Region

	if err := cfmCfg.Validate(); err != nil {
		return nil, err
	}

	tokens := cfm.NewCachedTokenSource(cfm.NewOAuthTokenSource(&cfmCfg, cred, nil, log))
	client := cfm.NewAssetClient(&cfmCfg, tokens, nil, log)

	return pipeline.New(client, sink, cfg.Pipeline, log), nil
}

// runHeadless executes one run and writes the CSV artifact. A failed run
// still exports whatever accumulated; a partial report is never discarded.
func runHeadless(ctx context.Context, runner tui.Runner, cred models.Credential, exportPath string, log logger.Logger) int {
	result, runErr := runner.Run(ctx, cred)
	if runErr != nil {
		log.Error().Err(runErr).Msg("Run did not complete")
	}

	if len(result.Reports) > 0 || runErr == nil {
		if err := report.ExportFile(exportPath, result.Reports); err != nil {
			log.Error().Err(err).Msg("Failed to write report")

			return 1
		}

		log.Info().
			Str("path", exportPath).
			Str("status", string(result.Status)).
			Int("printers", len(result.Reports)).
			Float64("estimated_savings", report.TotalSavings(result.Reports)).
			Msg("Report written")
	}

	if runErr != nil {
		return 1
	}

	return 0
}

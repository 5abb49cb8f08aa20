// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lakesift/lakesift/cmd/config"
	jsonlib "github.com/lakesift/lakesift/internal/json"
	zerologbuilder "github.com/lakesift/lakesift/internal/log/zerolog"
	"github.com/lakesift/lakesift/pkg/batch"
	"github.com/lakesift/lakesift/pkg/engine"
	loglib "github.com/lakesift/lakesift/pkg/log"
	"github.com/lakesift/lakesift/pkg/manifest"
	filestore "github.com/lakesift/lakesift/pkg/manifest/store/file"
	pgstore "github.com/lakesift/lakesift/pkg/manifest/store/postgres"
	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/rules"
	"github.com/lakesift/lakesift/pkg/validators"
)

var (
	errNoRulesFile = errors.New("a rules file is required")
	errNoInputFile = errors.New("an input batch file is required")
)

var validateCmd = &cobra.Command{
	Use:    "validate",
	Short:  "Validates and normalizes a record batch against a rule spec",
	PreRun: validateFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSignalWatcher(runValidate(cmd))(cmd, args)
	},
	Example: `
	lakesift validate -r books_rules.yaml -i books.csv -o out/
	lakesift validate -r books_rules.json -i books.csv --schema silver_md.csv --table books
	lakesift validate -r books_rules.yaml -i books.csv --manifest manifests/manifest.jsonl --batch-id books-2026-08
	lakesift validate -r books_rules.yaml -i books.csv --skip-manifest --json
	`,
}

func runValidate(cmd *cobra.Command) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger := newCLILogger()

		rulesFile := config.RulesFile()
		if rulesFile == "" {
			return errNoRulesFile
		}
		inputFile := config.InputFile()
		if inputFile == "" {
			return errNoInputFile
		}

		sp, _ := pterm.DefaultSpinner.WithText("loading rule spec...").Start()

		registry := validators.NewRegistry()
		spec, err := rules.NewLoader(registry, rules.WithLogger(logger)).Load(rulesFile)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		b, err := batch.NewReader(batch.WithLogger(logger)).ReadFile(inputFile)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}
		sp.Success(fmt.Sprintf("loaded %d record(s) from %s", len(b.Records), inputFile))

		var tracker *manifest.Tracker
		if !config.SkipManifest() {
			store, err := newManifestStore(ctx)
			if err != nil {
				return fmt.Errorf("opening manifest store: %w", err)
			}
			defer store.Close()
			tracker = manifest.NewTracker(store, manifest.WithLogger(logger))

			decision, err := tracker.CheckBatch(ctx, config.BatchID(), b.Rows)
			if err != nil {
				return err
			}
			switch decision {
			case manifest.DecisionUnchanged:
				pterm.Success.Printfln("batch %q already processed with identical content, skipping", config.BatchID())
				return nil
			case manifest.DecisionChanged:
				pterm.Warning.Printfln("batch %q content changed since last run, reprocessing", config.BatchID())
			case manifest.DecisionNew:
				pterm.Info.Printfln("batch %q not seen before, processing", config.BatchID())
			}
		}

		opts := []engine.Option{
			engine.WithLogger(logger),
			engine.WithWorkers(config.Workers()),
			engine.WithProgress(),
		}
		if schemaFile := config.SchemaFile(); schemaFile != "" {
			schema, err := engine.LoadSchema(schemaFile, config.SchemaTable())
			if err != nil {
				return err
			}
			opts = append(opts, engine.WithSchema(schema))
		}

		eng, err := engine.New(spec, registry, opts...)
		if err != nil {
			return err
		}

		result, err := eng.Validate(ctx, b.Records)
		if err != nil {
			return err
		}

		if tracker != nil {
			if err := tracker.Record(ctx, config.BatchID(), b.Rows); err != nil {
				return err
			}
		}

		if outDir := config.OutputDir(); outDir != "" {
			if err := writeOutputs(outDir, b.Header, result); err != nil {
				return err
			}
			pterm.Info.Printfln("outputs written to %s", outDir)
		}

		pterm.Success.Printfln("run %s: %d accepted, %d rejected (of %d)",
			result.RunID, len(result.Accepted), len(result.Rejected), result.Total)

		if cmd.Flags().Lookup("json").Value.String() == trueStr {
			data, err := jsonlib.MarshalIndent(result.Report(), "", "\t")
			if err != nil {
				return err
			}
			fmt.Println(string(data)) //nolint:forbidigo
		}
		return nil
	}
}

var validateRulesCmd = &cobra.Command{
	Use:    "rules",
	Short:  "Validates a rule spec file without processing any records",
	PreRun: validateRulesFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("validating rule spec...").Start()

		rulesFile := viper.GetString("rules-file")
		if rulesFile == "" {
			rulesFile = config.RulesFile()
		}
		if rulesFile == "" {
			sp.Fail(errNoRulesFile.Error())
			return errNoRulesFile
		}

		registry := validators.NewRegistry()
		spec, err := rules.NewLoader(registry, rules.WithLogger(newCLILogger())).Load(rulesFile)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		sp.Success(fmt.Sprintf("rule spec is valid: %d range, %d regex, %d custom check rule(s), %d mapping(s), %d default(s)",
			len(spec.Ranges), len(spec.Regexes), len(spec.CustomChecks), len(spec.Mappings), len(spec.Defaults)))
		return nil
	},
	Example: `
	lakesift validate rules -f books_rules.yaml
	lakesift validate rules -f books_rules.json
	`,
}

func newManifestStore(ctx context.Context) (manifest.Store, error) {
	if url := config.ManifestPostgresURL(); url != "" {
		return pgstore.New(ctx, url)
	}
	return filestore.New(config.ManifestFile())
}

func newCLILogger() loglib.Logger {
	logger := zerologbuilder.NewLogger(&zerologbuilder.Config{
		LogLevel: config.LogLevel(),
	})
	zerologbuilder.SetGlobalLogger(logger)
	return zerologbuilder.NewStdLogger(logger)
}

func writeOutputs(dir string, header []string, result *engine.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeRecordsCSV(filepath.Join(dir, "accepted.csv"), header, result.Accepted); err != nil {
		return err
	}

	rejected := make([]record.Record, 0, len(result.Rejected))
	for _, rej := range result.Rejected {
		rejected = append(rejected, rej.Record)
	}
	if err := writeRecordsCSV(filepath.Join(dir, "rejected.csv"), header, rejected); err != nil {
		return err
	}

	data, err := jsonlib.MarshalIndent(result.Report(), "", "\t")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

func writeRecordsCSV(path string, header []string, records []record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing output header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Fields()); err != nil {
			return fmt.Errorf("writing output record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func validateFlagBinding(cmd *cobra.Command, _ []string) {
	viper.BindPFlag("rules", cmd.Flags().Lookup("rules"))
	viper.BindPFlag("input", cmd.Flags().Lookup("input"))
	viper.BindPFlag("schema", cmd.Flags().Lookup("schema"))
	viper.BindPFlag("table", cmd.Flags().Lookup("table"))
	viper.BindPFlag("batch-id", cmd.Flags().Lookup("batch-id"))
	viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	viper.BindPFlag("manifest-url", cmd.Flags().Lookup("manifest-url"))
	viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("skip-manifest", cmd.Flags().Lookup("skip-manifest"))
}

func validateRulesFlagBinding(cmd *cobra.Command, _ []string) {
	viper.BindPFlag("rules-file", cmd.Flags().Lookup("rules-file"))
}

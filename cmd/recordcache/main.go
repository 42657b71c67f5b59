// Package main provides the recordcache CLI entry point.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/northlane/recordcache/pkg/accessor"
	"github.com/northlane/recordcache/pkg/cache"
	"github.com/northlane/recordcache/pkg/config"
	"github.com/northlane/recordcache/pkg/keymap"
	"github.com/northlane/recordcache/pkg/pipeline"
	"github.com/northlane/recordcache/pkg/query"
	"github.com/northlane/recordcache/pkg/recordmodel"
	"github.com/northlane/recordcache/pkg/schema"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recordcache",
		Short: "recordcache - a synchronous, normalized record-graph cache",
		Long: `recordcache stores normalized entities linked by typed
relationships, applies every mutation through a validate/propagate/
apply patch pipeline, and answers find-record and find-records queries
against the result.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recordcache v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildCache loads config and schema, then wires a Cache against the
// configured storage backend.
func buildCache(configPath string) (*cache.Cache, *config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	view, err := schema.LoadFile(cfg.Schema.File)
	if err != nil {
		return nil, nil, fmt.Errorf("loading schema: %w", err)
	}

	var opts []cache.Option
	switch cfg.Storage.Backend {
	case "badger":
		acc, err := accessor.NewBadgerAccessor(cfg.Storage.DataDir, cfg.Storage.HotCacheSize)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger accessor: %w", err)
		}
		opts = append(opts, cache.WithAccessor(acc))
	case "memory":
		// cache.New defaults to a MemoryAccessor; nothing to add.
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	opts = append(opts, cache.WithKeyMap(keymap.NewSimple()))
	if cfg.Logging.Level == "debug" {
		opts = append(opts, cache.WithLogger(pipeline.DefaultLogger()))
	}

	return cache.New(view, opts...), cfg, nil
}

func newApplyCmd() *cobra.Command {
	var configPath, file string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of operations read as a JSON array",
		Long:  "Reads a JSON array of operation envelopes from --file (or stdin) and applies them as one patch batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file != "" {
				data, err = os.ReadFile(file)
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("reading operations: %w", err)
			}

			operations, err := decodeOperations(data)
			if err != nil {
				return err
			}

			c, _, err := buildCache(configPath)
			if err != nil {
				return err
			}

			result, err := c.Patch(operations...)
			if err != nil {
				return fmt.Errorf("applying patch: %w", err)
			}

			return json.NewEncoder(os.Stdout).Encode(result)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.FindConfigFile(), "Config file path")
	cmd.Flags().StringVar(&file, "file", "", "Path to a JSON operations file (defaults to stdin)")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var configPath, modelType string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find records of a given type",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := buildCache(configPath)
			if err != nil {
				return err
			}

			var page *query.Page
			if limit > 0 {
				page = &query.Page{Limit: limit, Offset: offset}
			}

			records, err := c.FindRecords(modelType, nil, nil, page)
			if err != nil {
				return fmt.Errorf("querying records: %w", err)
			}
			return json.NewEncoder(os.Stdout).Encode(records)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.FindConfigFile(), "Config file path")
	cmd.Flags().StringVar(&modelType, "type", "", "Model type to query (empty means every declared type)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (0 means unpaged)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}

func newDumpCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump every record of every declared model type as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := buildCache(configPath)
			if err != nil {
				return err
			}
			view, err := schema.LoadFile(cfg.Schema.File)
			if err != nil {
				return fmt.Errorf("loading schema: %w", err)
			}

			out := make(map[string][]*recordmodel.Record)
			for _, t := range view.ModelTypes() {
				records, err := c.FindRecords(t, nil, nil, nil)
				if err != nil {
					return fmt.Errorf("dumping %s: %w", t, err)
				}
				out[t] = records
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.FindConfigFile(), "Config file path")
	return cmd
}

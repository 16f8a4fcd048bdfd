package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stackb/bcr-api/internal/cache"
	"github.com/stackb/bcr-api/internal/filtering"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/internal/service/inmemory"
	"github.com/stackb/bcr-api/internal/sources"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load the registry snapshot and print its modules",
		Long: `Load the registry snapshot through the same pipeline as the server
and print the modules it contains. With --query only matching modules are
printed, using the same rules as the /api/search endpoint.`,
		Args: cobra.NoArgs,
		RunE: runInspect,
	}

	cmd.Flags().String("format", "table", "Output format (table or json)")
	cmd.Flags().String("query", "", "Only print modules whose name or description contains this text")

	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to read format flag: %w", err)
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported output format: %s", format)
	}
	query, err := cmd.Flags().GetString("query")
	if err != nil {
		return fmt.Errorf("failed to read query flag: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	timeout, err := cfg.Registry.GetTimeout()
	if err != nil {
		return err
	}

	var source sources.RegistrySource
	source, err = sources.NewRegistrySource(cfg.Registry.GetURL(), sources.WithTimeout(timeout))
	if err != nil {
		return fmt.Errorf("failed to create registry source: %w", err)
	}
	if cfg.Registry.Filter != nil {
		source = sources.NewFilteredSource(source, filtering.NewDefaultFilterService(), cfg.Registry.Filter)
	}

	svc, err := inmemory.New(cache.New(source))
	if err != nil {
		return err
	}

	return inspect(ctx, cmd.OutOrStdout(), svc, query, format)
}

// inspect prints the modules selected by query, or every module when query is empty
func inspect(ctx context.Context, out io.Writer, svc service.RegistryService, query, format string) error {
	info, err := svc.GetRegistryInfo(ctx)
	if err != nil {
		return err
	}

	var modules []service.ModuleSummary
	if query != "" {
		modules, err = svc.SearchModules(ctx, query)
	} else {
		modules, err = svc.ListModules(ctx)
	}
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*service.RegistryInfo
			Modules []service.ModuleSummary `json:"modules"`
		}{info, modules})
	}

	table := tablewriter.NewWriter(out)
	table.Header("Name", "Latest Version", "Description")
	for _, m := range modules {
		if err := table.Append(m.Name, m.LatestVersion, m.Description); err != nil {
			return fmt.Errorf("failed to render module %s: %w", m.Name, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprintf(out, "%d modules shown (registry %s has %d)\n",
		len(modules), info.RegistryURL, info.ModuleCount)
	return err
}

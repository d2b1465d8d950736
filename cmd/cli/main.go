package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kurihiro0119/opendata-harvester/internal/catalog"
	"github.com/kurihiro0119/opendata-harvester/internal/config"
	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	"github.com/kurihiro0119/opendata-harvester/internal/harvester"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
	"github.com/kurihiro0119/opendata-harvester/internal/storage/postgres"
	"github.com/kurihiro0119/opendata-harvester/internal/storage/sqlite"
	"github.com/kurihiro0119/opendata-harvester/internal/summary"
)

var (
	sourceFile string
	outputJSON bool
	itemStatus string
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Open data harvest tool",
	Long: `A CLI tool for harvesting datasets from remote open data portals
into a CKAN catalog.

Sources are registered from JSON or YAML definitions, then harvested in
three stages: gather the remote identifiers, fetch each record, and
import the mapped dataset into the destination catalog.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a harvest source",
	Long:  `Register or update a harvest source from a JSON or YAML definition file.`,
	RunE:  runRegister,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered sources",
	Long:  `Display all registered harvest sources.`,
	RunE:  runSources,
}

var runCmd = &cobra.Command{
	Use:   "run [source-id]",
	Short: "Run a harvest job",
	Long:  `Run a harvest job for a registered source and wait for it to finish.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHarvest,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [source-id]",
	Short: "List jobs for a source",
	Long:  `Display the harvest jobs of a source, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobs,
}

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show a job's status report",
	Long:  `Display the status report of a harvest job: counts per outcome and per-item failures.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var errorsCmd = &cobra.Command{
	Use:   "errors [job-id]",
	Short: "Show a job's failed items",
	Long:  `Display the failed items of a harvest job with the stage and error of each.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runErrors,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	registerCmd.Flags().StringVarP(&sourceFile, "file", "f", "", "source definition file (JSON or YAML)")
	_ = registerCmd.MarkFlagRequired("file")
	errorsCmd.Flags().StringVar(&itemStatus, "status", "failed", "item status to list")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(errorsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStore(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStore(cfg.SQLitePath)
	}
}

// readSourceDefinition loads a JSON or YAML source definition and
// returns it as canonical JSON.
func readSourceDefinition(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc map[string]interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return json.Marshal(doc)
	}
	return raw, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	raw, err := readSourceDefinition(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to read source definition: %w", err)
	}

	src, err := domain.ParseSource(raw)
	if err != nil {
		return fmt.Errorf("invalid source definition: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	now := time.Now()
	if src.ID == "" {
		src.ID = uuid.New().String()
		src.CreatedAt = now
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	if err := store.SaveSource(context.Background(), src); err != nil {
		return fmt.Errorf("failed to save source: %w", err)
	}

	fmt.Printf("Registered source %s (%s)\n", src.ID, src.Title)
	return nil
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	sources, err := store.ListSources(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(sources)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Mode", "Format", "API Base"})
	for _, src := range sources {
		table.Append([]string{src.ID, src.Title, string(src.Mode), string(src.Format), src.APIBase})
	}
	table.Render()

	return nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	sourceID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	src, err := store.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}

	fmt.Printf("Harvesting source: %s (%s)\n", src.Title, src.ID)
	fmt.Printf("Remote: %s [%s/%s]\n", src.APIBase, src.Mode, src.Format)

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.New().String(),
		SourceID:  src.ID,
		Status:    domain.JobStatusPending,
		CreatedAt: now,
	}
	if err := store.CreateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	cat := catalog.NewCKANCatalog(cfg.CatalogURL, cfg.CatalogAPIKey)
	orch := harvester.NewOrchestrator(store, cat, cfg.Workers, cfg.HTTPTimeout)
	orch.Progress = func(done, total int) {
		fmt.Printf("\rProgress: %d/%d", done, total)
		if done == total {
			fmt.Println()
		}
	}

	report, err := orch.Run(ctx, job, src)
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	printReport(report)
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	sourceID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	jobs, err := store.ListJobs(context.Background(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(jobs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Job ID", "Status", "Started", "Finished", "Error"})
	for _, job := range jobs {
		finished := ""
		if job.FinishedAt != nil {
			finished = job.FinishedAt.Format("2006-01-02 15:04:05")
		}
		started := ""
		if !job.StartedAt.IsZero() {
			started = job.StartedAt.Format("2006-01-02 15:04:05")
		}
		table.Append([]string{job.ID, string(job.Status), started, finished, job.Error})
	}
	table.Render()

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	reporter := summary.NewReporter(store)
	report, err := reporter.JobReport(context.Background(), jobID)
	if err != nil {
		return fmt.Errorf("failed to get job report: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	printReport(report)
	return nil
}

func runErrors(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	items, err := store.ListItemsByStatus(context.Background(), jobID, domain.ItemStatus(itemStatus))
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(items)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Remote ID", "Stage", "Error"})
	for _, item := range items {
		table.Append([]string{item.RemoteID, string(item.Stage), item.Error})
	}
	table.Render()

	return nil
}

func printReport(report *domain.JobReport) {
	fmt.Printf("\nJob: %s\n", report.Job.ID)
	fmt.Printf("Status: %s\n", report.Job.Status)
	if report.Job.Error != "" {
		fmt.Printf("Job error: %s\n", report.Job.Error)
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Outcome", "Count"})
	table.Append([]string{"Gathered", fmt.Sprintf("%d", report.Gathered)})
	table.Append([]string{"Created", fmt.Sprintf("%d", report.Created)})
	table.Append([]string{"Updated", fmt.Sprintf("%d", report.Updated)})
	table.Append([]string{"Failed", fmt.Sprintf("%d", report.Failed)})
	table.Append([]string{"Not Attempted", fmt.Sprintf("%d", report.NotAttempted)})
	table.Render()

	if len(report.Failures) > 0 {
		fmt.Println("\nFailures:")
		failures := tablewriter.NewWriter(os.Stdout)
		failures.SetHeader([]string{"Remote ID", "Stage", "Error"})
		for _, f := range report.Failures {
			failures.Append([]string{f.RemoteID, string(f.Stage), f.Error})
		}
		failures.Render()
	}
}

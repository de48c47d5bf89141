package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/igad-hub/hubwriter/internal/config"
	"github.com/igad-hub/hubwriter/internal/pagination"
	"github.com/igad-hub/hubwriter/internal/repository"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func PromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Manage prompt templates",
		Long:  "List, publish, and inspect prompt templates",
	}

	cmd.AddCommand(PromptListCmd())
	cmd.AddCommand(PromptPublishCmd())
	cmd.AddCommand(PromptHistoryCmd())

	return cmd
}

func PromptListCmd() *cobra.Command {
	var (
		limit   int
		offset  int
		section string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompt templates",
		Long:  "List the latest version of every prompt template",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runPromptList(outputFormat, section, limit, offset)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")
	cmd.Flags().StringVar(&section, "section", "", "Filter by newsletter section")

	return cmd
}

func runPromptList(outputFormat, section string, limit, offset int) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := newPromptService(pool)

	result, err := svc.List(ctx, service.ListFilters{Section: section}, pagination.Page{Limit: limit, Offset: offset})
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}

	if outputFormat == "json" {
		output := map[string]interface{}{
			"items":    result.Items,
			"total":    result.Total,
			"has_more": result.HasMore,
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(result.Items) == 0 {
			fmt.Println("No prompts found")
			return nil
		}
		fmt.Printf("Prompts (%d total):\n", result.Total)
		for _, p := range result.Items {
			active := ""
			if p.IsActive {
				active = ", active"
			}
			fmt.Printf("  %s v%d: %s [%s/%s] (%s%s)\n", p.ResourceID, p.Version, p.Name, p.Section, p.SubSection, p.Status, active)
		}
		if result.HasMore {
			fmt.Printf("\nMore results available. Use --offset %d\n", offset+len(result.Items))
		}
	}

	return nil
}

func PromptPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <resource-id>",
		Short: "Publish the latest draft of a prompt",
		Long:  "Publish the latest draft version of a prompt, freezing its content",
		Args:  cobra.ExactArgs(1),
		RunE:  runPromptPublish,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().String("actor", "admin-cli", "Actor recorded in the audit trail")

	return cmd
}

func runPromptPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	resourceID := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")
	actor, _ := cmd.Flags().GetString("actor")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := newPromptService(pool)

	record, err := svc.Publish(ctx, resourceID, actor)
	if err != nil {
		return fmt.Errorf("failed to publish prompt: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Prompt %s v%d published\n", record.ResourceID, record.Version)
	}

	return nil
}

func PromptHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <resource-id>",
		Short: "Show the audit trail of a prompt",
		Long:  "List audit entries for a prompt, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runPromptHistory(args[0], outputFormat, limit)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries")

	return cmd
}

func runPromptHistory(resourceID, outputFormat string, limit int) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := newPromptService(pool)

	entries, err := svc.History(ctx, resourceID, limit)
	if err != nil {
		return fmt.Errorf("failed to load prompt history: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(entries) == 0 {
			fmt.Printf("No audit entries found for %s\n", resourceID)
			return nil
		}
		fmt.Printf("Audit trail for %s:\n", resourceID)
		for _, e := range entries {
			fmt.Printf("  %s: %s by %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Operation, e.Actor)
		}
	}

	return nil
}

func newPromptService(pool *pgxpool.Pool) *service.PromptService {
	return service.NewPromptService(
		repository.NewPromptRepository(pool),
		repository.NewAuditRepository(pool),
		repository.NewTxRunner(pool),
	)
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

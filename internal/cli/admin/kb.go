package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/igad-hub/hubwriter/internal/config"
	"github.com/igad-hub/hubwriter/internal/openai"
	"github.com/igad-hub/hubwriter/internal/repository"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/spf13/cobra"
)

func KBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage the knowledge base index",
		Long:  "Ingest topic documents into the semantic index",
	}

	cmd.AddCommand(KBIngestCmd())

	return cmd
}

func KBIngestCmd() *cobra.Command {
	var (
		topicID   string
		file      string
		sourceURL string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a topic document",
		Long:  "Chunk and embed a topic document, replacing its indexed content",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runKBIngest(topicID, file, sourceURL, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&topicID, "topic", "t", "", "Topic ID (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the document to ingest (required)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Source URL recorded with each chunk")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runKBIngest(topicID, file, sourceURL, outputFormat string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required for ingestion")
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	modelClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	svc := service.NewIngestService(repository.NewKBChunkRepository(pool), modelClient)

	count, err := svc.IngestTopic(ctx, service.IngestInput{
		TopicID:   topicID,
		Content:   string(content),
		SourceURL: sourceURL,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest topic: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"topic_id":       topicID,
			"chunks_indexed": count,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Indexed %d chunks for topic %s\n", count, topicID)
	}

	return nil
}

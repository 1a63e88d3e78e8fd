package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/travelkb/kbuilder/internal/builder"
	"github.com/travelkb/kbuilder/internal/config"
	"github.com/travelkb/kbuilder/internal/llm"
	"github.com/travelkb/kbuilder/internal/progress"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the knowledge base from the supplied data sources",
	Long: `Parses product documents, order history, and chat transcripts, extracts
candidate products, FAQs, and policies, and fuses them into one
deduplicated knowledge base JSON snapshot. At least one data source
must be supplied.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("docs-dir", "p", "", "directory of product documents (pdf/docx/txt/html/md)")
	buildCmd.Flags().StringP("orders-file", "o", "", "historical orders file (csv/json/xlsx)")
	buildCmd.Flags().StringP("chats-file", "c", "", "chat transcript file (json/txt)")
	buildCmd.Flags().StringP("output", "O", "", "output file (overrides config)")
	buildCmd.Flags().StringP("llm-key", "k", "", "API key for model-assisted extraction")
	buildCmd.Flags().String("provider", "", "extraction provider: none or openai (overrides config)")
	buildCmd.Flags().String("model", "", "model name (overrides config)")
	buildCmd.Flags().Int("llm-timeout", 0, "per-call model timeout in seconds (overrides config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	docsDir, _ := cmd.Flags().GetString("docs-dir")
	ordersFile, _ := cmd.Flags().GetString("orders-file")
	chatsFile, _ := cmd.Flags().GetString("chats-file")

	if docsDir == "" && ordersFile == "" && chatsFile == "" {
		_ = cmd.Usage()
		return builder.ErrNoSources
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Provider = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetInt("llm-timeout"); v > 0 {
		cfg.LLMTimeoutSeconds = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	llmKey, _ := cmd.Flags().GetString("llm-key")
	if llmKey != "" && (cfg.Provider == "" || cfg.Provider == "none") {
		cfg.Provider = "openai"
	}
	provider, err := llm.NewProvider(cfg.Provider, llmKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		return fmt.Errorf("creating extraction provider: %w", err)
	}

	reporter := progress.NewReporter()
	started := false

	b := builder.New(builder.Options{
		DocsDir:    docsDir,
		OrdersFile: ordersFile,
		ChatsFile:  chatsFile,
		OutputPath: cfg.Output,
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
		Provider:   provider,
		Model:      cfg.Model,
		LLMTimeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		OnProgress: func(current, total int, file string) {
			if !started {
				reporter.Start(total)
				started = true
			}
			reporter.Update(current, file)
		},
	})

	result, err := b.Run(context.Background())
	if started {
		reporter.Finish()
	}
	if err != nil {
		return err
	}

	stats := result.KB.Metadata.Stats
	fmt.Println()
	fmt.Println("Knowledge base built!")
	fmt.Printf("  Products: %d\n", stats.Products)
	fmt.Printf("  FAQs:     %d\n", stats.FAQs)
	fmt.Printf("  Policies: %d\n", stats.Policies)
	if result.DocsFailed > 0 {
		fmt.Printf("  Documents skipped: %d\n", result.DocsFailed)
	}
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("  Output:   %s\n", cfg.Output)
	return nil
}

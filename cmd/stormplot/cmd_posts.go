package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stormplot/internal/llm"
	"stormplot/internal/posts"
)

var postsFlags struct {
	aiSummary bool
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Convert DOCX drafts into blog posts",
	RunE:  runPosts,
}

func init() {
	postsCmd.Flags().BoolVar(&postsFlags.aiSummary, "ai-summary", false, "Write post summaries with OpenAI (needs OPENAI_API_KEY)")
}

func runPosts(cmd *cobra.Command, _ []string) error {
	var summarizer posts.Summarizer
	if postsFlags.aiSummary {
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("--ai-summary requires OPENAI_API_KEY")
		}
		summarizer = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	written, err := posts.NewProcessor(cfg, summarizer).ProcessAll(cmd.Context())
	for _, p := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No DOCX posts found.")
	}
	return nil
}

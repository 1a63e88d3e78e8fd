package config

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to DefaultPath, and returns it.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to kbuilder! Let's configure your project.")
	fmt.Println()

	cfg := Default()

	providerPrompt := promptui.Select{
		Label: "Product extraction mode",
		Items: []string{
			"none   - heuristic extraction only",
			"openai - model-assisted extraction with heuristic fallback",
		},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = []string{"none", "openai"}[idx]

	if cfg.Provider == "openai" {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.Model,
		}
		if cfg.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	}

	outputPrompt := promptui.Prompt{
		Label:   "Output file for the knowledge base",
		Default: cfg.Output,
	}
	if cfg.Output, err = outputPrompt.Run(); err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	includePrompt := promptui.Prompt{
		Label:   "Document include patterns (comma-separated globs)",
		Default: strings.Join(cfg.Include, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	cfg.Include = splitAndTrim(includeStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, err
	}
	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Command llmcli is an interactive terminal client for the configured LLM
// provider. Each line is sent with the same system prompt and generation
// options as POST /api/chat; nothing is persisted.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"voicechat/internal/capabilities"
	"voicechat/internal/config"
	llmDomain "voicechat/internal/domain/services/llm"
	llmService "voicechat/internal/service/llm"
	"voicechat/internal/service/llm/chat"

	"github.com/joho/godotenv"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	provider llmDomain.Provider
	registry *capabilities.Registry
	catalog  *capabilities.ProviderCapabilities
	model    string
	scanner  *bufio.Scanner
	logger   *slog.Logger
}

func main() {
	providerFlag := flag.String("provider", "", "Provider to use (groq, gemini); defaults to LLM_PROVIDER")
	modelFlag := flag.String("model", "", "Model to use; defaults to the configured or catalog default")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *providerFlag != "" {
		cfg.LLMProvider = strings.ToLower(*providerFlag)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry, err := capabilities.NewRegistry()
	if err != nil {
		fail("Failed to load model catalog: %v", err)
	}
	catalog, err := registry.GetProvider(cfg.LLMProvider)
	if err != nil {
		fail("Unknown provider %q: %v", cfg.LLMProvider, err)
	}

	provider, err := llmService.NewProviderFactory(cfg).Active()
	if err != nil {
		fail("%s", err)
	}

	configured := cfg.ProviderModel()
	if *modelFlag != "" {
		configured = *modelFlag
	}
	model, err := registry.ResolveModel(cfg.LLMProvider, configured)
	if err != nil {
		fail("%s", err)
	}
	if err := registry.ValidateModel(cfg.LLMProvider, model); err != nil {
		fail("%s", err)
	}

	cli := &CLI{
		provider: provider,
		registry: registry,
		catalog:  catalog,
		model:    model,
		scanner:  bufio.NewScanner(os.Stdin),
		logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli.run(ctx)
}

func (c *CLI) run(ctx context.Context) {
	fmt.Printf("%s%s%s using %s%s%s\n", colorCyan, c.catalog.DisplayName, colorReset, colorYellow, c.model, colorReset)
	fmt.Println("Type a message and press enter. Commands: /models, /model <id>, /quit")

	for {
		fmt.Printf("%s> %s", colorBlue, colorReset)
		if !c.scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(c.scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/models":
			c.printModels()
		case strings.HasPrefix(line, "/model "):
			c.switchModel(strings.TrimSpace(strings.TrimPrefix(line, "/model ")))
		default:
			c.send(ctx, line)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func (c *CLI) send(ctx context.Context, message string) {
	start := time.Now()
	completion, err := c.provider.Complete(ctx, &llmDomain.CompletionRequest{
		SystemPrompt: chat.SystemPrompt,
		UserMessage:  message,
		Model:        c.model,
		Options:      llmDomain.DefaultCompletionOptions(),
	})
	if err != nil {
		c.logger.Debug("completion failed", "error", err)
		fmt.Printf("%s❌ %v%s\n", colorRed, err, colorReset)
		return
	}

	fmt.Printf("%s%s%s\n", colorGreen, strings.TrimSpace(completion.Text), colorReset)
	fmt.Printf("%s(%s, %d in / %d out tokens, %s)%s\n", colorYellow,
		completion.Model, completion.InputTokens, completion.OutputTokens,
		time.Since(start).Round(time.Millisecond), colorReset)
}

func (c *CLI) printModels() {
	for _, m := range c.catalog.Models {
		marker := " "
		if m.ID == c.model {
			marker = "*"
		}
		fmt.Printf("%s %-28s %s\n", marker, m.ID, m.Description)
	}
}

func (c *CLI) switchModel(id string) {
	if err := c.registry.ValidateModel(c.catalog.Provider, id); err != nil {
		fmt.Printf("%s❌ %v%s\n", colorRed, err, colorReset)
		return
	}
	c.model = id
	fmt.Printf("Switched to %s%s%s\n", colorYellow, id, colorReset)
}

func fail(format string, args ...any) {
	fmt.Printf("%s❌ "+format+"%s\n", append(append([]any{colorRed}, args...), colorReset)...)
	os.Exit(1)
}

// Command ask submits a prompt to a completion endpoint and prints the streamed answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"docprompt/internal/promptclient"
)

func main() {
	endpoint := flag.String("endpoint", envOr("DOCPROMPT_ENDPOINT", "http://localhost:9000/api/v1/completions"), "completion endpoint URL")
	model := flag.String("model", "", "completion model override")
	template := flag.String("template", "", "prompt template override")
	fallback := flag.String("i-dont-know", "", "answer used when no answer is found")
	providerKey := flag.String("provider-key", os.Getenv("DOCPROMPT_PROVIDER_KEY"), "bill the completion to this model provider key")
	verbose := flag.Bool("v", false, "print the prompt id")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <question>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		flag.Usage()
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var references []string
	cb := promptclient.Callbacks{
		OnAnswerChunk: func(chunk string) {
			fmt.Print(chunk)
		},
		OnReferences: func(refs []string) {
			references = refs
		},
		OnPromptID: func(id string) {
			if *verbose {
				fmt.Fprintf(os.Stderr, "prompt id: %s\n", id)
			}
		},
		OnError: func(err error) {
			slog.Error("completion failed", "error", err)
		},
	}

	client := promptclient.NewClient(*endpoint, nil)
	err := client.SubmitPrompt(ctx, prompt, promptclient.Options{
		Model:            *model,
		PromptTemplate:   *template,
		IDontKnowMessage: *fallback,
		ProviderKey:      *providerKey,
	}, cb)
	fmt.Println()

	if len(references) > 0 {
		fmt.Println("\nReferences:")
		for _, ref := range references {
			fmt.Println("  -", ref)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Digiman is the intent-understanding core of the hostel assistant, exposed
// as a line-oriented console for local exercise.
//
// Each input line is classified against the intent catalog. Confident,
// non-sensitive matches are answered directly; everything else is held in
// the approval queue until a reviewer decides.
//
// Usage:
//
//	digiman [-config config.yaml]
//
// Console commands: /pending, /approve <id> [edited reply], /reject <id>,
// /history, /reset, /stats. Any other line is treated as a guest message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wenjyue84/digiman-sub014/internal/approval"
	"github.com/wenjyue84/digiman-sub014/internal/config"
	"github.com/wenjyue84/digiman-sub014/internal/conversation"
	"github.com/wenjyue84/digiman-sub014/internal/embeddings"
	"github.com/wenjyue84/digiman-sub014/internal/intent"
	"github.com/wenjyue84/digiman-sub014/internal/logging"
)

// replies are the canned responses per intent. Real deployments resolve
// these from the knowledge base; the console keeps them static.
var replies = map[string]string{
	"wifi":       "The wifi network is PelangiGuest and the password is rainbow2024.",
	"pricing":    "A capsule is RM45 per night, RM270 per week.",
	"check_in":   "Check-in opens at 3pm. Early check-in depends on availability, just ask!",
	"check_out":  "Check-out is at 12pm. We can store your bags at reception afterwards.",
	"facilities": "We have a shared kitchen, laundry on level 2 and showers on every floor.",
	"booking":    "I can help with that! How many nights and which dates are you looking at?",
	"complaint":  "I'm sorry to hear that. Our team will look into it right away.",
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "digiman: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failures are harmless

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer provider.Close()

	catalog := intent.DefaultCatalog()
	if cfg.Matcher.CatalogPath != "" {
		catalog, err = intent.LoadCatalog(cfg.Matcher.CatalogPath)
		if err != nil {
			return err
		}
	}

	matcher, err := intent.NewMatcher(provider, logger,
		intent.WithDefaultThreshold(cfg.Matcher.DefaultThreshold))
	if err != nil {
		return err
	}
	logger.Info("building intent index, first run downloads the model")
	if err := matcher.Initialize(ctx, catalog); err != nil {
		return fmt.Errorf("initializing matcher: %w", err)
	}

	store := approval.NewStore(approval.StoreConfig{
		Timeout:       cfg.Approval.Timeout,
		SweepInterval: cfg.Approval.SweepInterval,
	}, logger)
	if err := store.Start(); err != nil {
		return err
	}
	defer store.Stop()

	events, unsubscribe := store.Subscribe()
	defer unsubscribe()
	go printEvents(events)

	gate := intent.NewGate(cfg.Approval.AutoSendThreshold, cfg.Approval.SensitiveIntents)
	session := conversation.NewSession(conversation.ResponderFunc(
		func(ctx context.Context, text string) (string, error) {
			return respond(ctx, matcher, gate, store, text)
		},
	))

	stats := matcher.Stats()
	fmt.Printf("digiman ready: %d intents, %d examples. Type a message or /help.\n",
		stats.TotalIntents, stats.TotalExamples)

	return console(ctx, session, store, matcher)
}

// respond classifies a message and either answers it or holds the reply for
// review.
func respond(ctx context.Context, matcher *intent.Matcher, gate *intent.Gate, store *approval.Store, text string) (string, error) {
	res, err := matcher.MatchDefault(ctx, text)
	if err != nil {
		// Never leak provider errors to the guest.
		return "Let me check with the team and get back to you shortly.", nil
	}

	suggested := "Let me check with the team and get back to you shortly."
	intentName := ""
	confidence := 0.0
	if res != nil {
		intentName = res.Intent
		confidence = res.Score
		if reply, ok := replies[res.Intent]; ok {
			suggested = reply
		}
	}

	if hold, reason := gate.NeedsReview(res); hold {
		id := store.Add(approval.Draft{
			Phone:             "console",
			PushName:          "Console Guest",
			OriginalMessage:   text,
			SuggestedResponse: suggested,
			Intent:            intentName,
			Confidence:        confidence,
			Language:          "en",
			Metadata:          approval.Metadata{Source: "semantic"},
		})
		return fmt.Sprintf("(held for review: %s, id=%s)", reason, id), nil
	}
	return suggested, nil
}

// console runs the interactive loop until EOF or signal.
func console(ctx context.Context, session *conversation.Session, store *approval.Store, matcher *intent.Matcher) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			handleCommand(line, session, store, matcher)
			continue
		}

		response, err := session.SendMessage(ctx, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Println(response)
	}
}

func handleCommand(line string, session *conversation.Session, store *approval.Store, matcher *intent.Matcher) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/pending":
		pending := store.All()
		if len(pending) == 0 {
			fmt.Println("no pending approvals")
			return
		}
		for _, p := range pending {
			fmt.Printf("%s  intent=%s conf=%.2f  %q -> %q\n",
				p.ID, p.Intent, p.Confidence, p.OriginalMessage, p.SuggestedResponse)
		}
	case "/approve":
		if len(fields) < 2 {
			fmt.Println("usage: /approve <id> [edited reply]")
			return
		}
		edited := strings.Join(fields[2:], " ")
		if store.Approve(fields[1], edited) {
			fmt.Println("approved")
		} else {
			fmt.Println("not found")
		}
	case "/reject":
		if len(fields) < 2 {
			fmt.Println("usage: /reject <id>")
			return
		}
		if store.Reject(fields[1]) {
			fmt.Println("rejected")
		} else {
			fmt.Println("not found")
		}
	case "/history":
		for _, turn := range session.History() {
			fmt.Printf("[%s] %s\n", turn.Role, turn.Text)
		}
	case "/reset":
		session.Reset()
		fmt.Println("session cleared")
	case "/stats":
		stats := matcher.Stats()
		fmt.Printf("intents=%d examples=%d pending=%d\n",
			stats.TotalIntents, stats.TotalExamples, store.Len())
	case "/help":
		fmt.Println("commands: /pending /approve <id> [reply] /reject <id> /history /reset /stats")
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
}

// printEvents mirrors queue lifecycle events to the console.
func printEvents(events <-chan approval.Event) {
	for e := range events {
		switch e.Kind {
		case approval.EventApproved:
			fmt.Printf("\n[send to guest] %s\n> ", e.Response)
		case approval.EventRejected:
			fmt.Printf("\n[reply discarded] %s\n> ", e.ID)
		case approval.EventExpired:
			fmt.Printf("\n[approval expired] %s\n> ", e.ID)
		}
	}
}

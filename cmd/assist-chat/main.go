// ABOUTME: Interactive terminal session for the diagnostic assistant core
// ABOUTME: Wires config, store, LM client, session manager and escalation engine

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
	"syscall"

	"github.com/fatih/color"

	"github.com/induserve/assist/internal/config"
	"github.com/induserve/assist/internal/escalation"
	"github.com/induserve/assist/internal/lang"
	"github.com/induserve/assist/internal/llm"
	"github.com/induserve/assist/internal/lookup"
	"github.com/induserve/assist/internal/notify"
	"github.com/induserve/assist/internal/session"
	"github.com/induserve/assist/internal/store"
)

// version is set at build time.
var version = "dev"

// getConfigPath returns the path to the config file.
// Priority: ASSIST_CONFIG env var > ./assist.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ASSIST_CONFIG"); envPath != "" {
		return envPath
	}
	return "assist.yaml"
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func main() {
	userID := flag.String("user", "demo-user", "user identifier")
	machineID := flag.String("machine", "", "machine identifier (optional)")
	language := flag.String("lang", lang.Default, "session language code")
	problem := flag.String("problem", "", "problem description (prompted when empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("assist-chat %s\n", version)
		return
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, *userID, *machineID, *language, *problem); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, userID, machineID, language, problem string) error {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var users lookup.UserLookup
	var machines lookup.MachineLookup
	if cfg.Lookup.BaseURL != "" {
		client := lookup.NewClient(cfg.Lookup.BaseURL, []byte(cfg.Lookup.TokenSecret),
			cfg.Lookup.TokenIssuer, cfg.Lookup.TokenTTL)
		users, machines = client, client
	} else {
		// No master-data service configured: run against static demo data
		static := &lookup.StaticLookup{
			Machines: map[string]*lookup.Machine{
				"demo-machine": {Name: "Demo press", Model: "HP-200", SerialNumber: "SN-0001"},
			},
		}
		users, machines = static, static
	}

	var gateway notify.Gateway = notify.NoopGateway{}
	if cfg.Notify.Matrix.Enabled {
		mg, err := notify.NewMatrixGateway(cfg.Notify.Matrix.Homeserver,
			cfg.Notify.Matrix.UserID, cfg.Notify.Matrix.AccessToken, cfg.Notify.Matrix.SupportRoom)
		if err != nil {
			return fmt.Errorf("creating matrix gateway: %w", err)
		}
		gateway = mg
	}

	client := llm.NewClient(llm.NewOpenAIProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey), llm.Config{
		PrimaryModel:       cfg.LLM.PrimaryModel,
		FallbackModel:      cfg.LLM.FallbackModel,
		MaxAttempts:        cfg.LLM.MaxAttempts,
		FallbackAttempts:   cfg.LLM.FallbackAttempts,
		RequestTimeout:     cfg.LLM.RequestTimeout,
		InitialBackoff:     cfg.LLM.InitialBackoff,
		SupportedLanguages: cfg.Languages.Supported,
	})

	manager := session.NewManager(st)
	engine := escalation.NewEngine(escalation.Config{
		ConfidenceThreshold: cfg.Escalation.ConfidenceThreshold,
		MaxSteps:            cfg.Escalation.MaxSteps,
	}, st, users, machines, gateway)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return chatLoop(ctx, manager, client, engine, machines, userID, machineID, language, problem)
}

func chatLoop(ctx context.Context, manager *session.Manager, client *llm.Client, engine *escalation.Engine,
	machines lookup.MachineLookup, userID, machineID, language, problem string) error {

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	scanner := bufio.NewScanner(os.Stdin)

	if problem == "" {
		bold.Print("Describe the problem: ")
		if !scanner.Scan() {
			return nil
		}
		problem = strings.TrimSpace(scanner.Text())
	}

	sessionID, err := manager.CreateSession(ctx, userID, machineID, language, problem)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	cyan.Printf("Session %s opened (language: %s)\n\n", sessionID, language)

	// Seed the conversation with the localized diagnostic system prompt
	machineContext := map[string]string{}
	if machineID != "" {
		if machine, err := machines.GetMachine(ctx, machineID); err == nil && machine != nil {
			machineContext["name"] = machine.Name
			machineContext["model"] = machine.Model
			machineContext["serial_number"] = machine.SerialNumber
		}
	}
	systemPrompt := llm.BuildDiagnosticPrompt(machineContext, language)
	if _, err := manager.AddMessage(ctx, sessionID, store.SenderSystem, systemPrompt,
		store.MessageTypeText, language, nil); err != nil {
		return fmt.Errorf("seeding system prompt: %w", err)
	}

	// First turn: analyze the reported problem
	if _, err := manager.AddMessage(ctx, sessionID, store.SenderUser, problem,
		store.MessageTypeText, language, nil); err != nil {
		return fmt.Errorf("recording problem: %w", err)
	}
	steps := 0
	if !turn(ctx, manager, client, engine, yellow, red, sessionID, language, problem, &steps) {
		return manager.CloseSession(context.Background(), sessionID)
	}

	for {
		bold.Print("> ")
		if !scanner.Scan() || ctx.Err() != nil {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			break
		}
		if input == "/history" {
			printHistory(ctx, manager, sessionID)
			continue
		}

		if _, err := manager.AddMessage(ctx, sessionID, store.SenderUser, input,
			store.MessageTypeText, language, nil); err != nil {
			return fmt.Errorf("recording message: %w", err)
		}
		if !turn(ctx, manager, client, engine, yellow, red, sessionID, language, input, &steps) {
			break
		}
	}

	// Use a fresh context: the signal context may already be cancelled
	return manager.CloseSession(context.Background(), sessionID)
}

// turn requests one model reply, records it, and evaluates escalation.
// Returns false when the session was escalated and the loop should stop.
func turn(ctx context.Context, manager *session.Manager, client *llm.Client, engine *escalation.Engine,
	yellow, red *color.Color, sessionID, language, feedback string, steps *int) bool {

	history, err := manager.GetSessionHistory(ctx, sessionID)
	if err != nil {
		red.Printf("history error: %v\n", err)
		return false
	}

	messages := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, llm.ChatMessage{Role: msg.Sender, Content: msg.Content})
	}

	resp := client.GenerateResponse(ctx, messages, language)
	fmt.Printf("\n%s\n\n", resp.Content)

	metadata := map[string]string{
		"model_used": resp.ModelUsed,
		"tokens":     fmt.Sprintf("%d", resp.TokensUsed),
	}
	if _, err := manager.AddMessage(ctx, sessionID, store.SenderAssistant, resp.Content,
		store.MessageTypeText, language, metadata); err != nil {
		red.Printf("record error: %v\n", err)
		return false
	}
	*steps++

	// Without a model-reported confidence signal, a failed turn counts as
	// zero confidence and a successful one as fully confident.
	confidence := 1.0
	if !resp.Success {
		confidence = 0.0
	}

	decision := engine.Evaluate(escalation.EvaluateInput{
		SessionID:      sessionID,
		Confidence:     confidence,
		StepsCompleted: *steps,
		UserFeedback:   feedback,
	})
	if !decision.ShouldEscalate {
		return true
	}

	result, err := engine.CreateTicket(ctx, sessionID, decision.Reason, decision.Priority, "")
	if err != nil {
		red.Printf("escalation error: %v\n", err)
		return false
	}
	yellow.Printf("Escalated to a human expert: ticket %s (priority %s, notified: %t)\n",
		result.TicketNumber, result.Priority, result.EmailSent)
	return false
}

func printHistory(ctx context.Context, manager *session.Manager, sessionID string) {
	history, err := manager.GetSessionHistory(ctx, sessionID)
	if err != nil {
		fmt.Printf("history error: %v\n", err)
		return
	}
	for _, msg := range history {
		fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.Sender, msg.Content)
	}
}

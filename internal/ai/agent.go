package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"go-pos-checkout/internal/config"
)

// maxToolRounds bounds how many tool round trips one question may take.
const maxToolRounds = 5

var ErrNotConfigured = errors.New("assistant is not configured")

// Agent is the stock assistant behind POST /api/ask.
type Agent struct {
	apiKey string
	model  string
	tools  *Toolbox
	logger *zap.Logger
	clock  func() time.Time
}

func NewAgent(cfg config.AIConfig, tools *Toolbox, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		apiKey: cfg.GeminiAPIKey,
		model:  cfg.Model,
		tools:  tools,
		logger: logger.Named("ai"),
		clock:  time.Now,
	}
}

// Enabled reports whether an API key is configured.
func (a *Agent) Enabled() bool {
	return a != nil && a.apiKey != ""
}

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf(`Today is %s. You are the stock assistant of a point-of-sale terminal.

RULES:
1. READ: for the current stock of a variant call '%s'. For past changes call '%s'.
2. WRITE: to change stock call '%s'. Never invent a variant ID; ask for it when missing.
   Use adjust_stock only when the user gives an absolute count.
3. REPORTS: for movements over a period call '%s'.
4. If a tool returns an "error", explain it to the user in plain words.`,
		a.clock().Format("2006-01-02"), toolCheckStock, toolStockHistory, toolMutateStock, toolStockMovements)
}

// Ask answers one question, running the tools the model requests.
func (a *Agent) Ask(ctx context.Context, message string, actorID uint) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", fmt.Errorf("ai: create client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(a.systemPrompt()))
	model.Tools = []*genai.Tool{{FunctionDeclarations: declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("ai: send message: %w", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return textOf(resp), nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.logger.Info("running tool", zap.String("tool", call.Name), zap.Uint("actor_id", actorID))
			replies = append(replies, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.tools.Execute(ctx, call, actorID),
			})
		}

		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return "", fmt.Errorf("ai: send tool results: %w", err)
		}
	}

	a.logger.Warn("tool round limit reached", zap.Int("rounds", maxToolRounds))
	return textOf(resp), nil
}

func parts(resp *genai.GenerateContentResponse) []genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var out []genai.FunctionCall
	for _, part := range parts(resp) {
		if call, ok := part.(genai.FunctionCall); ok {
			out = append(out, call)
		}
	}
	return out
}

func textOf(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range parts(resp) {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "I completed the action."
	}
	return b.String()
}

package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// systemPrompt fixes the assistant's role and hard prohibitions. The
// assistant is read-only: cancellations happen only through the
// explicit conversation flow, never through generated text.
const systemPrompt = `Você é o assistente virtual de uma barbearia no WhatsApp.
Seja simpático, direto e responda em no máximo 3 linhas.

Regras obrigatórias:
- NUNCA invente dados: use apenas as informações do bloco DADOS abaixo.
- NUNCA mencione botões, telas ou qualquer interface além desta conversa.
- NUNCA revele dados de outros clientes ou de outras barbearias.
- NUNCA fale sobre como o sistema funciona por dentro.
- Você NÃO consegue cancelar nem remarcar horários. Se pedirem, oriente a
  enviar "cancelar agendamento" ou a falar direto com a barbearia.`

// defaultHistoryTurns is how many persisted turns ground the prompt.
const defaultHistoryTurns = 10

// defaultOracleTimeout bounds one completion call. A timeout is a plain
// failure, not retried.
const defaultOracleTimeout = 20 * time.Second

// Oracle is the opaque text-completion backend
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiOracle implements Oracle on Google's Gemini API
type GeminiOracle struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiOracle creates a Gemini-backed completion oracle
func NewGeminiOracle(ctx context.Context, apiKey string) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(512)

	return &GeminiOracle{client: client, model: model}, nil
}

// Complete sends one prompt and returns the generated text
func (g *GeminiOracle) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty completion")
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			fmt.Fprintf(&b, "%v", part)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Close releases the underlying client
func (g *GeminiOracle) Close() error {
	return g.client.Close()
}

// AIResponder is the generative fallback adapter. It grounds the
// prompt on the session identity and the same database read paths the
// deterministic dispatcher uses, forwards to the oracle, and persists
// both turns. It never mutates appointment data.
type AIResponder struct {
	store        storage.Store
	dispatch     *CommandDispatcher
	oracle       Oracle
	enabled      bool
	historyTurns int
	timeout      time.Duration
}

// NewAIResponder creates the generative fallback adapter. With enabled
// false or a nil oracle, Respond always yields empty and the caller's
// deterministic path takes over.
func NewAIResponder(store storage.Store, dispatch *CommandDispatcher, oracle Oracle, enabled bool) *AIResponder {
	return &AIResponder{
		store:        store,
		dispatch:     dispatch,
		oracle:       oracle,
		enabled:      enabled,
		historyTurns: defaultHistoryTurns,
		timeout:      defaultOracleTimeout,
	}
}

// Respond implements Responder
func (a *AIResponder) Respond(ctx context.Context, phoneKey, text string, sess *Session) (string, error) {
	if !a.enabled || a.oracle == nil {
		return "", nil
	}

	prompt := a.buildPrompt(phoneKey, text, sess)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := a.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Printf("⚠️  Oracle call failed for %s: %v", phoneKey, err)
		return "", err
	}
	if reply == "" {
		return "", nil
	}

	// Persist both turns so future prompts are grounded on them
	a.persistTurn(phoneKey, models.RoleUser, text)
	a.persistTurn(phoneKey, models.RoleAI, reply)

	return reply, nil
}

func (a *AIResponder) buildPrompt(phoneKey, text string, sess *Session) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	b.WriteString("\n\nUSUÁRIO:\n")
	b.WriteString(a.userContext(sess))

	b.WriteString("\n\nDADOS:\n")
	b.WriteString(a.grounding(sess))

	if history := a.history(phoneKey); history != "" {
		b.WriteString("\n\nCONVERSA ANTERIOR:\n")
		b.WriteString(history)
	}

	b.WriteString("\n\nMENSAGEM: ")
	b.WriteString(text)
	b.WriteString("\n\nRESPOSTA:")
	return b.String()
}

func (a *AIResponder) userContext(sess *Session) string {
	if !sess.Authenticated {
		return "Visitante não identificado. Não há dados de conta disponíveis."
	}
	switch sess.ActorType {
	case ActorClient:
		return fmt.Sprintf("Cliente autenticado: %s (barbearia %s).", sess.Client.Name, sess.ActiveShopID)
	case ActorShop:
		return fmt.Sprintf("Dono da barbearia autenticado: %s.", sess.Shop.Name)
	default:
		return "Visitante não identificado."
	}
}

// grounding re-queries the dispatcher's read paths, scoped to the
// authenticated identity. An unauthenticated session gets no account
// data at all.
func (a *AIResponder) grounding(sess *Session) string {
	if !sess.Authenticated {
		return "(nenhum dado de conta: usuário não autenticado)"
	}

	var blocks []string
	switch sess.ActorType {
	case ActorClient:
		blocks = append(blocks,
			a.dispatch.clientUpcoming(sess),
			a.dispatch.shopServices(sess),
			a.dispatch.shopStaff(sess),
			a.dispatch.shopContact(sess),
		)
	case ActorShop:
		blocks = append(blocks,
			a.dispatch.shopToday(sess),
			a.dispatch.shopTomorrow(sess),
			a.dispatch.shopStaff(sess),
			a.dispatch.shopServices(sess),
		)
	}
	return strings.Join(blocks, "\n\n")
}

// history reads the last turns back in chronological order
func (a *AIResponder) history(phoneKey string) string {
	msgs, err := a.store.GetRecentConversation(phoneKey, a.historyTurns)
	if err != nil {
		log.Printf("⚠️  Failed to load conversation history for %s: %v", phoneKey, err)
		return ""
	}

	var b strings.Builder
	// Stored most recent first; re-reverse for the prompt
	for i := len(msgs) - 1; i >= 0; i-- {
		label := "Usuário"
		if msgs[i].Role == models.RoleAI {
			label = "Assistente"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, msgs[i].Text)
	}
	return strings.TrimSpace(b.String())
}

func (a *AIResponder) persistTurn(phoneKey, role, text string) {
	err := a.store.AppendConversationMessage(&models.ConversationMessage{
		Phone: phoneKey,
		Role:  role,
		Text:  text,
	})
	if err != nil {
		log.Printf("⚠️  Failed to persist conversation turn for %s: %v", phoneKey, err)
	}
}

// Package conversation wraps the upstream chat model behind a small engine
// interface consumed by the session gateway.
package conversation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mikoto-studio/vstage/internal/config"
	"github.com/mikoto-studio/vstage/internal/model/character"
)

// Service runs chat turns through a compiled prompt + model chain.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the conversation chain from the configured model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile conversation chain: %w", err)
	}

	return &Service{chain: runnable}, nil
}

// Reply produces the character's answer to one user turn.
func (s *Service) Reply(ctx context.Context, ch character.Character, history []*schema.Message, userText string) (string, error) {
	input := map[string]any{
		"system":  buildSystemPrompt(ch),
		"history": history,
		"query":   userText,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run conversation chain: %w", err)
	}

	log.Printf("[conversation] generated reply character=%s length=%d", ch.ID, len(response.Content))
	return response.Content, nil
}

func buildSystemPrompt(ch character.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.", ch.Name, ch.Title)
	if ch.PromptHint != "" {
		b.WriteString(" ")
		b.WriteString(ch.PromptHint)
	}
	b.WriteString(" Stay in character and keep replies concise enough to be spoken aloud.")
	return b.String()
}

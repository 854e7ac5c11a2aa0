package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"go.uber.org/zap"
)

// Chunk is one piece of a streamed model answer. A non-nil Err is always the last chunk.
type Chunk struct {
	Text string
	Err  error
}

type AnalysisService struct {
	LLM           *LLMService
	Conversations *repository.ConversationRepository
	Log           *zap.Logger
}

func NewAnalysisService(llm *LLMService, conversations *repository.ConversationRepository, log *zap.Logger) *AnalysisService {
	return &AnalysisService{LLM: llm, Conversations: conversations, Log: log}
}

// AnalyzeConversation loads the thread and starts streaming the model's analysis.
// Lookup failures are returned directly; failures while generating arrive on the channel.
// The channel is closed when generation ends or ctx is cancelled.
func (s *AnalysisService) AnalyzeConversation(ctx context.Context, userID, conversationID string) (<-chan Chunk, error) {
	if s.LLM == nil {
		return nil, apperrors.Unavailable("conversation analysis is not configured")
	}
	conv, err := s.Conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Conversations.Messages(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	prompt := buildAnalysisPrompt(conv, msgs)

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		err := s.LLM.Stream(ctx, prompt, func(text string) error {
			select {
			case out <- Chunk{Text: text}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			s.Log.Error("conversation analysis failed",
				zap.String("conversation_id", conversationID), zap.Error(err))
			select {
			case out <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func buildAnalysisPrompt(conv *models.Conversation, msgs []models.Message) string {
	var b strings.Builder
	b.WriteString("You are a job-search coach reviewing a conversation with a professional contact.\n")
	b.WriteString("Summarize where the conversation stands, the contact's apparent interest, ")
	b.WriteString("and suggest the single best next message to send. Keep it under 200 words.\n\n")

	if conv.Contact != nil {
		fmt.Fprintf(&b, "Contact: %s", conv.Contact.FullName())
		if conv.Contact.Title != "" {
			fmt.Fprintf(&b, ", %s", conv.Contact.Title)
		}
		if conv.Contact.Company != nil {
			fmt.Fprintf(&b, " at %s", conv.Contact.Company.Name)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Channel: %s\nSubject: %s\n\nMessages:\n", conv.Channel, conv.Subject)
	if len(msgs) == 0 {
		b.WriteString("(no messages yet)\n")
	}
	for _, m := range msgs {
		who := "Contact"
		if m.Direction == models.DirectionOutbound {
			who = "Me"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.SentAt.Format("2006-01-02 15:04"), who, strings.TrimSpace(m.Body))
	}
	return b.String()
}

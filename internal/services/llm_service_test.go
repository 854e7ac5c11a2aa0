package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// fakeModel answers every prompt with chunks, streaming them when asked to.
type fakeModel struct {
	chunks  []string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}

	var full strings.Builder
	for _, chunk := range m.chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
		full.WriteString(chunk)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: full.String()}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestExtractJobDetails(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    string
		wantErr error
	}{
		{name: "plain json", answer: `{"title":"SRE"}`, want: `{"title":"SRE"}`},
		{name: "fenced json", answer: "```json\n{\"title\":\"SRE\"}\n```", want: `{"title":"SRE"}`},
		{name: "prose", answer: "Sure! Here is the job.", wantErr: ErrInvalidModelJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &LLMService{Client: &fakeModel{chunks: []string{tt.answer}}}
			got, err := llm.ExtractJobDetails(context.Background(), "<html>job</html>", "https://jobs.example.com/1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestExtractJobDetails_TruncatesInput(t *testing.T) {
	model := &fakeModel{chunks: []string{`{}`}}
	llm := &LLMService{Client: model}

	_, err := llm.ExtractJobDetails(context.Background(), strings.Repeat("x", maxExtractionInput*2), "")
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	assert.Less(t, len(model.prompts[0]), maxExtractionInput+len(jobExtractionPrompt))
}

func collect(t *testing.T, ch <-chan Chunk) []Chunk {
	t.Helper()
	var out []Chunk
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, c)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestAnalyzeConversation_Streams(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	company := r.company(t, "u1", "Acme")
	contact := r.contact(t, &models.Contact{UserID: "u1", FirstName: "Ada", LastName: "Byron", Title: "CTO", CompanyID: &company.ID})
	conv := r.conversation(t, &models.Conversation{UserID: "u1", ContactID: contact.ID, Subject: "Platform team", Channel: "email"})
	require.NoError(t, r.conversations.AddMessage(ctx, &models.Message{
		UserID: "u1", ConversationID: conv.ID, Direction: models.DirectionOutbound, Body: "Would love to chat",
	}))

	model := &fakeModel{chunks: []string{"Warm lead. ", "Send a follow-up."}}
	svc := NewAnalysisService(&LLMService{Client: model}, r.conversations, zap.NewNop())

	ch, err := svc.AnalyzeConversation(ctx, "u1", conv.ID)
	require.NoError(t, err)
	chunks := collect(t, ch)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Warm lead. ", chunks[0].Text)
	assert.Equal(t, "Send a follow-up.", chunks[1].Text)
	for _, c := range chunks {
		assert.NoError(t, c.Err)
	}

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	assert.Contains(t, prompt, "Ada Byron, CTO at Acme")
	assert.Contains(t, prompt, "Subject: Platform team")
	assert.Contains(t, prompt, "Me: Would love to chat")
}

func TestAnalyzeConversation_ReportsFailureLast(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	contact := r.contact(t, &models.Contact{UserID: "u1", FirstName: "Ada"})
	conv := r.conversation(t, &models.Conversation{UserID: "u1", ContactID: contact.ID})

	boom := errors.New("quota exceeded")
	svc := NewAnalysisService(&LLMService{Client: &fakeModel{chunks: []string{"partial"}, err: boom}}, r.conversations, zap.NewNop())

	ch, err := svc.AnalyzeConversation(ctx, "u1", conv.ID)
	require.NoError(t, err)
	chunks := collect(t, ch)
	require.Len(t, chunks, 2)
	assert.Equal(t, "partial", chunks[0].Text)
	assert.ErrorIs(t, chunks[1].Err, boom)
}

func TestAnalyzeConversation_Errors(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	_, err := NewAnalysisService(nil, r.conversations, zap.NewNop()).AnalyzeConversation(ctx, "u1", "any")
	requireStatus(t, err, http.StatusServiceUnavailable)

	svc := NewAnalysisService(&LLMService{Client: &fakeModel{}}, r.conversations, zap.NewNop())
	_, err = svc.AnalyzeConversation(ctx, "u1", "missing")
	requireStatus(t, err, http.StatusNotFound)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}

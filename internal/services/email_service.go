package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

const (
	syncTimeout     = 2 * time.Minute
	fullSyncQuery   = "subject:(application OR interview OR update OR offer OR rejected OR status OR opportunity OR role) newer_than:7d"
	fullSyncMaxList = 50
)

var ErrSyncInProgress = apperrors.New(http.StatusConflict, "a sync is already running")

// MailSource lists inbox messages with full headers and bodies.
type MailSource interface {
	// Recent returns the messages of the bootstrap window and the mailbox's current history id.
	Recent(ctx context.Context) ([]*gmail.Message, uint64, error)
	// Since returns messages added after historyID and the new history id.
	Since(ctx context.Context, historyID uint64) ([]*gmail.Message, uint64, error)
}

type EmailService struct {
	Source        MailSource
	Users         *repository.UserRepository
	Contacts      *repository.ContactRepository
	Conversations *repository.ConversationRepository
	Matcher       *MatcherService
	Log           *zap.Logger

	running atomic.Bool
}

func NewEmailService(
	source MailSource,
	users *repository.UserRepository,
	contacts *repository.ContactRepository,
	conversations *repository.ConversationRepository,
	matcher *MatcherService,
	log *zap.Logger,
) *EmailService {
	return &EmailService{
		Source:        source,
		Users:         users,
		Contacts:      contacts,
		Conversations: conversations,
		Matcher:       matcher,
		Log:           log.Named("gmail-sync"),
	}
}

// StartWatcher runs a sync for userID right away and then on schedule.
// The returned cron must be stopped on shutdown.
func (s *EmailService) StartWatcher(schedule, userID string) (*cron.Cron, error) {
	if s.Source == nil {
		s.Log.Warn("gmail watcher disabled: no mail source")
		return nil, nil
	}
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if _, err := s.Sync(ctx, userID); err != nil && !errors.Is(err, ErrSyncInProgress) {
			s.Log.Error("scheduled sync failed", zap.Error(err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, run); err != nil {
		return nil, fmt.Errorf("gmail watcher: bad schedule %q: %w", schedule, err)
	}
	go run()
	c.Start()
	s.Log.Info("gmail watcher started", zap.String("schedule", schedule), zap.String("user_id", userID))
	return c, nil
}

// Sync imports new inbox messages for userID. Only one sync runs at a time.
func (s *EmailService) Sync(ctx context.Context, userID string) (*models.SyncStatus, error) {
	if s.Source == nil {
		return nil, apperrors.Unavailable("gmail sync is not configured")
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	status, err := s.Users.SyncStatus(ctx, userID, models.SyncProviderGmail)
	if err != nil {
		return nil, err
	}
	status.Status = models.SyncRunning
	if err := s.Users.SaveSyncStatus(ctx, status); err != nil {
		return nil, err
	}

	imported, historyID, err := s.syncCycle(ctx, userID, status.LastHistoryID)
	now := time.Now().UTC()
	if err != nil {
		status.Status = models.SyncFailed
		status.LastError = err.Error()
		s.Log.Error("sync failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		status.Status = models.SyncIdle
		status.LastError = ""
		status.LastSyncedAt = &now
		status.ImportedCount += imported
		if historyID > status.LastHistoryID {
			status.LastHistoryID = historyID
		}
		s.Log.Info("sync finished",
			zap.String("user_id", userID),
			zap.Int("imported", imported),
			zap.Uint64("history_id", status.LastHistoryID))
	}
	// Record the outcome even if the caller's context is gone.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := s.Users.SaveSyncStatus(saveCtx, status); saveErr != nil {
		return nil, errors.Join(err, saveErr)
	}
	return status, err
}

func (s *EmailService) syncCycle(ctx context.Context, userID string, lastHistoryID uint64) (int, uint64, error) {
	var (
		messages  []*gmail.Message
		historyID uint64
		err       error
	)
	if lastHistoryID == 0 {
		s.Log.Info("no bookmark, running full sync", zap.String("user_id", userID))
		messages, historyID, err = s.Source.Recent(ctx)
	} else {
		messages, historyID, err = s.Source.Since(ctx, lastHistoryID)
		if err != nil && isHistoryExpiredError(err) {
			s.Log.Warn("history id expired, falling back to full sync", zap.Uint64("history_id", lastHistoryID))
			messages, historyID, err = s.Source.Recent(ctx)
		}
	}
	if err != nil {
		return 0, 0, err
	}

	imported := 0
	for _, msg := range messages {
		ok, err := s.importMessage(ctx, userID, msg)
		if err != nil {
			return imported, 0, err
		}
		if ok {
			imported++
		}
	}
	return imported, historyID, nil
}

// importMessage stores msg as a pending inbound message when its sender is recognised.
func (s *EmailService) importMessage(ctx context.Context, userID string, msg *gmail.Message) (bool, error) {
	externalID := "gmail:" + msg.Id
	seen, err := s.Conversations.HasExternalMessage(ctx, externalID)
	if err != nil || seen {
		return false, err
	}

	headers := parseHeaders(msg)
	subject := headers["subject"]
	log := s.Log.With(zap.String("message_id", msg.Id), zap.String("subject", truncate(subject, 40)))

	match, err := s.Matcher.MatchSender(ctx, userID, subject, headers["from"])
	if err != nil {
		return false, err
	}
	if match == nil {
		log.Debug("skipped: sender not tracked")
		return false, nil
	}

	contact := match.Contact
	if contact == nil {
		contact = contactFromSender(userID, match)
		if err := s.Contacts.Create(ctx, contact); err != nil {
			return false, err
		}
		log.Info("created contact from sender", zap.String("contact_id", contact.ID))
	}

	conv, err := s.Conversations.FindOrCreateByContact(ctx, userID, contact.ID, "email", subject)
	if err != nil {
		return false, err
	}

	sentAt := time.Now().UTC()
	if msg.InternalDate > 0 {
		sentAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	body := strings.TrimSpace(getEmailBody(msg))
	if body == "" {
		body = msg.Snippet
	}
	err = s.Conversations.AddMessage(ctx, &models.Message{
		UserID:         userID,
		ConversationID: conv.ID,
		Direction:      models.DirectionInbound,
		Body:           body,
		SentAt:         sentAt,
		Status:         models.MessagePending,
		ExternalID:     &externalID,
	})
	if err != nil {
		return false, err
	}
	log.Info("imported", zap.String("conversation_id", conv.ID))
	return true, nil
}

func contactFromSender(userID string, m *SenderMatch) *models.Contact {
	first, last := m.Name, ""
	if i := strings.LastIndex(m.Name, " "); i > 0 {
		first, last = m.Name[:i], m.Name[i+1:]
	}
	if first == "" {
		first = m.Address
	}
	c := &models.Contact{
		UserID:    userID,
		FirstName: first,
		LastName:  last,
		Email:     m.Address,
		Source:    models.ContactSourceGmail,
	}
	if m.Company != nil {
		c.CompanyID = &m.Company.ID
	}
	return c
}

// gmailSource reads the authorised account ("me") through the Gmail API.
type gmailSource struct {
	client *gmail.Service
	log    *zap.Logger
}

func NewGmailSource(client *gmail.Service, log *zap.Logger) MailSource {
	return &gmailSource{client: client, log: log.Named("gmail")}
}

func (g *gmailSource) Recent(ctx context.Context) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, g.log, 3, time.Second, func() error {
		var e error
		resp, e = g.client.Users.Messages.List("me").Q(fullSyncQuery).MaxResults(fullSyncMaxList).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, fmt.Errorf("gmail: list messages: %w", err)
	}

	// The profile's history id becomes the new bookmark.
	profile, err := g.client.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("gmail: profile: %w", err)
	}
	return g.expand(ctx, resp.Messages), profile.HistoryId, nil
}

// Since walks every history page after historyID. The bookmark returned is the
// one from the last page so nothing between pages is skipped on the next run.
func (g *gmailSource) Since(ctx context.Context, historyID uint64) ([]*gmail.Message, uint64, error) {
	var (
		headers   []*gmail.Message
		latest    uint64
		pageToken string
	)
	for {
		var resp *gmail.ListHistoryResponse
		err := retry(ctx, g.log, 3, time.Second, func() error {
			call := g.client.Users.History.List("me").
				StartHistoryId(historyID).
				HistoryTypes("messageAdded").
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var e error
			resp, e = call.Do()
			return e
		})
		if err != nil {
			return nil, 0, err
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message != nil {
					headers = append(headers, added.Message)
				}
			}
		}
		if resp.HistoryId > latest {
			latest = resp.HistoryId
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return g.expand(ctx, headers), latest, nil
}

// expand fetches full messages; ones that keep failing are skipped.
func (g *gmailSource) expand(ctx context.Context, headers []*gmail.Message) []*gmail.Message {
	var full []*gmail.Message
	for _, h := range headers {
		var msg *gmail.Message
		err := retry(ctx, g.log, 2, 500*time.Millisecond, func() error {
			var e error
			msg, e = g.client.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			return e
		})
		if err != nil {
			g.log.Warn("skipping message", zap.String("message_id", h.Id), zap.Error(err))
			continue
		}
		full = append(full, msg)
	}
	return full
}

// retry runs f with exponential backoff. A 404 is returned at once so callers
// can fall back to a full sync.
func retry(ctx context.Context, log *zap.Logger, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if isHistoryExpiredError(err) {
			return err
		}
		log.Warn("gmail api error, retrying", zap.Error(err), zap.Duration("backoff", sleep))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}

// parseHeaders indexes headers by lower-cased name.
func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[strings.ToLower(h.Name)] = h.Value
	}
	return res
}

// getEmailBody prefers the top-level body, then a text/plain part, then text/html.
func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		d, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(d)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const connectionsCSV = "\ufeffNotes:\n" +
	"\"When exporting your connection data, you may notice that some of the email addresses are missing.\"\n" +
	"\n" +
	"First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
	"Ada,Lovelace,https://www.linkedin.com/in/ada/,ADA@Example.com,Analytical Engines,CTO,01 Mar 2026\n" +
	"Grace,Hopper,https://www.linkedin.com/in/grace,,Navy,Rear Admiral,02 Mar 2026\n" +
	",,,,,,\n"

func TestParseLinkedInConnections(t *testing.T) {
	rows, err := ParseLinkedInConnections(strings.NewReader(connectionsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, LinkedInConnection{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		URL:         "https://www.linkedin.com/in/ada",
		Email:       "ada@example.com",
		Company:     "Analytical Engines",
		Position:    "CTO",
		ConnectedOn: "01 Mar 2026",
	}, rows[0])
	assert.Equal(t, "Grace", rows[1].FirstName)
	assert.Empty(t, rows[1].Email)
}

func TestParseLinkedInConnections_NoHeader(t *testing.T) {
	_, err := ParseLinkedInConnections(strings.NewReader("name,email\nada,ada@example.com\n"))
	requireStatus(t, err, http.StatusBadRequest)
}

func drain(t *testing.T, ch <-chan ImportEvent) []ImportEvent {
	t.Helper()
	var out []ImportEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("import did not finish")
		}
	}
}

func TestImportLinkedIn(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	r.contact(t, &models.Contact{UserID: "u1", FirstName: "Grace", LinkedInURL: "https://www.linkedin.com/in/grace"})
	svc := NewImportService(r.contacts, r.companies, zap.NewNop())

	ch, err := svc.ImportLinkedIn(ctx, "u1", strings.NewReader(connectionsCSV))
	require.NoError(t, err)
	events := drain(t, ch)
	require.Len(t, events, 4)

	for i, ev := range events[:3] {
		assert.NoError(t, ev.Err)
		assert.Equal(t, 3, ev.Progress.Total)
		assert.Equal(t, i+1, ev.Progress.Processed)
		assert.False(t, ev.Progress.Done)
	}
	final := events[3].Progress
	assert.True(t, final.Done)
	assert.Equal(t, ImportProgress{Total: 3, Processed: 3, Created: 1, Skipped: 2, Done: true}, final)

	ada, err := r.contacts.FindByEmail(ctx, "u1", "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, ada)
	assert.Equal(t, models.ContactSourceLinkedIn, ada.Source)
	assert.Equal(t, "CTO", ada.Title)
	assert.Equal(t, "Connected on LinkedIn 01 Mar 2026", ada.Notes)
	require.NotNil(t, ada.CompanyID)

	company, err := r.companies.FindByName(ctx, "u1", "analytical engines")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, company.ID, *ada.CompanyID)

	// A second run finds everyone already imported.
	ch, err = svc.ImportLinkedIn(ctx, "u1", strings.NewReader(connectionsCSV))
	require.NoError(t, err)
	events = drain(t, ch)
	last := events[len(events)-1].Progress
	assert.Equal(t, 0, last.Created)
	assert.Equal(t, 3, last.Skipped)

	page, err := r.contacts.List(ctx, "u1", repository.ContactFilter{}, repository.ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

func TestImportLinkedIn_StopsOnCancel(t *testing.T) {
	r := newRepos(t)
	svc := NewImportService(r.contacts, r.companies, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.ImportLinkedIn(ctx, "u1", strings.NewReader(connectionsCSV))
	require.NoError(t, err)
	cancel()

	// The channel must still close once the import notices the cancellation.
	events := drain(t, ch)
	assert.LessOrEqual(t, len(events), 4)
}

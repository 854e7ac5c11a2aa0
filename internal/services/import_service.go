package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
	"go.uber.org/zap"
)

// LinkedInConnection is one row of a LinkedIn Connections.csv export.
type LinkedInConnection struct {
	FirstName   string
	LastName    string
	URL         string
	Email       string
	Company     string
	Position    string
	ConnectedOn string
}

var linkedInColumns = map[string]func(*LinkedInConnection, string){
	"first name":    func(c *LinkedInConnection, v string) { c.FirstName = v },
	"last name":     func(c *LinkedInConnection, v string) { c.LastName = v },
	"url":           func(c *LinkedInConnection, v string) { c.URL = strings.TrimRight(v, "/") },
	"email address": func(c *LinkedInConnection, v string) { c.Email = strings.ToLower(v) },
	"company":       func(c *LinkedInConnection, v string) { c.Company = v },
	"position":      func(c *LinkedInConnection, v string) { c.Position = v },
	"connected on":  func(c *LinkedInConnection, v string) { c.ConnectedOn = v },
}

// ParseLinkedInConnections reads the export. The notes LinkedIn puts above the
// header row are skipped.
func ParseLinkedInConnections(r io.Reader) ([]LinkedInConnection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var header []func(*LinkedInConnection, string)
	var rows []LinkedInConnection
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.BadRequest("invalid CSV: " + err.Error()).Wrap(err)
		}
		if header == nil {
			if !isLinkedInHeader(record) {
				continue
			}
			header = make([]func(*LinkedInConnection, string), len(record))
			for i, name := range record {
				header[i] = linkedInColumns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))]
			}
			continue
		}
		var conn LinkedInConnection
		for i, v := range record {
			if i < len(header) && header[i] != nil {
				header[i](&conn, strings.TrimSpace(v))
			}
		}
		rows = append(rows, conn)
	}
	if header == nil {
		return nil, apperrors.BadRequest("file is not a LinkedIn connections export")
	}
	return rows, nil
}

func isLinkedInHeader(record []string) bool {
	for _, v := range record {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")), "first name") {
			return true
		}
	}
	return false
}

// ImportProgress is sent after every row and once more, with Done set, at the end.
type ImportProgress struct {
	Total     int  `json:"total"`
	Processed int  `json:"processed"`
	Created   int  `json:"created"`
	Skipped   int  `json:"skipped"`
	Done      bool `json:"done"`
}

// ImportEvent carries either progress or the error that stopped the import.
type ImportEvent struct {
	Progress ImportProgress
	Err      error
}

type ImportService struct {
	Contacts  *repository.ContactRepository
	Companies *repository.CompanyRepository
	Log       *zap.Logger
}

func NewImportService(contacts *repository.ContactRepository, companies *repository.CompanyRepository, log *zap.Logger) *ImportService {
	return &ImportService{Contacts: contacts, Companies: companies, Log: log}
}

// ImportLinkedIn parses the export up front and then creates contacts in the background,
// reporting on the returned channel. Cancelling ctx stops the import after the current row.
func (s *ImportService) ImportLinkedIn(ctx context.Context, userID string, r io.Reader) (<-chan ImportEvent, error) {
	rows, err := ParseLinkedInConnections(r)
	if err != nil {
		return nil, err
	}

	out := make(chan ImportEvent, 16)
	go func() {
		defer close(out)
		send := func(ev ImportEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		progress := ImportProgress{Total: len(rows)}
		for _, row := range rows {
			created, err := s.importConnection(ctx, userID, row)
			if err != nil {
				if ctx.Err() == nil {
					s.Log.Error("linkedin import failed", zap.String("user_id", userID), zap.Error(err))
					send(ImportEvent{Progress: progress, Err: err})
				}
				return
			}
			progress.Processed++
			if created {
				progress.Created++
			} else {
				progress.Skipped++
			}
			if !send(ImportEvent{Progress: progress}) {
				return
			}
		}
		progress.Done = true
		s.Log.Info("linkedin import finished",
			zap.String("user_id", userID),
			zap.Int("created", progress.Created),
			zap.Int("skipped", progress.Skipped))
		send(ImportEvent{Progress: progress})
	}()
	return out, nil
}

// importConnection creates a contact for row unless it is empty or already known.
func (s *ImportService) importConnection(ctx context.Context, userID string, row LinkedInConnection) (bool, error) {
	if row.FirstName == "" && row.LastName == "" && row.URL == "" {
		return false, nil
	}
	existing, err := s.Contacts.FindByLinkedInURL(ctx, userID, row.URL)
	if err != nil {
		return false, err
	}
	if existing == nil {
		existing, err = s.Contacts.FindByEmail(ctx, userID, row.Email)
		if err != nil {
			return false, err
		}
	}
	if existing != nil {
		return false, nil
	}

	contact := &models.Contact{
		UserID:      userID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Email:       row.Email,
		Title:       row.Position,
		LinkedInURL: row.URL,
		Source:      models.ContactSourceLinkedIn,
	}
	if row.ConnectedOn != "" {
		contact.Notes = "Connected on LinkedIn " + row.ConnectedOn
	}
	company, err := resolveCompany(ctx, s.Companies, userID, row.Company)
	if err != nil {
		return false, fmt.Errorf("company %q: %w", row.Company, err)
	}
	if company != nil {
		contact.CompanyID = &company.ID
	}
	if err := s.Contacts.Create(ctx, contact); err != nil {
		return false, err
	}
	return true, nil
}

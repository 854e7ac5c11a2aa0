package services

import (
	"context"
	"net/mail"
	"strings"
	"unicode"

	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
)

// minCompanyNameLen keeps names like "X" or "Go" from matching every email.
const minCompanyNameLen = 3

type MatcherService struct {
	Contacts  *repository.ContactRepository
	Companies *repository.CompanyRepository
}

func NewMatcherService(contacts *repository.ContactRepository, companies *repository.CompanyRepository) *MatcherService {
	return &MatcherService{Contacts: contacts, Companies: companies}
}

// SenderMatch is what an incoming email could be tied to. Contact is nil when only
// the company was recognised.
type SenderMatch struct {
	Name    string
	Address string
	Contact *models.Contact
	Company *models.Company
}

// MatchSender ties an email to a known contact by address, or else to a tracked company.
// It returns nil when neither is found.
func (s *MatcherService) MatchSender(ctx context.Context, userID, subject, rawSender string) (*SenderMatch, error) {
	name, addr := parseSender(rawSender)
	match := &SenderMatch{Name: name, Address: addr}

	if addr != "" {
		contact, err := s.Contacts.FindByEmail(ctx, userID, addr)
		if err != nil {
			return nil, err
		}
		if contact != nil {
			match.Contact = contact
			return match, nil
		}
	}

	companies, err := s.Companies.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	match.Company = matchCompany(companies, subject, name, addr)
	if match.Company == nil {
		return nil, nil
	}
	return match, nil
}

// parseSender splits "Stripe Recruiting <jobs@stripe.com>" into name and address.
func parseSender(raw string) (name, addr string) {
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.TrimSpace(parsed.Name), strings.ToLower(parsed.Address)
}

// matchCompany checks, in order, the subject line, the sender's display name and
// the sender's domain for a company name.
func matchCompany(companies []models.Company, subject, senderName, senderAddr string) *models.Company {
	subject = strings.ToLower(subject)
	senderName = strings.ToLower(senderName)
	domain := ""
	if at := strings.LastIndex(senderAddr, "@"); at >= 0 {
		domain = strings.ToLower(senderAddr[at+1:])
	}

	for i := range companies {
		name := strings.ToLower(strings.TrimSpace(companies[i].Name))
		if len(name) < minCompanyNameLen {
			continue
		}
		if strings.Contains(subject, name) {
			return &companies[i]
		}
		if senderName != "" && strings.Contains(senderName, name) {
			return &companies[i]
		}
		if domain != "" && (strings.Contains(domain, name) || strings.Contains(domain, compact(name))) {
			return &companies[i]
		}
	}
	return nil
}

// compact drops everything but letters and digits: "Acme Labs" -> "acmelabs".
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

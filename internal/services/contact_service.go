package services

import (
	"context"

	"github.com/justsurfingit/pipeline-crm/internal/dtos"
	"github.com/justsurfingit/pipeline-crm/internal/models"
	"github.com/justsurfingit/pipeline-crm/internal/repository"
)

type ContactService struct {
	Contacts  *repository.ContactRepository
	Companies *repository.CompanyRepository
}

func NewContactService(contacts *repository.ContactRepository, companies *repository.CompanyRepository) *ContactService {
	return &ContactService{Contacts: contacts, Companies: companies}
}

func (s *ContactService) Create(ctx context.Context, userID string, req *dtos.ContactCreateRequest) (*models.Contact, error) {
	contact := req.Model(userID)
	if contact.CompanyID == nil {
		company, err := resolveCompany(ctx, s.Companies, userID, req.CompanyName)
		if err != nil {
			return nil, err
		}
		if company != nil {
			contact.CompanyID = &company.ID
		}
	}
	if err := s.Contacts.Create(ctx, contact); err != nil {
		return nil, err
	}
	return s.Contacts.Get(ctx, userID, contact.ID)
}

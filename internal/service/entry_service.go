package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hunter/internal/domain"
	"hunter/internal/repository"
)

// EntryService coordinates business rules for job entries.
type EntryService struct {
	logger  *zap.Logger
	entries repository.EntryRepository
}

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrNoEntries     = errors.New("no entries found")
	ErrInvalidEntry  = errors.New("invalid entry")
	ErrInvalidStatus = errors.New("invalid status")
)

func NewEntryService(logger *zap.Logger, entries repository.EntryRepository) *EntryService {
	return &EntryService{
		logger:  logger,
		entries: entries,
	}
}

type CreateEntryInput struct {
	Title          string
	Description    string
	Employer       string
	Contact        string
	Status         string
	SubmissionDate time.Time
	Location       string
	Notes          string
	FoundWhere     string
	Screenshots    []string
}

func (s *EntryService) Create(ctx context.Context, userID string, input CreateEntryInput) (domain.Entry, error) {
	title := strings.TrimSpace(input.Title)
	employer := strings.TrimSpace(input.Employer)
	foundWhere := strings.TrimSpace(input.FoundWhere)
	if title == "" || employer == "" || foundWhere == "" {
		return domain.Entry{}, ErrInvalidEntry
	}
	status := domain.Status(strings.TrimSpace(input.Status))
	if !status.Valid() {
		return domain.Entry{}, ErrInvalidStatus
	}
	if input.SubmissionDate.IsZero() {
		return domain.Entry{}, ErrInvalidEntry
	}

	entry := domain.Entry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Employer:       employer,
		Contact:        strings.TrimSpace(input.Contact),
		Status:         status,
		SubmissionDate: input.SubmissionDate,
		Location:       strings.TrimSpace(input.Location),
		Notes:          strings.TrimSpace(input.Notes),
		FoundWhere:     foundWhere,
		Screenshots:    input.Screenshots,
		CreatedAt:      time.Now().UTC(),
	}
	if entry.Screenshots == nil {
		entry.Screenshots = []string{}
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

// List returns the user's entries, optionally filtered by status.
// An empty result is ErrNoEntries, matching the API's 404 contract.
func (s *EntryService) List(ctx context.Context, userID, statusFilter string) ([]domain.Entry, error) {
	var status domain.Status
	if strings.TrimSpace(statusFilter) != "" {
		status = domain.Status(strings.TrimSpace(statusFilter))
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	entries, err := s.entries.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	if strings.TrimSpace(entryID) == "" {
		return ErrEntryNotFound
	}
	deleted, err := s.entries.Delete(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	return nil
}

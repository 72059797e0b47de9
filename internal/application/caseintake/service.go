package caseintake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/infrastructure/sns"
	"github.com/just-ease/justease-api/internal/pkg/id"
)

// Service handles victim case filing and retrieval.
type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateCaseRequest) (*domain.Case, error)
	ListOwn(ctx context.Context, userID string) ([]domain.Case, error)
	Get(ctx context.Context, caseID, requesterID, requesterRole string) (*domain.Case, error)
	Explore(ctx context.Context) ([]domain.Case, error)
}

type caseStore interface {
	Put(ctx context.Context, c *domain.Case) error
	Get(ctx context.Context, caseID string) (*domain.Case, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Case, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Case, error)
}

type service struct {
	cases     caseStore
	smsSender sns.SMSSender
}

func NewService(cases caseStore, smsSender sns.SMSSender) Service {
	return &service{cases: cases, smsSender: smsSender}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateCaseRequest) (*domain.Case, error) {
	if len(req.Subcategories) == 0 {
		return nil, fmt.Errorf("at least one subcategory is required: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	c := &domain.Case{
		CaseID:        id.New(),
		UserID:        userID,
		VictimName:    req.VictimName,
		MobileNumber:  req.MobileNumber,
		Address:       req.Address,
		Category:      req.Category,
		Subcategories: req.Subcategories,
		Status:        domain.CaseStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.cases.Put(ctx, c); err != nil {
		return nil, err
	}

	// Filing acknowledgment is best-effort: a failed SMS never unwinds the
	// already-persisted case.
	if s.smsSender != nil {
		msg := fmt.Sprintf("JustEase: your case %s has been filed and is pending review.", c.CaseID)
		if err := s.smsSender.SendSMS(ctx, c.MobileNumber, msg); err != nil {
			slog.Warn("case-filed SMS delivery failed", "case_id", c.CaseID, "err", err)
		}
	}
	return c, nil
}

func (s *service) ListOwn(ctx context.Context, userID string) ([]domain.Case, error) {
	return s.cases.ListByUser(ctx, userID)
}

// Get returns a case to its owner, or to any lawyer.
func (s *service) Get(ctx context.Context, caseID, requesterID, requesterRole string) (*domain.Case, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.UserID != requesterID && requesterRole != domain.RoleLawyer {
		return nil, fmt.Errorf("case %s: %w", caseID, domain.ErrForbidden)
	}
	return c, nil
}

// Explore lists pending cases for lawyers to pick up.
func (s *service) Explore(ctx context.Context) ([]domain.Case, error) {
	return s.cases.ListByStatus(ctx, domain.CaseStatusPending)
}

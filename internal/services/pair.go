package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"good-morning-backend/internal/metrics"
	"good-morning-backend/internal/models"
	"good-morning-backend/internal/repository"
)

// PairService handles pairing two users through a one-time code exchange
type PairService struct {
	userRepo UserStore
}

// NewPairService creates a new pair service
func NewPairService(userRepo UserStore) *PairService {
	return &PairService{userRepo: userRepo}
}

// Pair links the requester with the owner of code and returns the new partner
func (s *PairService) Pair(ctx context.Context, requesterID, code string) (*models.User, error) {
	partner, err := s.pair(ctx, requesterID, code)
	metrics.PairingsTotal.WithLabelValues(metrics.Result(err)).Inc()
	return partner, err
}

func (s *PairService) pair(ctx context.Context, requesterID, code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidCode
	}

	// Get partner user by code
	partner, err := s.userRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get partner by code: %w", err)
	}

	// Check if user is trying to pair with themselves
	if partner.ID == requesterID {
		return nil, ErrSelfPairing
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get requesting user: %w", err)
	}

	if requester.HasPartner() || partner.HasPartner() {
		return nil, ErrAlreadyPaired
	}

	// The store re-checks both rows under lock, so a concurrent pairing that
	// slipped past the checks above still fails here.
	if err := s.userRepo.Pair(ctx, requester.ID, partner.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyPaired) {
			return nil, ErrAlreadyPaired
		}
		return nil, fmt.Errorf("failed to pair users: %w", err)
	}

	partner.PartnerID = &requester.ID
	return partner, nil
}

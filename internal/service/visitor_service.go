package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkovka/internal/domain"
	"parkovka/internal/models"
	"parkovka/internal/store"
)

// VisitorService registers guests for residents. The cap shares the
// booking caps' counting pattern: count the live set, then write, in one
// transaction.
type VisitorService struct {
	visitors domain.VisitorStore
	logger   *zerolog.Logger
}

func NewVisitorService(visitors domain.VisitorStore, logger *zerolog.Logger) *VisitorService {
	return &VisitorService{visitors: visitors, logger: logger}
}

func (s *VisitorService) Register(ctx context.Context, resident, name, plate string) (*models.Visitor, error) {
	if resident == "" || name == "" {
		return nil, fmt.Errorf("%w: resident and visitor name are required", store.ErrInvalidInput)
	}

	visitor := &models.Visitor{
		ID:       uuid.NewString(),
		Resident: resident,
		Name:     name,
		Plate:    plate,
	}
	if err := s.visitors.CreateVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("resident", resident).
		Str("visitor_id", visitor.ID).
		Msg("visitor registered")
	return visitor, nil
}

func (s *VisitorService) GetVisitors(ctx context.Context, resident string) ([]*models.Visitor, error) {
	return s.visitors.GetVisitors(ctx, resident)
}

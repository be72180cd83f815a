package service

import (
	"context"
	"fmt"
	"strings"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
)

type TransportModeService interface {
	Create(ctx context.Context, req dto.TransportModeRequest) (*dto.TransportModeResponse, error)
	List(ctx context.Context) ([]dto.TransportModeResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.TransportModeRequest) (*dto.TransportModeResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type transportModeService struct {
	modes repository.TransportModeRepository
	users repository.UserRepository
}

func NewTransportModeService(modes repository.TransportModeRepository, users repository.UserRepository) TransportModeService {
	return &transportModeService{modes: modes, users: users}
}

func (s *transportModeService) Create(ctx context.Context, req dto.TransportModeRequest) (*dto.TransportModeResponse, error) {
	if req.RoundTripPrice.IsNegative() {
		return nil, apierror.Validation("roundTripPrice", "o preço não pode ser negativo")
	}
	m := &model.TransportMode{Name: strings.TrimSpace(req.Name), RoundTripPrice: req.RoundTripPrice.Round(2)}
	if err := s.modes.Create(ctx, m); err != nil {
		if isDuplicate(err) {
			return nil, apierror.Conflict("já existe um meio de transporte com esse nome")
		}
		return nil, fmt.Errorf("create transport mode: %w", err)
	}
	resp := toTransportModeResponse(m)
	return &resp, nil
}

func (s *transportModeService) List(ctx context.Context) ([]dto.TransportModeResponse, error) {
	modes, err := s.modes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transport modes: %w", err)
	}
	out := make([]dto.TransportModeResponse, 0, len(modes))
	for i := range modes {
		out = append(out, toTransportModeResponse(&modes[i]))
	}
	return out, nil
}

func (s *transportModeService) Update(ctx context.Context, id uuid.UUID, req dto.TransportModeRequest) (*dto.TransportModeResponse, error) {
	if req.RoundTripPrice.IsNegative() {
		return nil, apierror.Validation("roundTripPrice", "o preço não pode ser negativo")
	}
	m, err := s.modes.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("meio de transporte não encontrado")
		}
		return nil, fmt.Errorf("find transport mode: %w", err)
	}
	m.Name = strings.TrimSpace(req.Name)
	m.RoundTripPrice = req.RoundTripPrice.Round(2)
	if err := s.modes.Update(ctx, m); err != nil {
		if isDuplicate(err) {
			return nil, apierror.Conflict("já existe um meio de transporte com esse nome")
		}
		return nil, fmt.Errorf("update transport mode: %w", err)
	}
	resp := toTransportModeResponse(m)
	return &resp, nil
}

// Delete refuses while any user is assigned to the mode.
func (s *transportModeService) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.users.CountByTransportMode(ctx, id)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return apierror.Conflict("meio de transporte em uso por funcionários")
	}
	if err := s.modes.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apierror.NotFound("meio de transporte não encontrado")
		}
		return fmt.Errorf("delete transport mode: %w", err)
	}
	return nil
}

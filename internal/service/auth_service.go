package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastel24h/internal/apierror"
	"pastel24h/internal/config"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause.
var ErrInvalidCredentials = apierror.Unauthorized("credenciais inválidas")

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo  repository.UserRepository
	modes repository.TransportModeRepository
	cfg   *config.Config
}

func NewAuthService(repo repository.UserRepository, modes repository.TransportModeRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, modes: modes, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, upgrade := verifyPassword(user.PasswordHash, req.Password)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if upgrade {
		if hash, err := HashPassword(req.Password); err == nil {
			if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("legacy password upgrade failed")
			} else {
				log.Info().Str("user_id", user.ID.String()).Msg("legacy password hash upgraded to bcrypt")
			}
		}
	}

	token, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.cfg.JWTExpirationHours * 3600,
		User:        toUserResponse(user),
	}, nil
}

func (s *authService) Me(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("usuário não encontrado")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if req.Role != model.RoleEmployee && req.Role != model.RoleAdmin {
		return nil, apierror.Validation("role", "papel inválido")
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Email:         req.Email,
		Name:          strings.TrimSpace(req.Name),
		PasswordHash:  hash,
		Role:          req.Role,
		TransportType: strings.TrimSpace(req.TransportType),
	}
	if req.TransportModeID != nil && *req.TransportModeID != "" {
		modeID, err := s.resolveMode(ctx, *req.TransportModeID)
		if err != nil {
			return nil, err
		}
		user.TransportModeID = &modeID
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, apierror.Conflict("e-mail já cadastrado")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return out, nil
}

func (s *authService) UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("usuário não encontrado")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		if *req.Role != model.RoleEmployee && *req.Role != model.RoleAdmin {
			return nil, apierror.Validation("role", "papel inválido")
		}
		user.Role = *req.Role
	}
	if req.TransportType != nil {
		user.TransportType = strings.TrimSpace(*req.TransportType)
	}
	if req.TransportModeID != nil {
		if *req.TransportModeID == "" {
			user.TransportModeID = nil
		} else {
			modeID, err := s.resolveMode(ctx, *req.TransportModeID)
			if err != nil {
				return nil, err
			}
			user.TransportModeID = &modeID
		}
		user.TransportMode = nil
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// DeleteUser fails with Conflict while shifts or ledger rows reference the user.
func (s *authService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apierror.NotFound("usuário não encontrado")
		}
		if isForeignKeyViolation(err) {
			return apierror.Conflict("usuário possui turnos registrados e não pode ser excluído")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *authService) resolveMode(ctx context.Context, raw string) (uuid.UUID, error) {
	modeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation("transportModeId", "transportModeId inválido")
	}
	if _, err := s.modes.FindByID(ctx, modeID); err != nil {
		if isNotFound(err) {
			return uuid.Nil, apierror.NotFound("meio de transporte não encontrado")
		}
		return uuid.Nil, fmt.Errorf("find transport mode: %w", err)
	}
	return modeID, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"name":    user.Name,
		"role":    user.Role,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

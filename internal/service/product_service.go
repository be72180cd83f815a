package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastel24h/internal/apierror"
	"pastel24h/internal/dto"
	"pastel24h/internal/infra"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	menuCacheKey = "menu:v1"
	menuCacheTTL = 4 * time.Hour
)

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Update(ctx context.Context, id, changedBy uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PriceHistory(ctx context.Context, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error)
	Menu(ctx context.Context) ([]dto.MenuItem, error)
}

type productService struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewProductService(repo repository.ProductRepository, rdb *redis.Client) ProductService {
	return &productService{repo: repo, rdb: rdb}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name", "o nome é obrigatório")
	}
	if !model.ValidCategory(req.Category) {
		return nil, apierror.Validation("category", "categoria inválida")
	}
	if req.Price.IsNegative() {
		return nil, apierror.Validation("price", "o preço não pode ser negativo")
	}
	if req.MinStock < 0 {
		return nil, apierror.Validation("minStock", "o estoque mínimo não pode ser negativo")
	}

	p := &model.Product{
		Name:     name,
		Category: req.Category,
		Price:    req.Price.Round(2),
		MinStock: req.MinStock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidateMenu(ctx)
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("produto não encontrado")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out, nil
}

// Update applies a partial change. A price change appends a history row in
// the same transaction; records keep their own price snapshots.
func (s *productService) Update(ctx context.Context, id, changedBy uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var p *model.Product
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByID(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return apierror.NotFound("produto não encontrado")
			}
			return fmt.Errorf("find product: %w", err)
		}
		p = found

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apierror.Validation("name", "o nome é obrigatório")
			}
			p.Name = name
		}
		if req.Category != nil {
			if !model.ValidCategory(*req.Category) {
				return apierror.Validation("category", "categoria inválida")
			}
			p.Category = *req.Category
		}
		if req.MinStock != nil {
			if *req.MinStock < 0 {
				return apierror.Validation("minStock", "o estoque mínimo não pode ser negativo")
			}
			p.MinStock = *req.MinStock
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return apierror.Validation("price", "o preço não pode ser negativo")
			}
			newPrice := req.Price.Round(2)
			if !newPrice.Equal(p.Price) {
				h := &model.ProductPriceHistory{
					ProductID:   p.ID,
					PriceBefore: p.Price,
					PriceAfter:  newPrice,
				}
				if changedBy != uuid.Nil {
					h.ChangedBy = &changedBy
				}
				if err := repo.CreatePriceHistory(ctx, h); err != nil {
					return fmt.Errorf("create price history: %w", err)
				}
				p.Price = newPrice
			}
		}
		if err := repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateMenu(ctx)
	resp := toProductResponse(p)
	return &resp, nil
}

// Delete refuses to remove a product any shift record points at.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountRecordRefs(ctx, id)
	if err != nil {
		return fmt.Errorf("count record refs: %w", err)
	}
	if refs > 0 {
		return apierror.Conflict("produto possui registros de turno e não pode ser excluído")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return apierror.NotFound("produto não encontrado")
		}
		if isForeignKeyViolation(err) {
			return apierror.Conflict("produto possui registros de turno e não pode ser excluído")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateMenu(ctx)
	return nil
}

func (s *productService) PriceHistory(ctx context.Context, id uuid.UUID, page, limit int) (*dto.PriceHistoryListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("produto não encontrado")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	page, limit = pageBounds(page, limit, 50, 200)
	rows, total, err := s.repo.ListPriceHistory(ctx, id, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	out := &dto.PriceHistoryListResponse{Data: make([]dto.PriceHistoryItem, 0, len(rows)), Total: total, Page: page, Limit: limit}
	for _, h := range rows {
		out.Data = append(out.Data, dto.PriceHistoryItem{
			ID:          h.ID.String(),
			ProductID:   h.ProductID.String(),
			PriceBefore: h.PriceBefore,
			PriceAfter:  h.PriceAfter,
			ChangedBy:   uuidPtrString(h.ChangedBy),
			CreatedAt:   formatTime(h.CreatedAt),
		})
	}
	return out, nil
}

// Menu serves the public price list, cached in Redis until the next catalog write.
func (s *productService) Menu(ctx context.Context) ([]dto.MenuItem, error) {
	var cached []dto.MenuItem
	if infra.CacheGet(ctx, s.rdb, menuCacheKey, &cached) {
		return cached, nil
	}

	products, err := s.repo.List(ctx, dto.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]dto.MenuItem, 0, len(products))
	for _, p := range products {
		items = append(items, dto.MenuItem{Name: p.Name, Category: p.Category, Price: p.Price})
	}

	infra.CacheSet(ctx, s.rdb, menuCacheKey, items, menuCacheTTL)
	return items, nil
}

func (s *productService) invalidateMenu(ctx context.Context) {
	infra.CacheInvalidate(ctx, s.rdb, menuCacheKey)
}

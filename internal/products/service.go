package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/pkg/access"
	"github.com/velamart/velamart-backend/pkg/db"
	"github.com/velamart/velamart-backend/pkg/db/models"
	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/outbox"
	"github.com/velamart/velamart-backend/pkg/outbox/payloads"
	"github.com/velamart/velamart-backend/pkg/pagination"
)

// Service exposes catalog management operations.
type Service interface {
	Create(ctx context.Context, actor access.Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor access.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, actor access.Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

type vendorReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
}

type service struct {
	repo      *Repository
	vendors   vendorReader
	dbClient  *db.Client
	outboxSvc *outbox.Service
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, vendors vendorReader, dbClient *db.Client, outboxSvc *outbox.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:      repo,
		vendors:   vendors,
		dbClient:  dbClient,
		outboxSvc: outboxSvc,
	}, nil
}

func (s *service) Create(ctx context.Context, actor access.Actor, input CreateProductInput) (*ProductDTO, error) {
	vendor, err := s.vendorForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	isAvailable := true
	if input.IsAvailable != nil {
		isAvailable = *input.IsAvailable
	}

	product, err := s.repo.Create(ctx, &models.Product{
		VendorID:    vendor.ID,
		Name:        strings.TrimSpace(input.Name),
		Slug:        newSlug(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		IsAvailable: isAvailable,
		IsActive:    true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, actor access.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	owner, err := s.vendors.FindByID(ctx, product.VendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product vendor")
	}
	if err := access.CanMutateProduct(actor, owner.UserID); err != nil {
		return nil, err
	}

	priceChanged := false
	availabilityChanged := false

	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		priceChanged = !product.Price.Equal(*input.Price)
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsAvailable != nil {
		availabilityChanged = product.IsAvailable != *input.IsAvailable
		product.IsAvailable = *input.IsAvailable
	}

	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Save(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save product")
		}
		if !priceChanged && !availabilityChanged {
			return nil
		}
		return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeProductUpdated,
			AggregateType: enums.OutboxAggregateTypeProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			Data: payloads.ProductUpdatedEvent{
				ProductID:    product.ID,
				VendorID:     product.VendorID,
				VendorUserID: owner.UserID,
				Name:         product.Name,
				Price:        product.Price,
				IsAvailable:  product.IsAvailable,
			},
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, actor access.Actor, productID uuid.UUID) error {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}
	owner, err := s.vendors.FindByID(ctx, product.VendorID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product vendor")
	}
	if err := access.CanMutateProduct(actor, owner.UserID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

// GetBySlug resolves a listing by its catalog slug. Slugs are assigned at
// creation and never regenerated on rename.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, err := s.repo.List(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ProductListResult{Items: []ProductDTO{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &ProductListResult{Items: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			break
		}
		result.Items = append(result.Items, *FromModel(&rows[i]))
	}
	if len(rows) > limit {
		last := result.Items[len(result.Items)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

func (s *service) vendorForActor(ctx context.Context, actor access.Actor) (*models.Vendor, error) {
	if actor.Role != enums.UserRoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor role required")
	}
	vendor, err := s.vendors.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no vendor profile for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor profile")
	}
	return vendor, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() || price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if price.Exponent() < -2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price supports at most two decimal places")
	}
	return nil
}

package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewUser carries a registration. PasswordHash is produced by the caller.
type NewUser struct {
	Email        string `validate:"required,email,max=255"`
	Username     string `validate:"required,min=3,max=30"`
	Role         Role   `validate:"omitempty,oneof=buyer seller"`
	PasswordHash string `validate:"required"`
}

// UserPatch holds the fields of a partial user update; nil means unchanged.
type UserPatch struct {
	Email        *string `validate:"omitempty,email,max=255"`
	Username     *string `validate:"omitempty,min=3,max=30"`
	Role         *Role   `validate:"omitempty,oneof=buyer seller"`
	IsActive     *bool
	PasswordHash *string
}

type NewProduct struct {
	Name        string `validate:"required,max=255"`
	Description string `validate:"max=2000"`
	Price       decimal.Decimal
	Stock       int `validate:"gte=0,lte=2147483647"`
}

// ProductPatch never touches stock; use the inventory restock path.
type ProductPatch struct {
	Name        *string `validate:"omitempty,min=1,max=255"`
	Description *string `validate:"omitempty,max=2000"`
	Price       *decimal.Decimal
}

// Catalog is the plain CRUD surface for users and products.
type Catalog struct {
	Users    UserRepository
	Products ProductRepository
	Logger   *zap.Logger

	validate *validator.Validate
}

func NewCatalog(users UserRepository, products ProductRepository, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		Users:    users,
		Products: products,
		Logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *Catalog) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
			})
			return InvalidInput(strings.Join(msgs, "; "))
		}
		return InvalidInput(err.Error())
	}
	return nil
}

// ValidatePrice accepts amounts in [0, MaxPrice] with at most two decimals.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return InvalidInput("price must not be negative")
	}
	if p.GreaterThan(MaxPrice) {
		return InvalidInput("price must not exceed " + MaxPrice.StringFixed(2))
	}
	if !p.Equal(p.Round(2)) {
		return InvalidInput("price must have at most two decimal places")
	}
	return nil
}

func (c *Catalog) CreateUser(ctx context.Context, in NewUser) (User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := c.check(in); err != nil {
		return User{}, err
	}

	u, err := c.Users.CreateUser(ctx, User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		Role:         lo.Ternary(in.Role == "", RoleBuyer, in.Role),
		IsActive:     true,
		PasswordHash: in.PasswordHash,
	})
	if err != nil {
		return User{}, err
	}
	c.Logger.Info("user created", zap.String("user_id", u.ID))
	return u, nil
}

func (c *Catalog) GetUser(ctx context.Context, id string) (User, error) {
	return c.Users.GetUser(ctx, id)
}

func (c *Catalog) ListUsers(ctx context.Context) ([]User, error) {
	return c.Users.ListUsers(ctx)
}

func (c *Catalog) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	if patch.Email != nil {
		patch.Email = lo.ToPtr(strings.TrimSpace(strings.ToLower(*patch.Email)))
	}
	if err := c.check(patch); err != nil {
		return User{}, err
	}

	u, err := c.Users.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Email = lo.FromPtrOr(patch.Email, u.Email)
	u.Username = lo.FromPtrOr(patch.Username, u.Username)
	u.Role = lo.FromPtrOr(patch.Role, u.Role)
	u.IsActive = lo.FromPtrOr(patch.IsActive, u.IsActive)
	u.PasswordHash = lo.FromPtrOr(patch.PasswordHash, u.PasswordHash)

	return c.Users.UpdateUser(ctx, u)
}

func (c *Catalog) DeleteUser(ctx context.Context, id string) error {
	if err := c.Users.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.Logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (c *Catalog) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := c.check(in); err != nil {
		return Product{}, err
	}
	if err := ValidatePrice(in.Price); err != nil {
		return Product{}, err
	}

	p, err := c.Products.CreateProduct(ctx, Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	})
	if err != nil {
		return Product{}, err
	}
	c.Logger.Info("product created", zap.String("product_id", p.ID), zap.Int("stock", p.Stock))
	return p, nil
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (Product, error) {
	return c.Products.GetProduct(ctx, id)
}

func (c *Catalog) ListProducts(ctx context.Context) ([]Product, error) {
	return c.Products.ListProducts(ctx)
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if patch.Name != nil {
		patch.Name = lo.ToPtr(strings.TrimSpace(*patch.Name))
	}
	if err := c.check(patch); err != nil {
		return Product{}, err
	}
	if patch.Price != nil {
		if err := ValidatePrice(*patch.Price); err != nil {
			return Product{}, err
		}
	}

	p, err := c.Products.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.Name = lo.FromPtrOr(patch.Name, p.Name)
	p.Description = lo.FromPtrOr(patch.Description, p.Description)
	p.Price = lo.FromPtrOr(patch.Price, p.Price)

	return c.Products.UpdateProduct(ctx, p)
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	if err := c.Products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	c.Logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

package ports

import (
	"context"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

type CommercePlatform interface {
	CreateOrder(ctx context.Context, order *entity.CommerceOrder) (*entity.PlacedOrder, error)
	ListProductTypes(ctx context.Context) ([]string, error)
}

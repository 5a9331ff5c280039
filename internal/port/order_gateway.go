package port

import (
	"context"

	"github.com/Cmetankaaa/shop-next/internal/core/domain"
)

type OrderGateway interface {
	// SubmitOrder posts the order; any non-2xx status or transport failure is an error
	SubmitOrder(ctx context.Context, order domain.OrderPayload) error
}

package service

import (
	"github.com/bitfantasy/toolroom/internal/config"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services groups the toolroom services.
type Services struct {
	Stock         *StockService
	Catalog       *CatalogService
	Ledger        *LedgerService
	Checkout      *CheckoutService
	Reference     *ReferenceService
	Invoice       *InvoiceService
	Order         *OrderService
	Replenishment *ReplenishmentService
}

// NewServices wires every service. rdb, mailer and the MinIO endpoint are
// optional.
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, mailer Mailer, cfg *config.Config, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}

	var files FileStore
	if cfg.MinIO.Endpoint != "" {
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			log.Warn("MinIO unavailable, invoice files disabled", zap.Error(err))
		} else {
			files = NewMinIOStore(client, cfg.MinIO.Bucket)
		}
	}

	stock := NewStockService(repos, NewStockCache(rdb, cfg.Redis.StockTTL, log))

	return &Services{
		Stock:         stock,
		Catalog:       NewCatalogService(repos, db, stock, log),
		Ledger:        NewLedgerService(repos, db, stock, log),
		Checkout:      NewCheckoutService(repos, db, stock, log),
		Reference:     NewReferenceService(repos, log),
		Invoice:       NewInvoiceService(repos, files, log),
		Order:         NewOrderService(repos, db, stock, mailer, cfg.Mail.From, log),
		Replenishment: NewReplenishmentService(repos, db, stock, log),
	}
}

package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"github.com/bitfantasy/toolroom/internal/tools/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// FileStore keeps invoice scans as opaque blobs.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// MinIOStore is a FileStore backed by one MinIO bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (m *MinIOStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *MinIOStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
}

// InvoiceObjectKey is the storage key of an invoice scan.
func InvoiceObjectKey(invoiceID, fileName string, now time.Time) string {
	return fmt.Sprintf("invoices/%s/%s%s", now.Format("2006/01/02"), invoiceID, strings.ToLower(filepath.Ext(fileName)))
}

// InvoiceService manages purchase invoices and their scans.
type InvoiceService struct {
	repos *repository.Repositories
	files FileStore
	log   *zap.Logger
}

// NewInvoiceService builds the service. files may be nil when no object
// storage is configured; uploads and downloads then fail.
func NewInvoiceService(repos *repository.Repositories, files FileStore, log *zap.Logger) *InvoiceService {
	return &InvoiceService{repos: repos, files: files, log: log}
}

type CreateInvoiceRequest struct {
	Number     string    `json:"number" binding:"required"`
	IssuedOn   time.Time `json:"issued_on" binding:"required"`
	SupplierID string    `json:"supplier_id" binding:"required"`
	Settled    bool      `json:"settled"`
}

func (s *InvoiceService) ListInvoices(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseInvoice, int64, error) {
	return s.repos.Invoice.FindAll(ctx, page, pageSize, filters)
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*entity.PurchaseInvoice, error) {
	inv, err := s.repos.Invoice.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, "invoice", id)
	}
	return inv, nil
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*entity.PurchaseInvoice, error) {
	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, validationf("invoice number is required")
	}
	if _, err := s.repos.Supplier.FindByID(ctx, req.SupplierID); err != nil {
		return nil, missing(err, "supplier", req.SupplierID)
	}
	inv := &entity.PurchaseInvoice{
		ID:         entity.NewID(),
		Number:     number,
		IssuedOn:   req.IssuedOn,
		SupplierID: req.SupplierID,
		Settled:    req.Settled,
	}
	if err := s.repos.Invoice.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return s.GetInvoice(ctx, inv.ID)
}

// SetInvoiceSettled marks an invoice paid or unpaid.
func (s *InvoiceService) SetInvoiceSettled(ctx context.Context, id string, settled bool) (*entity.PurchaseInvoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Settled = settled
	if err := s.repos.Invoice.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

// UploadInvoiceFile stores the scan and points the invoice at it. A previous
// scan stays in storage but is no longer referenced.
func (s *InvoiceService) UploadInvoiceFile(ctx context.Context, id string, r io.Reader, size int64, fileName, contentType string) (*entity.PurchaseInvoice, error) {
	if s.files == nil {
		return nil, validationf("file storage not configured")
	}
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	key := InvoiceObjectKey(inv.ID, fileName, time.Now())
	if err := s.files.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("upload invoice file: %w", err)
	}

	inv.FileKey = key
	inv.FileName = filepath.Base(fileName)
	if err := s.repos.Invoice.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	s.log.Info("invoice file uploaded",
		zap.String("invoice_id", inv.ID),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return inv, nil
}

// DownloadInvoiceFile opens the stored scan. The caller closes the reader.
func (s *InvoiceService) DownloadInvoiceFile(ctx context.Context, id string) (io.ReadCloser, *entity.PurchaseInvoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if inv.FileKey == "" {
		return nil, inv, fmt.Errorf("%w: invoice %s has no file", ErrNotFound, id)
	}
	if s.files == nil {
		return nil, inv, validationf("file storage not configured")
	}
	rc, err := s.files.Get(ctx, inv.FileKey)
	if err != nil {
		return nil, inv, fmt.Errorf("get invoice file: %w", err)
	}
	return rc, inv, nil
}

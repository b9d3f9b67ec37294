// Package services composes the record store, the blob store and the
// optional OCR broker into the operations the application boundary exposes.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"

	"golang.org/x/sync/errgroup"
)

const projectsCacheKey = "projects"

// RecordStore is the relational side of the persistence core.
type RecordStore interface {
	Ready() error
	ListProjects(ctx context.Context) ([]core.Project, error)
	GetProject(ctx context.Context, id int64) (core.Project, error)
	CreateProject(ctx context.Context, name string) (core.Project, error)
	DeleteProject(ctx context.Context, id int64) ([]string, error)
	ListExpenses(ctx context.Context, projectID int64) ([]core.Expense, error)
	CountExpenses(ctx context.Context, projectID int64) (int, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error)
	UpdateExpenseDetails(ctx context.Context, id int64, details core.ExpenseDetails) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (string, error)
	Close() error
}

// BlobStore holds receipt images.
type BlobStore interface {
	Store(ctx context.Context, encoded string) (string, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Remove(ctx context.Context, ref string) error
}

// OCRPublisher announces freshly stored receipts to the OCR collaborator.
type OCRPublisher interface {
	PublishOCRRequest(ctx context.Context, expenseID, projectID int64, receiptPath string) error
	Close() error
}

// ExpenseService orchestrates expense operations across the stores and AMQP.
type ExpenseService struct {
	records   RecordStore
	blobs     BlobStore
	publisher OCRPublisher
	exporter  sheets.ExpenseExporter
	projects  cache.Cache[[]core.Project]
	logger    *log.Logger
}

type Option func(*ExpenseService)

// WithPublisher enables OCR requests after each created expense.
func WithPublisher(p OCRPublisher) Option {
	return func(s *ExpenseService) {
		s.publisher = p
	}
}

// WithExporter enables ExportProject.
func WithExporter(e sheets.ExpenseExporter) Option {
	return func(s *ExpenseService) {
		s.exporter = e
	}
}

// WithProjectCache serves ListProjects from c until a project mutation.
func WithProjectCache(c cache.Cache[[]core.Project]) Option {
	return func(s *ExpenseService) {
		s.projects = c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *ExpenseService) {
		s.logger = l
	}
}

func NewExpenseService(records RecordStore, blobs BlobStore, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		records: records,
		blobs:   blobs,
		logger:  log.Default(log.ComponentExpense),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProjects returns every project sorted by name.
func (s *ExpenseService) ListProjects(ctx context.Context) ([]core.Project, error) {
	if err := s.records.Ready(); err != nil {
		s.invalidateProjects()
		return nil, err
	}
	if s.projects != nil {
		if cached, ok := s.projects.Get(projectsCacheKey); ok {
			return slices.Clone(cached), nil
		}
	}

	projects, err := s.records.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if s.projects != nil {
		s.projects.Set(projectsCacheKey, slices.Clone(projects))
	}
	return projects, nil
}

// CreateProject creates a project with a unique name.
func (s *ExpenseService) CreateProject(ctx context.Context, name string) (core.Project, error) {
	p, err := s.records.CreateProject(ctx, name)
	if err != nil {
		return core.Project{}, err
	}
	s.invalidateProjects()
	return p, nil
}

// DeleteProject deletes the project and its expenses, then removes the
// receipts they referenced. Blob cleanup failures are logged, not returned:
// the rows are already gone.
func (s *ExpenseService) DeleteProject(ctx context.Context, id int64) error {
	receipts, err := s.records.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	s.invalidateProjects()
	s.removeBlobs(ctx, receipts)
	return nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, projectID int64) ([]core.Expense, error) {
	return s.records.ListExpenses(ctx, projectID)
}

func (s *ExpenseService) CountExpenses(ctx context.Context, projectID int64) (int, error) {
	return s.records.CountExpenses(ctx, projectID)
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.records.GetExpense(ctx, id)
}

// StoreReceiptImage persists one encoded image and returns its reference.
func (s *ExpenseService) StoreReceiptImage(ctx context.Context, encoded string) (string, error) {
	return s.blobs.Store(ctx, encoded)
}

// StoreReceiptImages stores a batch of images in parallel. Either every
// image is stored, or none is: on the first failure the images already
// written by the batch are removed.
func (s *ExpenseService) StoreReceiptImages(ctx context.Context, encoded []string) ([]string, error) {
	refs := make([]string, len(encoded))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range encoded {
		g.Go(func() error {
			ref, err := s.blobs.Store(gctx, e)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		written := slices.DeleteFunc(slices.Clone(refs), func(r string) bool { return r == "" })
		s.removeBlobs(context.WithoutCancel(ctx), written)
		return nil, err
	}
	return refs, nil
}

// CreateExpense records an expense for a receipt that is already on disk,
// then asks the OCR collaborator to extract its details. A publish failure
// does not fail the call.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	if err := s.records.Ready(); err != nil {
		return core.Expense{}, err
	}
	in, err := in.Validate()
	if err != nil {
		return core.Expense{}, err
	}

	ok, err := s.blobs.Exists(ctx, in.ReceiptImagePath)
	if err != nil {
		return core.Expense{}, err
	}
	if !ok {
		return core.Expense{}, core.Errorf(core.CodeValidation,
			"receipt %q has not been stored", in.ReceiptImagePath)
	}

	e, err := s.records.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}

	if err := s.publishOCRRequest(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish OCR request",
			log.FieldExpenseID, e.ID, log.FieldError, err)
	}
	return e, nil
}

// UpdateExpenseDetails rewrites the OCR/manual fields of an expense.
func (s *ExpenseService) UpdateExpenseDetails(ctx context.Context, id int64, details core.ExpenseDetails) (core.Expense, error) {
	return s.records.UpdateExpenseDetails(ctx, id, details)
}

// ApplyOCRResult stores the details an OCR collaborator extracted.
func (s *ExpenseService) ApplyOCRResult(ctx context.Context, msg *amqp.OCRResultMessage) error {
	details, err := msg.Details()
	if err != nil {
		return fmt.Errorf("expense %d: %w", msg.ExpenseID, err)
	}
	if _, err := s.records.UpdateExpenseDetails(ctx, msg.ExpenseID, details); err != nil {
		return err
	}
	return nil
}

// DeleteExpense removes the expense, then its receipt.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	receipt, err := s.records.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	s.removeBlobs(ctx, []string{receipt})
	return nil
}

// ExportProject appends every expense of a project to the configured
// spreadsheet and returns the written range.
func (s *ExpenseService) ExportProject(ctx context.Context, projectID int64) (string, error) {
	if s.exporter == nil {
		return "", core.NewError(core.CodeValidation, "spreadsheet export is not configured")
	}
	project, err := s.records.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	expenses, err := s.records.ListExpenses(ctx, projectID)
	if err != nil {
		return "", err
	}
	ref, err := s.exporter.Export(ctx, project, expenses)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to export expenses", log.FieldProjectID, projectID, log.FieldError, err)
		return "", fmt.Errorf("export project %d: %w", projectID, err)
	}
	return ref, nil
}

func (s *ExpenseService) publishOCRRequest(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping OCR request")
		return nil
	}
	return s.publisher.PublishOCRRequest(ctx, e.ID, e.ProjectID, e.ReceiptImagePath)
}

func (s *ExpenseService) removeBlobs(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.blobs.Remove(ctx, ref); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove receipt",
				log.FieldReceipt, ref, log.FieldError, err)
		}
	}
}

func (s *ExpenseService) invalidateProjects() {
	if s.projects != nil {
		s.projects.Purge()
	}
}

// Close closes the record store and the AMQP connection.
func (s *ExpenseService) Close() error {
	s.invalidateProjects()
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if s.records != nil {
		if err := s.records.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}

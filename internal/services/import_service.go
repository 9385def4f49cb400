package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/question-import-service/internal/bundle"
	"github.com/SAP-F-2025/question-import-service/internal/events"
	"github.com/SAP-F-2025/question-import-service/internal/importer"
	"github.com/SAP-F-2025/question-import-service/internal/models"
	"github.com/SAP-F-2025/question-import-service/internal/repositories"
	"github.com/SAP-F-2025/question-import-service/internal/sheet"
	"github.com/SAP-F-2025/question-import-service/internal/validator"
)

// ImportService turns uploaded question bundles into questions
type ImportService interface {
	// ImportBundle imports an upload stream; filename selects zip or bare sheet.
	ImportBundle(ctx context.Context, r io.Reader, filename string, size int64, ownerID string) (*ImportResult, error)
	ImportFile(ctx context.Context, path string, ownerID string) (*ImportResult, error)

	// Job management
	GetImportJob(ctx context.Context, jobID, ownerID string) (*models.ImportJob, error)
	ListImportedQuestions(ctx context.Context, jobID, ownerID string, limit, offset int) ([]*models.QuestionRecord, int64, error)
	DeleteImport(ctx context.Context, jobID, ownerID string) error

	// OpenMedia streams a stored media file of an import's media scope.
	OpenMedia(ctx context.Context, scopeID, name, ownerID string) (io.ReadCloser, error)
}

// MediaStore is the media storage imports register into and serve from.
type MediaStore interface {
	importer.MediaStore
	Open(scopeID, name string) (io.ReadCloser, error)
	Owner(scopeID string) (string, error)
}

type ImportOptions struct {
	// WorkDir holds the temporary directories bundles are unpacked into.
	WorkDir string
	Limits  bundle.Limits
}

type importService struct {
	jobs       *JobStore
	media      MediaStore
	repo       repositories.QuestionRepository
	publisher  events.EventPublisher
	validator  *validator.Validator
	dispatcher *importer.Dispatcher
	logger     *slog.Logger
	log        *ServiceLogger
	opts       ImportOptions
}

// NewImportService wires the pipeline. repo and publisher are optional: a nil
// repo disables persistence and a nil publisher disables events.
func NewImportService(
	jobs *JobStore,
	media MediaStore,
	repo repositories.QuestionRepository,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	opts ImportOptions,
) ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importService{
		jobs:       jobs,
		media:      media,
		repo:       repo,
		publisher:  publisher,
		validator:  v,
		dispatcher: importer.NewDispatcher(logger),
		logger:     logger,
		log:        NewServiceLogger(logger, LogConfig{Service: "question-import", Component: "import"}),
		opts:       opts,
	}
}

// ===== IMPORT OPERATIONS =====

type ImportResult struct {
	JobID         string                         `json:"job_id"`
	TotalRows     int                            `json:"total_rows"`
	ProcessedRows int                            `json:"processed_rows"`
	SuccessCount  int                            `json:"success_count"`
	ErrorCount    int                            `json:"error_count"`
	Errors        []models.ImportValidationError `json:"errors"`
	Questions     []*models.Question             `json:"questions,omitempty"`
	MediaScopeID  string                         `json:"media_scope_id,omitempty"`
	Status        models.ImportJobStatus         `json:"status"`
}

func (s *importService) ImportBundle(ctx context.Context, r io.Reader, filename string, size int64, ownerID string) (*ImportResult, error) {
	job := newImportJob(ownerID, filepath.Base(filename), size)
	return s.run(ctx, job, func() (*bundle.Bundle, error) {
		return bundle.OpenReader(s.opts.WorkDir, r, filename, s.opts.Limits)
	})
}

func (s *importService) ImportFile(ctx context.Context, path string, ownerID string) (*ImportResult, error) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	job := newImportJob(ownerID, filepath.Base(path), size)
	return s.run(ctx, job, func() (*bundle.Bundle, error) {
		return bundle.Open(s.opts.WorkDir, path, s.opts.Limits)
	})
}

func newImportJob(ownerID, fileName string, size int64) *models.ImportJob {
	now := time.Now().UTC()
	return &models.ImportJob{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		FileName:  fileName,
		FileSize:  size,
		Status:    models.ImportProcessing,
		StartedAt: &now,
		CreatedAt: now,
	}
}

func (s *importService) run(ctx context.Context, job *models.ImportJob, open func() (*bundle.Bundle, error)) (result *ImportResult, err error) {
	op := s.log.WithOperation(ctx, "import_bundle", job.OwnerID)
	defer func() { op.LogResult(job.ID, "import_job", err) }()

	s.logger.Info("Starting bundle import", "job_id", job.ID, "file_name", job.FileName, "owner_id", job.OwnerID)
	s.saveJob(ctx, job)

	b, err := open()
	if err != nil {
		return nil, s.fail(ctx, job, err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			s.logger.Warn("Failed to remove bundle dir", "job_id", job.ID, "dir", b.Dir, "error", cerr)
		}
	}()

	grid, err := sheet.ReadFile(b.SheetPath)
	if err != nil {
		return nil, s.fail(ctx, job, sheetError(err))
	}
	rows := importer.RowsFromGrid(grid)

	scope := importer.NewMediaScope(s.media, b.Dir, job.OwnerID)
	dispatched := s.dispatcher.Dispatch(ctx, rows, importer.NewNormalizer(scope, s.logger))
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, job, err)
	}

	questions, errs := s.validateQuestions(dispatched)
	job.MediaScopeID = scope.ID()

	if s.repo != nil && len(questions) > 0 {
		if _, err := s.repo.CreateBatch(ctx, job.ID, job.OwnerID, job.MediaScopeID, questions); err != nil {
			return nil, s.fail(ctx, job, fmt.Errorf("%w: %w", ErrImportStoreFailed, err))
		}
	}

	completed := time.Now().UTC()
	job.Status = models.ImportCompleted
	job.TotalRows = dispatched.TotalRows
	job.ProcessedRows = dispatched.TotalRows
	job.SuccessCount = len(questions)
	job.SkippedCount = len(errs)
	job.Errors = errs
	job.CompletedAt = &completed
	s.saveJob(ctx, job)
	s.publish(ctx, events.NewQuestionsImported(job, questions))

	s.logger.Info("Bundle import completed",
		"job_id", job.ID,
		"total_rows", job.TotalRows,
		"success_count", job.SuccessCount,
		"skipped_count", job.SkippedCount)

	return &ImportResult{
		JobID:         job.ID,
		TotalRows:     job.TotalRows,
		ProcessedRows: job.ProcessedRows,
		SuccessCount:  job.SuccessCount,
		ErrorCount:    job.SkippedCount,
		Errors:        errs,
		Questions:     questions,
		MediaScopeID:  job.MediaScopeID,
		Status:        job.Status,
	}, nil
}

// validateQuestions drops built questions that fail validation, reporting
// them alongside the dispatcher's skipped rows.
func (s *importService) validateQuestions(res *importer.Result) ([]*models.Question, []models.ImportValidationError) {
	errs := append([]models.ImportValidationError(nil), res.Skipped...)
	if s.validator == nil {
		return res.Questions, errs
	}

	questions := make([]*models.Question, 0, len(res.Questions))
	for i, q := range res.Questions {
		err := s.validator.Validate(q)
		if err == nil {
			questions = append(questions, q)
			continue
		}
		row := 0
		if i < len(res.RowNumbers) {
			row = res.RowNumbers[i]
		}
		for _, ve := range validator.ToValidationErrors(err) {
			errs = append(errs, models.ImportValidationError{
				Row:     row,
				Column:  ve.Field,
				Message: ve.Message,
				Value:   fmt.Sprint(ve.Value),
				Code:    models.CodeValidationFailed,
			})
		}
	}
	return questions, errs
}

func (s *importService) fail(ctx context.Context, job *models.ImportJob, cause error) error {
	completed := time.Now().UTC()
	job.Status = models.ImportFailed
	job.FailureCause = cause.Error()
	job.CompletedAt = &completed

	// ctx may already be cancelled; the failure still has to be recorded.
	bg := context.WithoutCancel(ctx)
	s.saveJob(bg, job)
	s.publish(bg, events.NewImportFailed(job))

	return fmt.Errorf("import %s failed: %w", job.ID, cause)
}

func (s *importService) saveJob(ctx context.Context, job *models.ImportJob) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		s.logger.Warn("Failed to save import job", "job_id", job.ID, "status", job.Status, "error", err)
	}
}

func (s *importService) publish(ctx context.Context, event *events.ImportEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishImportEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish import event", "event_type", event.Type, "error", err)
	}
}

// ===== JOB MANAGEMENT =====

func (s *importService) GetImportJob(ctx context.Context, jobID, ownerID string) (*models.ImportJob, error) {
	if s.jobs == nil {
		return nil, ErrImportJobNotFound
	}
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && job.OwnerID != ownerID {
		return nil, ErrImportAccessDenied
	}
	return job, nil
}

func (s *importService) ListImportedQuestions(ctx context.Context, jobID, ownerID string, limit, offset int) ([]*models.QuestionRecord, int64, error) {
	if s.repo == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	if _, err := s.GetImportJob(ctx, jobID, ownerID); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, repositories.QuestionFilters{
		JobID:  jobID,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *importService) DeleteImport(ctx context.Context, jobID, ownerID string) (err error) {
	op := s.log.WithOperation(ctx, "delete_import", ownerID)
	defer func() { op.LogResult(jobID, "import_job", err) }()

	job, err := s.GetImportJob(ctx, jobID, ownerID)
	if err != nil {
		return err
	}
	if job.Status == models.ImportProcessing {
		return ErrImportAlreadyRunning
	}
	if s.repo != nil {
		if err := s.repo.DeleteByJob(ctx, jobID); err != nil {
			return err
		}
	}
	return s.jobs.Delete(ctx, jobID)
}

// ===== MEDIA =====

func (s *importService) OpenMedia(ctx context.Context, scopeID, name, ownerID string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, ErrMediaNotFound
	}

	owner, err := s.media.Owner(scopeID)
	if err != nil {
		return nil, mediaError(err)
	}
	if ownerID != "" && owner != ownerID {
		return nil, ErrMediaAccessDenied
	}

	rc, err := s.media.Open(scopeID, name)
	if err != nil {
		return nil, mediaError(err)
	}
	return rc, nil
}

package registration

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
)

type (
	Options struct {
		Catalog *Catalog
		// Repos maps an event name to its store.
		Repos map[string]Repository
		// WorkDir is the root of stored upload paths; uploads go to <UploadDir>/<event>.
		WorkDir   string
		UploadDir string
		Validate  *validator.Validate
		Logger    core.Logger
		Notifiers []Notifier
	}

	Service struct {
		catalog   *Catalog
		repos     map[string]Repository
		uploaders map[string]*Uploader
		validate  *validator.Validate
		logger    core.Logger
		notifiers []Notifier
		locks     keyedMutex
		nowFunc   func() time.Time
	}

	keyedMutex struct {
		mu    sync.Mutex
		locks map[string]*sync.Mutex
	}
)

func NewService(opts Options) *Service {
	svc := &Service{
		catalog:   opts.Catalog,
		repos:     opts.Repos,
		uploaders: make(map[string]*Uploader),
		validate:  opts.Validate,
		logger:    opts.Logger,
		notifiers: opts.Notifiers,
		nowFunc:   time.Now,
	}
	for _, schema := range opts.Catalog.All() {
		if schema.Upload != UploadNone {
			svc.uploaders[schema.Name] = NewUploader(opts.WorkDir, filepath.Join(opts.UploadDir, schema.Name))
		}
	}
	return svc
}

func (svc *Service) Events() []*EventSchema {
	return svc.catalog.All()
}

func (svc *Service) Schema(event string) (*EventSchema, error) {
	return svc.catalog.Get(event)
}

func (svc *Service) repo(schema *EventSchema) (Repository, error) {
	repo, ok := svc.repos[schema.Name]
	if !ok {
		return nil, fmt.Errorf("no store configured for event %q", schema.Name)
	}
	return repo, nil
}

// Register validates sub, checks its roll numbers against the event's store, persists the
// payment proof and appends the record. Check and append are serialized per event.
func (svc *Service) Register(ctx context.Context, event string, sub Submission) (Record, error) {
	schema, err := svc.catalog.Get(event)
	if err != nil {
		return Record{}, err
	}
	if !schema.Open {
		return Record{}, core.NewClosedError(schema.Name)
	}
	if err := sub.Validate(svc.validate, schema); err != nil {
		return Record{}, err
	}
	repo, err := svc.repo(schema)
	if err != nil {
		return Record{}, err
	}

	unlock := svc.locks.lock(schema.Name)
	defer unlock()

	if schema.CheckConflicts {
		conflicts, err := repo.FindConflicts(ctx, sub.Rolls(schema))
		if err != nil {
			return Record{}, errors.Wrap(err, "checking roll numbers")
		}
		if len(conflicts) > 0 {
			return Record{}, core.NewConflictError(conflicts)
		}
	}

	var upload Upload
	if uploader, ok := svc.uploaders[schema.Name]; ok {
		if upload, err = uploader.Persist(sub.PaymentProofBase64, sub.PaymentProofName, sub.PaymentProofType); err != nil {
			return Record{}, errors.Wrap(err, "persisting payment proof")
		}
	}

	rec := sub.Record(svc.nowFunc(), upload)
	if err := repo.Append(ctx, rec); err != nil {
		if upload.StoredPath.Valid {
			svc.logger.Warn(fmt.Sprintf("%s: payment proof %s left without a record", schema.Name, upload.StoredPath.String))
		}
		return Record{}, errors.Wrap(err, "appending submission")
	}

	for _, n := range svc.notifiers {
		n.SubmissionStored(schema, rec)
	}
	return rec, nil
}

// Submissions lists every stored record of event in receipt order.
func (svc *Service) Submissions(ctx context.Context, event string) ([]Record, error) {
	schema, err := svc.catalog.Get(event)
	if err != nil {
		return nil, err
	}
	repo, err := svc.repo(schema)
	if err != nil {
		return nil, err
	}
	recs, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	return recs, nil
}

func (km *keyedMutex) lock(key string) func() {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[string]*sync.Mutex)
	}
	l, ok := km.locks[key]
	if !ok {
		l = new(sync.Mutex)
		km.locks[key] = l
	}
	km.mu.Unlock()

	l.Lock()
	return l.Unlock
}

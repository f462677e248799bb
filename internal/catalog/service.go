package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rbhardware/shop-backend/pkg/db"
	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
)

// Input is the body of the create and update endpoints. Code maps to the
// category's own "id" field and is ignored for colors and materials.
type Input struct {
	Code *string `json:"id"`
	Name string  `json:"name"`
}

// Service manages one filter list.
type Service interface {
	Kind() Kind
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, in Input) (*Entry, error)
	Update(ctx context.Context, rawID string, in Input) (*Entry, error)
	Delete(ctx context.Context, rawID string) error
}

type entryRepository interface {
	List(ctx context.Context) ([]Entry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Create(ctx context.Context, entry *Entry, now time.Time) error
	Update(ctx context.Context, id uuid.UUID, name string, code *string, now time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	kind Kind
	repo entryRepository
	now  func() time.Time
}

// NewService builds the service for kind on top of repo.
func NewService(kind Kind, repo entryRepository) Service {
	return &service{kind: kind, repo: repo, now: time.Now}
}

func (s *service) Kind() Kind { return s.kind }

func (s *service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list "+s.kind.Plural)
	}
	if rows == nil {
		rows = []Entry{}
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, in Input) (*Entry, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}
	entry := &Entry{Name: name}
	if s.kind.HasCode {
		entry.Code = trimmed(in.Code)
	}
	if err := s.repo.Create(ctx, entry, s.now().UTC()); err != nil {
		return nil, s.mapWriteError(err, "create "+s.kind.Singular)
	}
	return entry, nil
}

func (s *service) Update(ctx context.Context, rawID string, in Input) (*Entry, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	name, err := requireName(in.Name)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.Update(ctx, id, name, trimmed(in.Code), s.now().UTC())
	if err != nil {
		return nil, s.mapWriteError(err, "update "+s.kind.Singular)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, s.kind.notFound())
	}
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, s.kind.notFound())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+s.kind.Singular)
	}
	return entry, nil
}

// Delete is idempotent: removing an absent entry still succeeds.
func (s *service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+s.kind.Singular)
	}
	return nil
}

func (s *service) parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid "+s.kind.Singular+" ID")
	}
	return id, nil
}

func (s *service) mapWriteError(err error, action string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.New(pkgerrors.CodeConflict, s.kind.duplicate())
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func requireName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Name is required")
	}
	return name, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

package locations

import (
	"context"
	"errors"
	"time"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
	"github.com/google/uuid"
)

// Service describes address management capabilities.
type Service interface {
	CreateAddress(ctx context.Context, input AddressInput) (*Address, error)
	UpdateAddress(ctx context.Context, input UpdateAddressInput) (*Address, error)
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	GetAddress(ctx context.Context, id uuid.UUID) (*Address, error)
	ListAddresses(ctx context.Context, opts ListOptions) (*ListResult, error)
	CountAddresses(ctx context.Context) (int, error)
	ValidateAddress(ctx context.Context, address *Address) error
	ParseAddress(ctx context.Context, text string) (*Address, error)
}

const uniqueViolationMessage = "The address already exists."

var (
	ErrAddressRepositoryRequired = errors.New("locations: repository required")
	ErrAddressInvalid            = errors.New("locations: address is invalid")
	ErrAddressExists             = errors.New("locations: the address already exists")
	ErrAddressNotFound           = errors.New("locations: address not found")
	ErrNormalizerUnavailable     = errors.New("locations: address normalizer not configured")
	ErrAddressUnparseable        = errors.New("locations: address text could not be parsed")
	ErrAddressTextRequired       = errors.New("locations: address text is required")
)

// IDDeriver produces address IDs at creation time.
type IDDeriver func(address *Address) uuid.UUID

// ServiceOption configures service behaviour.
type ServiceOption func(*service)

// WithIDDeriver overrides address ID derivation.
func WithIDDeriver(deriver IDDeriver) ServiceOption {
	return func(s *service) {
		if deriver != nil {
			s.id = deriver
		}
	}
}

// WithNow overrides the time source (primarily for tests).
func WithNow(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNormalizer enables ParseAddress.
func WithNormalizer(normalizer AddressNormalizer) ServiceOption {
	return func(s *service) {
		s.normalizer = normalizer
	}
}

// WithLogger sets the logger used for mutation events.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo       AddressRepository
	normalizer AddressNormalizer
	id         IDDeriver
	now        func() time.Time
	logger     interfaces.Logger
}

// NewService constructs an address service instance.
func NewService(repo AddressRepository, opts ...ServiceOption) Service {
	if repo == nil {
		panic(ErrAddressRepositoryRequired)
	}

	s := &service{
		repo:   repo,
		id:     IDForAddress,
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateAddress(ctx context.Context, input AddressInput) (*Address, error) {
	record := addressFromInput(input)
	if err := s.ValidateAddress(ctx, record); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record.ID = s.id(record)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	} else if _, err := s.repo.GetByID(ctx, record.ID); err == nil {
		// the derived ID belongs to a record whose components have since changed
		record.ID = uuid.New()
	} else if !isNotFound(err) {
		return nil, err
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	s.logger.Info("locations.address.created", "address_id", created.ID, "address", created.String())
	return cloneAddress(created), nil
}

func (s *service) UpdateAddress(ctx context.Context, input UpdateAddressInput) (*Address, error) {
	if input.ID == uuid.Nil {
		return nil, ErrAddressNotFound
	}
	record, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, translateRepoError(err, ErrAddressNotFound)
	}

	applyUpdate(record, input)
	if err := s.ValidateAddress(ctx, record); err != nil {
		return nil, err
	}
	record.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, record)
	if err != nil {
		return nil, translateRepoError(err, ErrAddressNotFound)
	}
	s.logger.Info("locations.address.updated", "address_id", updated.ID, "address", updated.String())
	return cloneAddress(updated), nil
}

func (s *service) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrAddressNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateRepoError(err, ErrAddressNotFound)
	}
	s.logger.Info("locations.address.deleted", "address_id", id)
	return nil
}

func (s *service) GetAddress(ctx context.Context, id uuid.UUID) (*Address, error) {
	if id == uuid.Nil {
		return nil, ErrAddressNotFound
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, ErrAddressNotFound)
	}
	return cloneAddress(record), nil
}

func (s *service) ListAddresses(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	records, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := cloneAddressSlice(records)
	if out == nil {
		out = []*Address{}
	}
	return &ListResult{Records: out, Total: total}, nil
}

func (s *service) CountAddresses(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ValidateAddress runs component validation and then the unique_address
// check. A stored record with identical components and a different ID is a
// violation; the record itself is not.
func (s *service) ValidateAddress(ctx context.Context, address *Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.GetByKey(ctx, address.Key())
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if existing != nil && existing.ID != address.ID {
		return ErrAddressExists
	}
	return nil
}

func (s *service) ParseAddress(ctx context.Context, text string) (*Address, error) {
	if s.normalizer == nil {
		return nil, ErrNormalizerUnavailable
	}
	address, err := s.normalizer.Normalize(ctx, text)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressUnparseable
	}
	return address, nil
}

func translateRepoError(err error, fallback error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fallback
	}
	return err
}

func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package storage

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	"github.com/eugenenazirov/binpacker/internal/geometry"
	"github.com/eugenenazirov/binpacker/internal/packer"
)

const maxLayouts = 100

var (
	// ErrInvalidBinSize indicates the provided bin dimensions violate validation rules.
	ErrInvalidBinSize = errors.New("bin width and height must be positive numbers")
	// ErrLayoutNotFound is returned when no layout with the requested id exists.
	ErrLayoutNotFound = errors.New("layout not found")
)

var defaultBinSize = BinSize{Width: 20, Height: 10}

// BinSize is the default container size applied when a request omits one.
type BinSize struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Layout is a stored packing result.
type Layout struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	BinWidth  float64       `json:"binWidth"`
	BinHeight float64       `json:"binHeight"`
	Result    packer.Result `json:"result"`
	CreatedAt time.Time     `json:"createdAt"`
}

// LayoutSummary is the listing view of a Layout.
type LayoutSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bins      int       `json:"bins"`
	Placed    int       `json:"placed"`
	Dropped   int       `json:"dropped"`
	CreatedAt time.Time `json:"createdAt"`
}

// Storage provides access to the default bin size and stored layouts.
type Storage interface {
	GetBinSize() (BinSize, error)
	SetBinSize(size BinSize) error
	SaveLayout(layout Layout) (Layout, error)
	GetLayout(id string) (Layout, error)
	ListLayouts() ([]LayoutSummary, error)
}

// MemoryStorage keeps state in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	binSize BinSize
	layouts map[string]Layout
	order   []string

	clock func() time.Time
	newID func() string
}

// NewMemoryStorage initialises storage with the default bin size.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		binSize: defaultBinSize,
		layouts: make(map[string]Layout),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: func() string {
			return uuid.NewString()
		},
	}
}

// DefaultBinSize returns the built-in default bin size.
func DefaultBinSize() BinSize {
	return defaultBinSize
}

// GetBinSize returns the currently configured default bin size.
func (s *MemoryStorage) GetBinSize() (BinSize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.binSize, nil
}

// SetBinSize validates and stores the provided bin size.
func (s *MemoryStorage) SetBinSize(size BinSize) error {
	if err := geometry.ValidateSize(size.Width, size.Height); err != nil {
		return ErrInvalidBinSize
	}

	s.mu.Lock()
	s.binSize = size
	s.mu.Unlock()

	return nil
}

// SaveLayout assigns an id and creation time, stores a copy and returns it.
// The oldest layout is evicted once maxLayouts is exceeded.
func (s *MemoryStorage) SaveLayout(layout Layout) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layout.ID = s.newID()
	layout.CreatedAt = s.clock()
	if layout.Name == "" {
		layout.Name = layout.ID
	}
	layout.Result = cloneResult(layout.Result)

	s.layouts[layout.ID] = layout
	s.order = append(s.order, layout.ID)
	for len(s.order) > maxLayouts {
		delete(s.layouts, s.order[0])
		s.order = s.order[1:]
	}

	return Layout{
		ID:        layout.ID,
		Name:      layout.Name,
		BinWidth:  layout.BinWidth,
		BinHeight: layout.BinHeight,
		Result:    cloneResult(layout.Result),
		CreatedAt: layout.CreatedAt,
	}, nil
}

// GetLayout returns a copy of the layout with the given id.
func (s *MemoryStorage) GetLayout(id string) (Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layout, ok := s.layouts[id]
	if !ok {
		return Layout{}, ErrLayoutNotFound
	}
	layout.Result = cloneResult(layout.Result)
	return layout, nil
}

// ListLayouts returns summaries ordered by name in natural order, then by
// creation time.
func (s *MemoryStorage) ListLayouts() ([]LayoutSummary, error) {
	s.mu.RLock()
	out := make([]LayoutSummary, 0, len(s.order))
	for _, id := range s.order {
		l := s.layouts[id]
		out = append(out, LayoutSummary{
			ID:        l.ID,
			Name:      l.Name,
			Bins:      len(l.Result.Bins),
			Placed:    l.Result.PlacedCount(),
			Dropped:   len(l.Result.Dropped),
			CreatedAt: l.CreatedAt,
		})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b LayoutSummary) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func cloneResult(src packer.Result) packer.Result {
	out := packer.Result{
		Bins:    make([]packer.Bin, len(src.Bins)),
		Dropped: slices.Clone(src.Dropped),
	}
	if out.Dropped == nil {
		out.Dropped = []geometry.Item{}
	}
	for i, b := range src.Bins {
		out.Bins[i] = packer.Bin{
			Width:  b.Width,
			Height: b.Height,
			Items:  slices.Clone(b.Items),
		}
	}
	return out
}

package packer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/eugenenazirov/binpacker/internal/geometry"
)

type shelfPacker struct {
	logger *zap.Logger
}

// Option configures the packer.
type Option func(*shelfPacker)

// WithLogger sets the logger used for debug events. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(p *shelfPacker) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Packer that places items largest-area first using the shelf
// heuristic with a single rotation fallback.
func New(opts ...Option) Packer {
	p := &shelfPacker{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *shelfPacker) Pack(items []geometry.Item, binWidth, binHeight float64) (Result, error) {
	if err := geometry.ValidateSize(binWidth, binHeight); err != nil {
		return Result{}, ErrInvalidBinSize
	}

	queue := make([]geometry.Item, len(items))
	for i, it := range items {
		if err := it.Validate(); err != nil {
			if errors.Is(err, geometry.ErrInvalidDimensions) {
				return Result{}, fmt.Errorf("%w: item %d (%s)", ErrInvalidItem, i+1, it.ID)
			}
			return Result{}, err
		}
		if it.ID == "" {
			it.ID = "item-" + strconv.Itoa(i+1)
		}
		queue[i] = it
	}

	// Stable so equal-area items keep their input order.
	slices.SortStableFunc(queue, func(a, b geometry.Item) int {
		switch {
		case a.Area() > b.Area():
			return -1
		case a.Area() < b.Area():
			return 1
		default:
			return 0
		}
	})

	res := Result{Bins: []Bin{}, Dropped: []geometry.Item{}}
	for _, it := range queue {
		if p.placeExisting(res.Bins, &it) {
			continue
		}

		bin := NewBin(binWidth, binHeight)
		if !bin.TryPlaceWithRotation(&it) {
			p.logger.Debug("item dropped",
				zap.String("item", it.ID),
				zap.Float64("width", it.Width),
				zap.Float64("height", it.Height),
			)
			res.Dropped = append(res.Dropped, it)
			continue
		}
		res.Bins = append(res.Bins, *bin)
		p.logger.Debug("bin opened",
			zap.Int("bin", len(res.Bins)),
			zap.String("seed", it.ID),
		)
	}

	return res, nil
}

func (p *shelfPacker) placeExisting(bins []Bin, it *geometry.Item) bool {
	for i := range bins {
		if bins[i].TryPlaceWithRotation(it) {
			return true
		}
	}
	return false
}

package pagination

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/cursor"
	"github.com/saturnines/repsly-export/pkg/errors"
)

// Options carry the per-run inputs a pager may need.
type Options struct {
	Start      cursor.Value // persisted cursor for cursor variants
	Now        time.Time    // run clock, fixes date windows
	WindowDays int          // size of date windows
	JobID      string       // import job for the status variant
}

// Creator builds a Pager for a descriptor or errors on bad input.
type Creator func(d catalog.Descriptor, opts Options) (Pager, error)

// Factory holds a registry of Pager creators.
type Factory struct {
	mu       sync.RWMutex
	registry map[catalog.Variant]Creator
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[catalog.Variant]Creator),
	}
}

// RegisterPager adds a new Pager creator.
// It errors if something is already registered
func (f *Factory) RegisterPager(v catalog.Variant, creator Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.registry[v]; exists {
		return errors.WrapError(
			fmt.Errorf("pager %q already registered", v),
			errors.ErrConfiguration,
			"register pager",
		)
	}
	f.registry[v] = creator
	return nil
}

// CreatePager looks up and invokes the creator for d's variant.
func (f *Factory) CreatePager(d catalog.Descriptor, opts Options) (Pager, error) {
	f.mu.RLock()
	creator, ok := f.registry[d.Variant]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.WrapError(
			fmt.Errorf("unsupported pager type: %s (available: %s)", d.Variant, strings.Join(f.GetAvailablePagers(), ", ")),
			errors.ErrConfiguration,
			"create pager",
		)
	}
	pager, err := creator(d, opts)
	if err != nil {
		return nil, errors.WrapError(
			err,
			errors.ErrConfiguration,
			fmt.Sprintf("creating %q pager for %s", d.Variant, d.Name),
		)
	}
	return pager, nil
}

// GetAvailablePagers returns the registered variants by name.
func (f *Factory) GetAvailablePagers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.registry))
	for v := range f.registry {
		kinds = append(kinds, v.String())
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultFactory is the global registry.
var DefaultFactory = NewFactory()

func init() {
	for v, c := range DefaultRegistry {
		_ = DefaultFactory.RegisterPager(v, c)
	}
}

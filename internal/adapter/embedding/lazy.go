package embedding

import (
	"context"
	"fmt"
	"sync"

	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

// Loader constructs the real embedder.
type Loader func(ctx context.Context) (port.Embedder, error)

// Lazy defers building an embedder until it is first needed and builds it
// at most once per process. A failed load is remembered and reported on
// every later call.
type Lazy struct {
	load      Loader
	model     string
	dimension int

	once  sync.Once
	inner port.Embedder
	err   error
}

// NewLazy wraps load. model and dimension answer ModelName and Dimension
// before loading; a zero dimension forces a load on Dimension.
func NewLazy(load Loader, model string, dimension int) *Lazy {
	return &Lazy{load: load, model: model, dimension: dimension}
}

// get builds the embedder on first use, detached from the caller's
// cancellation.
func (l *Lazy) get(ctx context.Context) (port.Embedder, error) {
	l.once.Do(func() {
		l.inner, l.err = l.load(context.WithoutCancel(ctx))
		if l.err != nil {
			l.err = fmt.Errorf("%w: %w", domain.ErrEmbedderUnavailable, l.err)
			return
		}
		l.model = l.inner.ModelName()
		l.dimension = l.inner.Dimension()
	})
	return l.inner, l.err
}

// Loaded reports whether the underlying embedder has been built.
func (l *Lazy) Loaded() bool {
	return l.inner != nil
}

func (l *Lazy) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return inner.Embed(ctx, texts)
}

func (l *Lazy) Dimension() int {
	if l.dimension == 0 {
		_, _ = l.get(context.Background())
	}
	return l.dimension
}

func (l *Lazy) ModelName() string {
	return l.model
}

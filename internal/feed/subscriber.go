package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goXRPLbooks/internal/core/book"
)

const (
	// DefaultDedupeSize is the number of transaction hashes remembered
	// for cross-connection deduplication.
	DefaultDedupeSize = 8192

	defaultReconnectMin = time.Second
	defaultReconnectMax = time.Minute
)

// Options tunes a Subscriber. Zero values fall back to defaults.
type Options struct {
	// Endpoints is the node pool; connections are spread over it
	// round-robin.
	Endpoints []string

	// ChunkSize is the number of books per connection.
	ChunkSize int

	// DedupeSize is the transaction hash cache size. Books sharing a
	// transaction, and chunks subscribed on different nodes, deliver
	// the same event more than once.
	DedupeSize int

	// ReconnectMin and ReconnectMax bound the exponential backoff
	// between reconnect attempts.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func (o *Options) applyDefaults() {
	if len(o.Endpoints) == 0 {
		o.Endpoints = DefaultEndpoints()
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.DedupeSize <= 0 {
		o.DedupeSize = DefaultDedupeSize
	}
	if o.ReconnectMin <= 0 {
		o.ReconnectMin = defaultReconnectMin
	}
	if o.ReconnectMax < o.ReconnectMin {
		o.ReconnectMax = defaultReconnectMax
	}
}

// Subscriber keeps a Store current: it seeds every configured book from
// a subscription snapshot, then applies the transaction stream for as
// long as its context lives.
type Subscriber struct {
	store *book.Store
	specs []BookSpec
	opts  Options
	log   *zap.Logger

	// seen deduplicates transaction hashes. The LRU cache is safe for
	// concurrent use, so every connection goroutine shares it.
	seen *lru.Cache[string, struct{}]
}

// NewSubscriber validates the book list and builds a subscriber.
func NewSubscriber(store *book.Store, specs []BookSpec, opts Options, log *zap.Logger) (*Subscriber, error) {
	if len(specs) == 0 {
		return nil, errors.New("no books to subscribe to")
	}
	for _, spec := range specs {
		if err := spec.Base.Validate(); err != nil {
			return nil, fmt.Errorf("book %s: %w", spec.Pair(), err)
		}
		if err := spec.Counter.Validate(); err != nil {
			return nil, fmt.Errorf("book %s: %w", spec.Pair(), err)
		}
	}
	opts.applyDefaults()
	seen, err := lru.New[string, struct{}](opts.DedupeSize)
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Subscriber{
		store: store,
		specs: specs,
		opts:  opts,
		log:   log,
		seen:  seen,
	}, nil
}

// Run blocks until the context is cancelled or a connection fails
// beyond recovery. Each chunk of books lives on its own connection; a
// dropped connection is redialed with backoff and reseeds its books
// from a fresh snapshot.
func (s *Subscriber) Run(ctx context.Context) error {
	chunks := ChunkBookSpecs(s.specs, s.opts.ChunkSize)
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		endpoint := s.opts.Endpoints[i%len(s.opts.Endpoints)]
		chunk := chunk
		g.Go(func() error {
			return s.runChunk(ctx, endpoint, chunk)
		})
	}
	return g.Wait()
}

func (s *Subscriber) runChunk(ctx context.Context, endpoint string, chunk []BookSpec) error {
	backoff := s.opts.ReconnectMin
	for {
		err := s.serveChunk(ctx, endpoint, chunk)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("connection lost, reconnecting",
			zap.String("endpoint", endpoint),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.opts.ReconnectMax {
			backoff = s.opts.ReconnectMax
		}
	}
}

// serveChunk subscribes every book of the chunk on one connection and
// pumps its messages until the connection dies.
func (s *Subscriber) serveChunk(ctx context.Context, endpoint string, chunk []BookSpec) error {
	client, err := Dial(ctx, endpoint)
	if err != nil {
		return err
	}
	defer client.Close()
	// Unblock the read loop when the context ends.
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	pending := make(map[int]BookSpec, len(chunk))
	for _, spec := range chunk {
		id, err := client.SubscribeBook(spec)
		if err != nil {
			return err
		}
		pending[id] = spec
	}
	s.log.Info("subscribed",
		zap.String("endpoint", endpoint),
		zap.Int("books", len(chunk)))

	for {
		msg, raw, err := client.Read()
		if err != nil {
			return err
		}
		s.handleMessage(endpoint, msg, raw, pending)
	}
}

func (s *Subscriber) handleMessage(endpoint string, msg *Message, raw []byte, pending map[int]BookSpec) {
	switch {
	case msg.Type == "response":
		spec, ok := pending[msg.ID]
		if !ok {
			return
		}
		delete(pending, msg.ID)
		s.seedSnapshot(endpoint, spec, msg)

	case msg.Type == "transaction":
		s.applyTransaction(endpoint, raw)
	}
}

// seedSnapshot turns one subscribe response into a stored book. A
// failed subscription still registers the pair with an empty book, so
// the market stays visible as illiquid instead of silently missing.
func (s *Subscriber) seedSnapshot(endpoint string, spec BookSpec, msg *Message) {
	empty := &book.OrderBook{CurrencyPair: spec.Pair()}
	if msg.Status != "success" {
		s.log.Warn("book subscription rejected",
			zap.String("endpoint", endpoint),
			zap.String("pair", spec.Pair()),
			zap.String("error", msg.ErrorMessage))
		s.store.Seed(empty)
		return
	}

	var snapshot snapshotResult
	if err := json.Unmarshal(msg.Result, &snapshot); err != nil {
		s.log.Warn("malformed book snapshot",
			zap.String("endpoint", endpoint),
			zap.String("pair", spec.Pair()),
			zap.Error(err))
		s.store.Seed(empty)
		return
	}

	b := &book.OrderBook{
		Asks:         snapshot.Asks,
		Bids:         snapshot.Bids,
		CurrencyPair: spec.Pair(),
	}
	if err := s.store.Seed(b); err != nil {
		s.log.Warn("book snapshot rejected",
			zap.String("endpoint", endpoint),
			zap.String("pair", spec.Pair()),
			zap.Error(err))
		s.store.Seed(empty)
		return
	}
	s.log.Debug("book seeded",
		zap.String("pair", spec.Pair()),
		zap.Int("asks", len(snapshot.Asks)),
		zap.Int("bids", len(snapshot.Bids)))
}

// applyTransaction merges one stream event into every held book, at
// most once per transaction hash.
func (s *Subscriber) applyTransaction(endpoint string, raw []byte) {
	var sub book.SubscriptionTransaction
	if err := json.Unmarshal(raw, &sub); err != nil {
		s.log.Warn("malformed stream event",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return
	}
	if !sub.Validated {
		return
	}
	txn, err := sub.Normalize()
	if err != nil {
		s.log.Warn("incomplete stream event",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return
	}
	if found, _ := s.seen.ContainsOrAdd(txn.Hash, struct{}{}); found {
		return
	}
	if err := s.store.Apply(txn); err != nil {
		s.log.Warn("transaction rejected",
			zap.String("endpoint", endpoint),
			zap.String("hash", txn.Hash),
			zap.Error(err))
	}
}

// Package builder orchestrates the knowledge-base construction
// pipeline: it wires the input sources to the parsers, extractors, and
// order analyzer, hands the assembled candidates to fusion, attaches
// metadata, and serializes the result.
package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/travelkb/kbuilder/internal/analyzer"
	"github.com/travelkb/kbuilder/internal/extractor"
	"github.com/travelkb/kbuilder/internal/fusion"
	"github.com/travelkb/kbuilder/internal/kb"
	"github.com/travelkb/kbuilder/internal/llm"
	"github.com/travelkb/kbuilder/internal/parser"
	"github.com/travelkb/kbuilder/internal/walker"
)

// ErrNoSources is returned when no input source was supplied; the
// pipeline refuses to run on nothing.
var ErrNoSources = errors.New("at least one input source is required")

// ProgressFunc receives per-document progress updates.
type ProgressFunc func(current, total int, file string)

// Options configures one pipeline run. DocsDir, OrdersFile, and
// ChatsFile are independent optional sources; at least one must be set.
type Options struct {
	DocsDir    string
	OrdersFile string
	ChatsFile  string
	OutputPath string

	Include []string
	Exclude []string

	// Provider is the optional text-generation capability for product
	// extraction; nil selects pure heuristic mode.
	Provider   llm.Provider
	Model      string
	LLMTimeout time.Duration

	OnProgress ProgressFunc
}

// Result reports what a run produced.
type Result struct {
	KB            *kb.KnowledgeBase
	DocsProcessed int
	DocsFailed    int
	Duration      time.Duration
}

// Builder runs the construction pipeline.
type Builder struct {
	opts      Options
	docs      *parser.Document
	productEx *extractor.Product
	qaEx      *extractor.QA
}

// New creates a builder for the given options.
func New(opts Options) *Builder {
	return &Builder{
		opts:      opts,
		docs:      parser.NewDocument(),
		productEx: extractor.NewProduct(opts.Provider, opts.Model, opts.LLMTimeout),
		qaEx:      extractor.NewQA(),
	}
}

// Run executes the full pipeline and writes the snapshot when an output
// path is configured. Individual file failures are logged and contribute
// nothing; only the absence of any source aborts the run.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	if b.opts.DocsDir == "" && b.opts.OrdersFile == "" && b.opts.ChatsFile == "" {
		return nil, ErrNoSources
	}

	start := time.Now()
	store := kb.NewStore()
	result := &Result{}

	if b.opts.DocsDir != "" {
		if err := b.buildFromDocuments(ctx, store, result); err != nil {
			return nil, err
		}
	}
	if b.opts.OrdersFile != "" {
		b.buildFromOrders(store)
	}
	if b.opts.ChatsFile != "" {
		b.buildFromChats(store)
	}

	k := assemble(store)
	fusion.Fuse(k)
	k.Metadata.GeneratedAt = time.Now().Format(time.RFC3339)
	k.Metadata.Stats = kb.Stats{
		Products: len(k.Products),
		FAQs:     len(k.FAQs),
		Policies: len(k.Policies),
	}

	if b.opts.OutputPath != "" {
		if err := kb.Save(k, b.opts.OutputPath); err != nil {
			return nil, err
		}
		log.Info().Str("output", b.opts.OutputPath).
			Int("products", k.Metadata.Stats.Products).
			Int("faqs", k.Metadata.Stats.FAQs).
			Int("policies", k.Metadata.Stats.Policies).
			Msg("knowledge base written")
	}

	result.KB = k
	result.Duration = time.Since(start)
	return result, nil
}

// buildFromDocuments walks the documents directory and extracts one
// product candidate per parseable file.
func (b *Builder) buildFromDocuments(ctx context.Context, store *kb.Store, result *Result) error {
	files, err := walker.Walk(walker.Config{
		RootDir: b.opts.DocsDir,
		Include: b.opts.Include,
		Exclude: b.opts.Exclude,
	})
	if err != nil {
		return fmt.Errorf("scanning documents dir: %w", err)
	}

	for i, f := range files {
		if b.opts.OnProgress != nil {
			b.opts.OnProgress(i+1, len(files), f.RelPath)
		}
		text, err := b.docs.Parse(f.Path)
		if err != nil {
			if errors.Is(err, parser.ErrUnsupportedFormat) {
				log.Warn().Str("file", f.RelPath).Msg("unsupported document format, skipped")
			} else {
				log.Warn().Err(err).Str("file", f.RelPath).Msg("document parse failed, skipped")
			}
			result.DocsFailed++
			continue
		}
		if text == "" {
			result.DocsFailed++
			continue
		}
		store.AddProduct(b.productEx.Extract(ctx, text))
		result.DocsProcessed++
	}

	store.AddSource("products", b.opts.DocsDir)
	log.Info().Int("documents", result.DocsProcessed).Int("failed", result.DocsFailed).
		Str("dir", b.opts.DocsDir).Msg("documents processed")
	return nil
}

// buildFromOrders analyzes the orders file into FAQ candidates and
// policies. A file that cannot be parsed contributes nothing.
func (b *Builder) buildFromOrders(store *kb.Store) {
	orders, err := parser.ParseOrders(b.opts.OrdersFile)
	if err != nil {
		log.Warn().Err(err).Str("file", b.opts.OrdersFile).Msg("orders file skipped")
		return
	}

	insights := analyzer.Analyze(orders)
	for _, faq := range insights.FAQCandidates {
		store.AddFAQ(faq)
	}
	for _, policy := range insights.Policies {
		store.AddPolicy(policy)
	}

	store.AddSource("orders", b.opts.OrdersFile)
	log.Info().Int("orders", len(orders)).
		Int("faq_candidates", len(insights.FAQCandidates)).
		Int("policies", len(insights.Policies)).
		Int("hot_products", len(insights.HotProducts)).
		Msg("orders analyzed")
}

// buildFromChats extracts QA pairs from the chat transcript file.
func (b *Builder) buildFromChats(store *kb.Store) {
	conversations, err := parser.ParseChats(b.opts.ChatsFile)
	if err != nil {
		log.Warn().Err(err).Str("file", b.opts.ChatsFile).Msg("chats file skipped")
		return
	}

	pairs := b.qaEx.Extract(conversations)
	for _, qa := range pairs {
		store.AddFAQ(qa)
	}

	store.AddSource("chats", b.opts.ChatsFile)
	log.Info().Int("conversations", len(conversations)).Int("qa_pairs", len(pairs)).
		Msg("chats processed")
}

// assemble builds the pre-fusion knowledge base. Lists are always
// non-nil so the snapshot serializes them as arrays.
func assemble(store *kb.Store) *kb.KnowledgeBase {
	k := &kb.KnowledgeBase{
		Products: store.Products,
		FAQs:     store.FAQs,
		Policies: store.Policies,
	}
	if k.Products == nil {
		k.Products = []kb.ProductCandidate{}
	}
	if k.FAQs == nil {
		k.FAQs = []kb.QAPair{}
	}
	if k.Policies == nil {
		k.Policies = []kb.Policy{}
	}
	k.Metadata.Sources = store.Sources
	if k.Metadata.Sources == nil {
		k.Metadata.Sources = []string{}
	}
	return k
}

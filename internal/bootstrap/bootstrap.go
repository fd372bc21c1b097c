package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/config"
	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
	"github.com/kirillkom/counsel-assistant/internal/core/usecase"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/corpusfile"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/embedding"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/extractor/html"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/tables"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/vector/memory"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/counsel-assistant/internal/observability/metrics"
)

// Retrieval holds the components needed to answer and decide. cmd/mcp runs
// with only this part.
type Retrieval struct {
	Settings  domain.RetrievalConfig
	Embedder  *embedding.Chain
	Index     ports.VectorIndex
	Corpus    *usecase.CorpusService
	Decider   *usecase.ResponseModeDecider
	Generator *ollama.Generator

	db       *sql.DB
	executor *resilience.Executor
}

type App struct {
	Config config.Config
	Retrieval

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository
	IngestUC  *usecase.IngestDocumentUseCase
	ProcessUC *usecase.ProcessDocumentUseCase
	Chat      *usecase.ChatUseCase
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

// NewRetrieval connects postgres, loads the similarity tables and the corpus
// snapshot, and builds the response-mode decider.
func NewRetrieval(ctx context.Context, cfg config.Config, observer ports.DecisionObserver, logger *slog.Logger) (*Retrieval, error) {
	if logger == nil {
		logger = slog.Default()
	}

	similarity, err := tables.Load(cfg.SimilarityTablesPath)
	if err != nil {
		return nil, fmt.Errorf("load similarity tables: %w", err)
	}
	rc := cfg.Retrieval(similarity)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	circuits, _ := observer.(circuitObserver)
	executor := newExecutor(cfg, logger, circuits)
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            cfg.OllamaTimeout,
		ResilienceExecutor: executor,
	})
	embedder := embedding.NewChain(
		rc.Dimension,
		rc.EmbedTimeout,
		logger,
		ollama.NewEmbedder(ollamaClient),
		embedding.NewHashEmbedder(rc.Dimension, similarity.Topics),
	)

	var index ports.VectorIndex
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		index = qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantCollection, rc.Dimension, qdrant.Options{
			ResilienceExecutor: executor,
		})
	default:
		index = memory.New(rc.Dimension)
	}

	corpus := usecase.NewCorpusService(postgres.NewQARepository(db), embedder, corpusfile.Parsers(), logger)
	if err := corpus.Reload(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	decider := usecase.NewResponseModeDecider(rc, embedder, corpus, usecase.DeciderOptions{
		Chunks:   index,
		Observer: observer,
		Logger:   logger,
	})

	logger.Info("retrieval_ready",
		"dimension", rc.Dimension,
		"embedding_strategies", embedder.Strategies(),
		"vector_backend", cfg.VectorBackend,
		"corpus_entries", len(corpus.Snapshot()),
	)

	return &Retrieval{
		Settings:  rc,
		Embedder:  embedder,
		Index:     index,
		Corpus:    corpus,
		Decider:   decider,
		Generator: ollama.NewGenerator(ollamaClient),
		db:        db,
		executor:  executor,
	}, nil
}

// circuitObserver is implemented by the HTTP metrics.
type circuitObserver interface {
	SetCircuitOpen(operation string, open bool)
}

// newExecutor shares one executor between ollama, qdrant and nats. The
// embedding call gets a single attempt: the embedding chain already falls
// back to the hash embedder within its own budget.
func newExecutor(cfg config.Config, logger *slog.Logger, circuits circuitObserver) *resilience.Executor {
	rcfg := resilience.DefaultConfig()
	rcfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	rcfg.BreakerEnabled = cfg.BreakerEnabled
	rcfg.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	rcfg.Operations = map[string]resilience.RetryPolicy{
		ollama.OperationEmbed: {MaxAttempts: 1},
	}
	rcfg.Logger = logger
	if circuits != nil {
		rcfg.OnStateChange = func(operation string, _, to resilience.State) {
			circuits.SetCircuitOpen(operation, to == resilience.StateOpen)
		}
	}
	return resilience.NewExecutor(rcfg)
}

func (r *Retrieval) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// New wires the full application: retrieval, document ingestion, chat and
// the NATS queue.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics("api")
	retrieval, err := NewRetrieval(ctx, cfg, httpMetrics, logger)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		retrieval.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: retrieval.executor,
		QueueGroup:         cfg.NATSQueueGroup,
		Logger:             logger,
	})
	if err != nil {
		retrieval.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	documents := postgres.NewDocumentRepository(retrieval.db)
	textExtractor := extractor.NewRouter(plaintext.NewExtractor(storage), map[string]ports.TextExtractor{
		extractor.FormatPDF:  pdf.NewExtractor(storage),
		extractor.FormatHTML: html.NewExtractor(storage),
	})
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	ingestUC := usecase.NewIngestDocumentUseCase(documents, storage, queue, retrieval.Index)
	processUC := usecase.NewProcessDocumentUseCase(documents, textExtractor, chunker, retrieval.Embedder, retrieval.Index)
	chat := usecase.NewChatUseCase(retrieval.Decider, retrieval.Generator, postgres.NewConversationRepository(retrieval.db), cfg.ChatHistoryLimit)

	return &App{
		Config:    cfg,
		Retrieval: *retrieval,
		Queue:     queue,
		Documents: documents,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		Chat:      chat,
		Metrics:   httpMetrics,

		closeFn: func() {
			queue.Close()
			retrieval.Close()
		},
	}, nil
}

// InProcessWorker reports whether chunk indexing must run inside the API.
// The memory index is not shared between processes.
func (a *App) InProcessWorker() bool {
	return a.Config.VectorBackend != config.VectorBackendQdrant
}

// DocumentHandler processes one ingested document id, recording worker
// metrics when m is set.
func (a *App) DocumentHandler(m *metrics.WorkerMetrics, timeout time.Duration, logger *slog.Logger) func(context.Context, string) error {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, documentID string) error {
		if m != nil {
			var uploadedAt time.Time
			if doc, err := a.Documents.GetByID(ctx, documentID); err == nil {
				uploadedAt = doc.CreatedAt
			}
			m.StartDocument(uploadedAt)
		}

		processCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		started := time.Now()
		err := a.ProcessUC.ProcessByID(processCtx, documentID)

		if m != nil {
			chunks := -1
			if err == nil {
				if doc, getErr := a.Documents.GetByID(ctx, documentID); getErr == nil {
					chunks = doc.ChunkCount
				}
			}
			m.FinishDocument(time.Since(started), chunks, err)
		}
		if err != nil {
			logger.Error("document_process_failed", "document_id", documentID, "error", err)
			return err
		}
		logger.Info("document_processed", "document_id", documentID, "duration_ms", time.Since(started).Milliseconds())
		return nil
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Sampling temperature for regular answers and for answers to a repeated
// question, which should not read like the previous reply.
const (
	answerTemperature = 0.4
	variedTemperature = 0.9
)

// Embedder is the primary embedding strategy.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

// Name identifies the vector space; vectors from different models are
// never compared.
func (e *Embedder) Name() string {
	return "ollama:" + e.client.embedModel
}

// Embed returns one vector per input text, in order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var response embedResponse
	request := embedRequest{Model: e.client.embedModel, Input: texts}
	if err := e.client.call(ctx, "/api/embed", request, &response, OperationEmbed); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama embed", errors.New("empty text"))
	}
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Generator writes answers in generative mode.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, candidates []domain.MatchCandidate, varyPhrasing bool) (string, error) {
	temperature := answerTemperature
	if varyPhrasing {
		temperature = variedTemperature
	}
	request := generateRequest{
		Model:   g.client.genModel,
		Prompt:  buildAnswerPrompt(question, candidates, varyPhrasing),
		Options: generateOptions{Temperature: temperature},
	}

	var response generateResponse
	if err := g.client.call(ctx, "/api/generate", request, &response, OperationGenerate); err != nil {
		return "", err
	}
	answer := strings.TrimSpace(response.Response)
	if answer == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}
	return answer, nil
}

// call posts to path through the executor when one is configured.
// operation is the executor operation name, e.g. "ollama.embed".
func (c *Client) call(ctx context.Context, path string, payload any, out any, operation string) error {
	do := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, strings.TrimPrefix(operation, "ollama."))
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, do, classifyOllamaError)
	} else {
		err = do(ctx)
	}
	return resilience.WrapTemporary(strings.ReplaceAll(operation, ".", " "), err, classifyOllamaError)
}

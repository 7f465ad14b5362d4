package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine_deps.go -package=mocks docprompt/internal/rag Moderator,Completer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"docprompt/internal/contextutil"
	"docprompt/internal/llm"
	"docprompt/internal/service"
	"docprompt/internal/storage"
	"docprompt/internal/vectorstore"
	"docprompt/internal/wire"
)

// Moderator classifies prompts against a content policy.
type Moderator interface {
	Moderate(ctx context.Context, input, apiKey string) (bool, error)
}

// Completer sends prompts to the model provider.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest, apiKey string) (*llm.CompletionResponse, error)
	Stream(ctx context.Context, req llm.CompletionRequest, apiKey string) (io.ReadCloser, llm.Family, error)
}

// Engine answers prompts from the indexed sections of a project.
type Engine struct {
	cfg       Config
	moderator Moderator
	embedder  llm.Embedder
	vectors   vectorstore.VectorStore
	queries   storage.QueryStore
	usage     storage.UsageStore
	completer Completer
}

// NewEngine creates an Engine. moderator may be nil when cfg.Moderate is false.
func NewEngine(
	cfg Config,
	moderator Moderator,
	embedder llm.Embedder,
	vectors vectorstore.VectorStore,
	queries storage.QueryStore,
	usage storage.UsageStore,
	completer Completer,
) *Engine {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if _, ok := ParseInsightsTier(string(cfg.InsightsTier)); !ok {
		cfg.InsightsTier = InsightsBasic
	}
	return &Engine{
		cfg:       cfg,
		moderator: moderator,
		embedder:  embedder,
		vectors:   vectors,
		queries:   queries,
		usage:     usage,
		completer: completer,
	}
}

// prepared is a query that passed moderation and retrieval.
type prepared struct {
	req       Request
	fallback  string
	embedding []float32
	sections  []section
	context   assembledContext
	prompt    string
	llmReq    llm.CompletionRequest
}

func (p *prepared) paths() []string {
	return referencePaths(p.context.references)
}

// prepare runs every stage before model dispatch: moderation, embedding,
// retrieval, context assembly and prompt assembly.
func (e *Engine) prepare(ctx context.Context, req Request) (*prepared, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &service.ValidationError{Field: "prompt", Message: "is required"}
	}
	sanitized := sanitizePrompt(req.Prompt)

	if e.cfg.Moderate && e.moderator != nil {
		flagged, err := e.moderator.Moderate(ctx, sanitized, req.APIKey)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.ErrorContext(ctx, "moderation failed", "error", err)
			return nil, &service.APIError{Status: http.StatusBadRequest, Message: "Failed to moderate content", Err: fmt.Errorf("%w: %v", service.ErrProviderError, err)}
		}
		if flagged {
			logger.InfoContext(ctx, "prompt flagged by moderation")
			return nil, service.NewAPIError(http.StatusBadRequest, "Flagged content", service.ErrModerationRejected)
		}
	}

	p := &prepared{req: req, fallback: req.IDontKnowMessage}
	if p.fallback == "" {
		p.fallback = DefaultIDontKnowMessage
	}

	emb, err := e.embedder.EmbedWithRetry(ctx, []string{sanitized}, req.APIKey)
	if err == nil && len(emb.Vectors) != 1 {
		err = fmt.Errorf("expected 1 embedding, got %d", len(emb.Vectors))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.ErrorContext(ctx, "failed to embed prompt", "error", err)
		e.insertQuery(ctx, e.newQueryRecord(p, nil, noAnswer(storage.NoAnswerNoSections)))
		return nil, &service.APIError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Failed to create embedding for prompt: %v", err),
			Err:     service.ErrEmbeddingFailure,
		}
	}
	p.embedding = emb.Vectors[0]
	e.recordUsage(ctx, storage.UsageKindEmbedding, e.cfg.EmbeddingModel, emb.Tokens, req.APIKey)

	search := vectorstore.SearchRequest{
		Vector:           p.embedding,
		Limit:            DefaultMatchCount,
		ScoreThreshold:   DefaultThreshold,
		MinContentLength: DefaultMinContentLength,
		ProjectID:        e.cfg.ProjectID,
	}
	if req.MatchCount != nil && *req.MatchCount > 0 {
		search.Limit = *req.MatchCount
	}
	if req.Threshold != nil {
		search.ScoreThreshold = *req.Threshold
	}

	results, err := e.vectors.Search(ctx, e.cfg.Collection, search)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.ErrorContext(ctx, "failed to search sections", "error", err)
		e.insertQuery(ctx, e.newQueryRecord(p, nil, noAnswer(storage.NoAnswerNoSections)))
		return nil, &service.APIError{Status: http.StatusBadRequest, Message: "Failed to retrieve sections", Err: fmt.Errorf("%w: %v", service.ErrRetrievalEmpty, err)}
	}
	if len(results) == 0 {
		logger.InfoContext(ctx, "no sections matched prompt", "threshold", search.ScoreThreshold)
		e.insertQuery(ctx, e.newQueryRecord(p, nil, noAnswer(storage.NoAnswerNoSections)))
		return nil, service.NewAPIError(http.StatusBadRequest, "No relevant sections found", service.ErrRetrievalEmpty)
	}

	p.sections = make([]section, len(results))
	for i, r := range results {
		p.sections[i] = sectionFromResult(r)
	}
	p.context = assembleContext(p.sections, ContextTokenCutoff)
	p.prompt = buildPrompt(req, p.context.text, p.fallback)

	logger.DebugContext(ctx, "prompt assembled",
		"sections_retrieved", len(results),
		"sections_included", p.context.included,
		"references", len(p.context.references),
		"prompt_length", len(p.prompt),
	)

	p.llmReq = llm.CompletionRequest{
		Model:            req.Model,
		Prompt:           p.prompt,
		Temperature:      DefaultTemperature,
		TopP:             DefaultTopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		MaxTokens:        DefaultMaxTokens,
	}
	if p.llmReq.Model == "" {
		p.llmReq.Model = e.cfg.Model
	}
	if req.Temperature != nil {
		p.llmReq.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		p.llmReq.TopP = *req.TopP
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		p.llmReq.MaxTokens = *req.MaxTokens
	}

	return p, nil
}

// Complete answers a prompt in a single response.
func (e *Engine) Complete(ctx context.Context, req Request) (*Completion, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.completer.Complete(ctx, p.llmReq, req.APIKey)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec := e.newQueryRecord(p, nil, noAnswer(storage.NoAnswerAPIError))
		e.insertQuery(ctx, rec)
		return nil, e.providerError(ctx, p, rec.ID, err)
	}

	text := resp.Text
	var reason *string
	if isIDontKnow(text, p.fallback) {
		reason = noAnswer(storage.NoAnswerIDK)
	}

	rec := e.newQueryRecord(p, &text, reason)
	e.insertQuery(ctx, rec)
	e.recordUsage(ctx, storage.UsageKindCompletion, p.llmReq.Model, resp.Usage.TotalTokens, req.APIKey)

	header, err := wire.EncodeHeaderData(wire.HeaderData{References: p.paths(), PromptID: rec.ID})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "completion answered",
		"prompt_id", rec.ID,
		"model", p.llmReq.Model,
		"references", len(p.context.references),
		"idk", reason != nil,
	)

	out := &Completion{
		Text:       text,
		References: p.context.references,
		ResponseID: resp.ID,
		HeaderData: header,
	}
	if req.FirstParty {
		out.Debug = buildDebugInfo(p)
	}
	return out, nil
}

// Stream answers a prompt incrementally. A placeholder query record is
// persisted first so its id can travel in the header before any text exists.
// Provider errors are returned before any chunk is produced.
func (e *Engine) Stream(ctx context.Context, req Request) (*Stream, error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	rec := e.newQueryRecord(p, nil, nil)
	e.insertQuery(ctx, rec)

	body, family, err := e.completer.Stream(ctx, p.llmReq, req.APIKey)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.updateQuery(ctx, rec.ID, nil, noAnswer(storage.NoAnswerAPIError))
		return nil, e.providerError(ctx, p, rec.ID, err)
	}

	header, err := wire.EncodeHeaderData(wire.HeaderData{References: p.paths(), PromptID: rec.ID})
	if err != nil {
		_ = body.Close()
		return nil, err
	}

	chunks := make(chan Chunk)
	go e.pump(ctx, p, rec.ID, body, family, chunks)

	return &Stream{
		PromptID:   rec.ID,
		References: p.context.references,
		HeaderData: header,
		Chunks:     chunks,
	}, nil
}

// pump forwards decoded fragments to chunks, then finalizes the query record.
func (e *Engine) pump(ctx context.Context, p *prepared, promptID string, body io.ReadCloser, family llm.Family, chunks chan<- Chunk) {
	logger := contextutil.LoggerFromContext(ctx)
	defer close(chunks)
	defer func() {
		_ = body.Close()
	}()

	send := func(c Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case chunks <- c:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	prefix, err := wire.StreamPrefix(p.paths())
	if err != nil {
		_ = send(Chunk{Err: err})
		return
	}

	var text strings.Builder
	started := false
	fragments := 0
	err = llm.ReadStream(body, family, func(fragment string) error {
		fragments++
		if !started && fragments <= 2 && fragment != "" && strings.Trim(fragment, "\n") == "" {
			return nil
		}
		if !started {
			started = true
			if err := send(Chunk{Data: prefix}); err != nil {
				return err
			}
		}
		text.WriteString(fragment)
		return send(Chunk{Data: []byte(fragment)})
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "completion stream aborted", "prompt_id", promptID)
			return
		}
		logger.ErrorContext(ctx, "completion stream failed", "prompt_id", promptID, "error", err)
		_ = send(Chunk{Err: fmt.Errorf("failed to read completion stream: %w", err)})
		return
	}

	if !started {
		if err := send(Chunk{Data: prefix}); err != nil {
			return
		}
	}

	answer := text.String()
	var reason *string
	if isIDontKnow(answer, p.fallback) {
		reason = noAnswer(storage.NoAnswerIDK)
	}
	e.updateQuery(ctx, promptID, e.gatedResponse(p.req, &answer), reason)

	tokens := (utf8.RuneCountInString(p.prompt) + utf8.RuneCountInString(answer)) / 4
	e.recordUsage(ctx, storage.UsageKindCompletion, p.llmReq.Model, tokens, p.req.APIKey)

	logger.InfoContext(ctx, "completion streamed",
		"prompt_id", promptID,
		"model", p.llmReq.Model,
		"fragments", fragments,
		"idk", reason != nil,
	)
}

// providerError builds the client-facing error of a failed model call.
// Retrieval already succeeded, so the header still carries the references.
func (e *Engine) providerError(ctx context.Context, p *prepared, promptID string, err error) error {
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "model provider request failed", "prompt_id", promptID, "error", err)

	message := err.Error()
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}

	header, encErr := wire.EncodeHeaderData(wire.HeaderData{References: p.paths(), PromptID: promptID})
	if encErr != nil {
		header = ""
	}
	return &service.APIError{
		Status:     http.StatusBadRequest,
		Message:    message,
		HeaderData: header,
		Err:        fmt.Errorf("%w: %v", service.ErrProviderError, err),
	}
}

// isIDontKnow reports whether an answer is empty or ends with the fallback message.
func isIDontKnow(text, fallback string) bool {
	t := strings.TrimSpace(text)
	return t == "" || strings.HasSuffix(t, strings.TrimSpace(fallback))
}

// newQueryRecord builds the persisted form of a query under the insights rules.
func (e *Engine) newQueryRecord(p *prepared, response, reason *string) *storage.QueryRecord {
	rec := &storage.QueryRecord{
		ProjectID:      e.cfg.ProjectID,
		NoAnswerReason: reason,
		References:     p.paths(),
	}
	if p.req.ExcludeFromInsights {
		return rec
	}

	prompt := p.req.Prompt
	if p.req.Redact {
		prompt = redact(prompt)
	}
	rec.Prompt = &prompt
	rec.Response = e.gatedResponse(p.req, response)
	if e.cfg.InsightsTier.keepsEmbedding() {
		rec.Embedding = p.embedding
	}
	return rec
}

// gatedResponse returns the response to persist, or nil when insights forbid it.
func (e *Engine) gatedResponse(req Request, response *string) *string {
	if response == nil || req.ExcludeFromInsights || !e.cfg.InsightsTier.keepsResponse() {
		return nil
	}
	r := *response
	if req.Redact {
		r = redact(r)
	}
	return &r
}

func (e *Engine) insertQuery(ctx context.Context, rec *storage.QueryRecord) {
	if err := e.queries.Insert(ctx, rec); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to persist query", "error", err)
	}
}

func (e *Engine) updateQuery(ctx context.Context, id string, response, reason *string) {
	if id == "" {
		return
	}
	if err := e.queries.Update(ctx, id, response, reason); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to update query", "prompt_id", id, "error", err)
	}
}

// recordUsage meters tokens spent with the system key. Caller-supplied keys are not metered.
func (e *Engine) recordUsage(ctx context.Context, kind, model string, tokens int, apiKey string) {
	if apiKey != "" || tokens <= 0 {
		return
	}
	if err := e.usage.Record(ctx, storage.UsageRecord{
		ProjectID: e.cfg.ProjectID,
		Kind:      kind,
		Model:     model,
		Tokens:    tokens,
	}); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to record usage", "kind", kind, "error", err)
	}
}

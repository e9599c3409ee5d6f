package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
)

const defaultMaxOutputTokens = 1200

// OpenAI is the Generator implementation backed by the Responses API with a
// strict JSON-schema output format. The API guarantees the reply parses
// against the schema; nothing here vouches for its content.
type OpenAI struct {
	client       *openai.Client
	model        string
	instructions string
}

// NewOpenAI wires a client, default model and composed instructions into a
// Generator.
func NewOpenAI(client *openai.Client, model, instructions string) (*OpenAI, error) {
	if client == nil {
		return nil, errors.New("NewOpenAI: client is nil")
	}
	if model == "" {
		return nil, errors.New("NewOpenAI: model is empty")
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, errors.New("NewOpenAI: instructions are empty")
	}
	return &OpenAI{client: client, model: model, instructions: instructions}, nil
}

// GenerateStructured runs one schema-constrained generation for the prompt.
func (o *OpenAI) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, opts Options) (json.RawMessage, error) {
	model := o.model
	if opts.Model != "" {
		model = opts.Model
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "DetectiveReportDraft",
			Schema:      schema,
			Strict:      openai.Bool(true),
			Description: openai.String("Detective report draft JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           model,
		MaxOutputTokens: openai.Int(maxTokens),
		Instructions:    openai.String(o.instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := callWithRetry(ctx, o.client, params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.OutputText()), nil
}

// callWithRetry retries once on rate-limit or server errors. The waits are
// short: the whole narration stage runs under the pipeline deadline, and a
// long backoff would just convert a transient API error into a timeout.
func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 2
	rateLimitWaitTimes := []time.Duration{2 * time.Second}
	serverErrorWaitTimes := []time.Duration{1 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					if err := sleepCtx(ctx, rateLimitWaitTimes[attempt]); err != nil {
						return nil, err
					}
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					if err := sleepCtx(ctx, serverErrorWaitTimes[attempt]); err != nil {
						return nil, err
					}
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

// sleepCtx waits for d, honoring cancellation so a deadline never waits out
// a backoff.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

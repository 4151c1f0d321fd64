package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"orderstock/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService turns a natural-language stocktake or damage report into a
// structured stock adjustment proposal. The proposal is never applied here;
// the caller shows it to a human and each approved line goes through the
// stock ledger's adjust operation, which re-validates under the row lock.
type AgentService interface {
	ProposeAdjustment(ctx context.Context, naturalLanguage string, stockContext string) (*core.AdjustmentResponse, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

func (a *Agent) ProposeAdjustment(ctx context.Context, naturalLanguage string, stockContext string) (*core.AdjustmentResponse, error) {
	prompt := fmt.Sprintf(`You are an inventory controller.
Your goal is to interpret a stock event described in natural language (stocktake count, damage, loss, found stock) and propose stock adjustments.
You MUST use the provided stock list.
Rules:
1. Use ONLY product codes and warehouse codes from the list below.
2. Deltas are signed whole units as strings (e.g. "-3", "12") and never zero.
3. A delta may not push a record's total below its reserved quantity shown in the list.
4. One line per product and warehouse.
5. Provide a confidence score (0.0-1.0).
6. Explain your reasoning.
If the report is ambiguous (no product, no count, unclear warehouse), ask for clarification instead of guessing.

Current stock:
%s

Report: %s`, stockContext, naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "stock_adjustment_response",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("Either a stock adjustment proposal or a clarification request"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var response core.AdjustmentResponse
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if response.IsClarificationRequest {
		if response.Clarification == nil {
			return nil, fmt.Errorf("clarification requested without a message")
		}
		return &response, nil
	}

	if response.Proposal == nil {
		return nil, fmt.Errorf("response contains neither a proposal nor a clarification")
	}
	response.Proposal.Normalize()
	if err := response.Proposal.Validate(); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}

	return &response, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.AdjustmentResponse
	return reflector.Reflect(v)
}

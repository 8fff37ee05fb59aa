package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Theclimateguy/GIM/internal/actions"
	"github.com/Theclimateguy/GIM/internal/config"
	"github.com/Theclimateguy/GIM/internal/world"
)

const systemPrompt = "You are a policy decision engine that outputs ONLY JSON."

const promptTemplate = `You are the government of ONE country, not a global planner.
You see only your own state and summaries about others.

WIN CONDITIONS (for this country):
- Grow your GDP and GDP per capita over time.
- Maintain or improve social stability (avoid unrest and collapse).
- Keep security_margin >= 1.0 so you are not militarily vulnerable.
- Avoid critical shortages in energy, food, and metals (reserve_years not near zero).
- Improve your RELATIVE position: raise or defend gdp_share, gdp_rank, influence_score.

LOSS CONDITIONS (must avoid):
- Economic collapse: large GDP contraction or very low GDP per capita vs peers.
- Social breakdown: trust_gov < 0.2 OR social_tension > 0.8.
- Strategic weakness: security_margin < 1.0 while neighbors are hostile or rearming.
- Resource trap: very low reserve_years for key resources for several years in a row.
Do NOT choose policies that satisfy short-term goals but clearly push you toward these.

BEHAVIORAL HETEROGENEITY (must obey):
- Use your own regime_type, culture and alliance_block to shape policy.
  * High PDI & low IDV & Autocracy: state-directed investment, focus on security_margin.
  * Low PDI & high IDV & Democracy: avoid large tax/military shocks, prioritize welfare.
  * High MAS: more comfortable with military_spending and competitive moves.
  * High self-expression: more willing to adopt strong climate_policy.
- Countries with different income, culture, climate_risk and emissions must not all
  choose the same mix.

CLIMATE POLICY AS RISK MANAGEMENT (not a moral goal):
- Prefer stronger climate_policy only when emissions and climate_risk are high AND you
  are relatively rich and stable AND your culture/regime supports it.
- Prefer weak or no climate_policy when poor, fragile, or under acute security threats.

COERCION & SECURITY ACTIONS (use sparingly but decisively):
- If a neighbor's conflict_level >= 0.45 AND trust <= 0.35, consider at least one
  coercive tool (sanction, trade_restriction, or security_action).
- Escalation ladder: military_exercise at conflict 0.35-0.55; arms_buildup when
  security_margin < 1.1; border_incident only above conflict 0.60 with trust < 0.30;
  conflict only above 0.80 with trust < 0.15 and security_margin > 1.2.
- Sanctions are INTENT signals; political dynamics filter them before they apply.

HEURISTICS (guidance only):
- Low reserve_years -> secure imports or invest in production capacity.
- High debt_stress -> limit borrowing and avoid big new spending.
- Low gdp_share or influence_score -> expand trade and invest in growth.
- Avoid swings that push trust_gov below 0.2 or tension above 0.8.

You must output ONLY the JSON object following the schema below.

CURRENT STATE:
%s

%s`

const schemaHint = `You MUST output a single JSON object with this structure:
{
  "agent_id": "C01",
  "time": 0,
  "domestic_policy": {
    "tax_fuel_change": 0.0,
    "social_spending_change": 0.0,
    "military_spending_change": 0.0,
    "rd_investment_change": 0.0,
    "climate_policy": "none"
  },
  "foreign_policy": {
    "proposed_trade_deals": [
      {"partner": "C02", "resource": "energy", "direction": "import",
       "volume_change": 10.0, "price_preference": "fair"}
    ],
    "sanctions_actions": [],
    "trade_restrictions": [
      {"target": "C03", "level": "soft", "reason": "domestic protectionism"}
    ],
    "security_actions": {"type": "none", "target": null}
  },
  "finance": {
    "borrow_from_global_markets": 0.0,
    "use_fx_reserves_change": 0.0
  },
  "explanation": ""
}
NUMERIC GUARDRAILS (hard constraints):
- tax_fuel_change: [-1.5, +1.5]
- social_spending_change: [-0.015, +0.020]
- military_spending_change: [-0.010, +0.015]
- rd_investment_change: [-0.002, +0.008]
- each trade deal volume_change: [0, 50]
- trade_restrictions level: none|soft|hard (max 2 entries)
Use small, incremental changes. Avoid extreme one-step shocks.
The observation's "competitive" and "memory" fields summarize your relative
position and recent trajectory; use them for medium-term planning.`

// External asks a chat-completions endpoint for each agent's decision.
type External struct {
	apiKey     string
	params     config.LLMParams
	httpClient *http.Client
	logger     *slog.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewExternal builds the external provider with a timeout-bound HTTP client.
func NewExternal(apiKey string, p config.LLMParams, logger *slog.Logger) *External {
	return &External{
		apiKey: apiKey,
		params: p,
		httpClient: &http.Client{
			Timeout: time.Duration(p.TimeoutSec * float64(time.Second)),
		},
		logger: logger,
	}
}

// Decide prompts the model with the observation and parses the returned
// action. Transport and parse failures surface as errors so the caller can
// fall back per agent.
func (e *External) Decide(ctx context.Context, obs world.Observation) (*world.Action, error) {
	obsJSON, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("marshal observation: %w", err)
	}
	prompt := fmt.Sprintf(promptTemplate, obsJSON, schemaHint)

	raw, err := backoff.Retry(ctx, func() (string, error) {
		return e.complete(ctx, prompt)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(e.params.MaxRetries+1)),
	)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}

	act, err := parseAction(raw)
	if err != nil {
		return nil, fmt.Errorf("llm output for %s: %w", obs.AgentID, err)
	}
	act.AgentID = obs.AgentID
	act.Time = obs.Time
	actions.Normalize(act)
	return act, nil
}

func (e *External) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: e.params.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: e.params.Temperature,
		MaxTokens:   e.params.MaxTokens,
	})
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.params.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("llm http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// parseAction extracts the outermost JSON object from the model output and
// decodes it. Models sometimes wrap the object in prose or code fences.
func parseAction(raw string) (*world.Action, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object found in output")
	}
	var act world.Action
	if err := json.Unmarshal([]byte(raw[start:end+1]), &act); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return &act, nil
}

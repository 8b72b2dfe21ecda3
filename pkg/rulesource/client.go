package rulesource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/gorulesync/internal/logging"
	"github.com/yaklabco/gorulesync/pkg/ruleset"
)

// DefaultTimeout bounds each HTTP request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

const (
	tokenHeader      = "X-Api-Token"
	userAgent        = "gorulesync"
	maxErrorBodySize = 512
)

// Client errors.
var (
	// ErrNoEndpoint is returned by NewClient when an endpoint URL is missing.
	ErrNoEndpoint = errors.New("rule source endpoint not configured")

	// ErrGraphQL wraps errors reported in a GraphQL response body.
	ErrGraphQL = errors.New("graphql error")
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// GraphQLURL is the endpoint serving ruleset queries.
	GraphQLURL string

	// AnalysisURL is the endpoint running analyses.
	AnalysisURL string

	// Token is the API token sent with every request.
	Token string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Retry configures retries of transient failures.
	Retry RetryConfig

	// HTTPClient overrides the HTTP client (mainly for tests).
	HTTPClient *http.Client

	// Logger receives request diagnostics. Defaults to logging.Default().
	Logger *log.Logger
}

// Client talks to the remote rule service over HTTP.
type Client struct {
	opts   ClientOptions
	http   *http.Client
	logger *log.Logger
}

// Compile-time interface check.
var _ Source = (*Client)(nil)

// NewClient creates a Client. It returns ErrNoCredentials when no token is
// set and ErrNoEndpoint when either endpoint URL is missing.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, ErrNoCredentials
	}
	if opts.GraphQLURL == "" || opts.AnalysisURL == "" {
		return nil, ErrNoEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		opts:   opts,
		http:   httpClient,
		logger: logger.WithPrefix("rulesource"),
	}, nil
}

// NewProvider returns a Provider building a Client from opts on each call.
func NewProvider(opts ClientOptions) Provider {
	return func() (Source, error) {
		client, err := NewClient(opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

const rulesetsQuery = `query getRulesetsForClient($names: [String!]!) {
  ruleSetsForClient(names: $names) {
    id
    name
    rules {
      id
      name
      content
      ruleType
      language
      pattern
      elementChecked
      variables
      description
    }
  }
}`

const timestampQuery = `query getRulesetsLastUpdatedTimestamp($names: [String!]!) {
  ruleSetsLastUpdatedTimestamp(names: $names)
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type wireRule struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Content        string            `json:"content"`
	RuleType       string            `json:"ruleType"`
	Language       string            `json:"language"`
	Pattern        string            `json:"pattern"`
	ElementChecked string            `json:"elementChecked"`
	Variables      map[string]string `json:"variables"`
	Description    string            `json:"description"`
}

type wireRuleset struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Rules []wireRule `json:"rules"`
}

type rulesetsData struct {
	RuleSets []wireRuleset `json:"ruleSetsForClient"`
}

type timestampData struct {
	Timestamp json.Number `json:"ruleSetsLastUpdatedTimestamp"`
}

// Rulesets implements Source.
func (c *Client) Rulesets(ctx context.Context, names []string) ([]ruleset.Ruleset, error) {
	data, err := graphQL[rulesetsData](ctx, c, rulesetsQuery, map[string]any{"names": names})
	if err != nil {
		return nil, fmt.Errorf("fetch rulesets: %w", err)
	}

	rulesets := make([]ruleset.Ruleset, 0, len(data.RuleSets))
	for _, wire := range data.RuleSets {
		rulesets = append(rulesets, wire.toRuleset())
	}
	return rulesets, nil
}

// RulesetsTimestamp implements Source.
func (c *Client) RulesetsTimestamp(ctx context.Context, names []string) (int64, error) {
	data, err := graphQL[timestampData](ctx, c, timestampQuery, map[string]any{"names": names})
	if err != nil {
		return 0, fmt.Errorf("fetch rulesets timestamp: %w", err)
	}

	ts, err := data.Timestamp.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse rulesets timestamp %q: %w", data.Timestamp, err)
	}
	return ts, nil
}

// Analyze implements Source.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	var resp AnalysisResponse
	if err := c.post(ctx, c.opts.AnalysisURL, req, &resp); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.Filename, err)
	}
	return &resp, nil
}

// graphQL runs a query and returns its data, failing on any reported error.
func graphQL[T any](ctx context.Context, c *Client, query string, variables map[string]any) (T, error) {
	var resp graphQLResponse[T]
	if err := c.post(ctx, c.opts.GraphQLURL, graphQLRequest{Query: query, Variables: variables}, &resp); err != nil {
		return resp.Data, err
	}
	if len(resp.Errors) > 0 {
		return resp.Data, fmt.Errorf("%w: %s", ErrGraphQL, resp.Errors[0].Message)
	}
	return resp.Data, nil
}

// post sends body as JSON to url and decodes the JSON answer into out.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	respBody, err := withRetry(ctx, c.opts.Retry, func() ([]byte, error) {
		return c.do(ctx, url, payload)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(tokenHeader, c.opts.Token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("request completed",
		logging.FieldURL, url,
		logging.FieldStatus, resp.StatusCode,
		logging.FieldDuration, time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := strings.TrimSpace(string(data))
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	return data, nil
}

func (w wireRuleset) toRuleset() ruleset.Ruleset {
	rules := make([]ruleset.Rule, 0, len(w.Rules))
	for _, rule := range w.Rules {
		rules = append(rules, ruleset.Rule{
			ID:            ruleset.RuleID(w.Name, rule.Name),
			Name:          rule.Name,
			Language:      ruleset.ParseLanguage(rule.Language),
			Content:       rule.Content,
			Type:          parseRuleType(rule.RuleType),
			EntityChecked: ruleset.EntityChecked(kebabCase(rule.ElementChecked)),
			Pattern:       rule.Pattern,
			Variables:     rule.Variables,
			Description:   rule.Description,
		})
	}
	return ruleset.Ruleset{ID: w.ID, Name: w.Name, Rules: rules}
}

// kebabCase turns "FunctionCall" or "FUNCTION_CALL" into "function-call".
func kebabCase(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		switch {
		case r == '_' || r == ' ':
			b.WriteByte('-')
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		prev = r
	}
	return b.String()
}

func parseRuleType(s string) ruleset.RuleType {
	if strings.EqualFold(s, string(ruleset.RuleTypePattern)) {
		return ruleset.RuleTypePattern
	}
	return ruleset.RuleTypeAST
}

package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/edgard/helpdeskbot/internal/config"
	"github.com/edgard/helpdeskbot/internal/errs"
	"github.com/edgard/helpdeskbot/internal/resilience"
)

const (
	botFrameworkScope  = "https://api.botframework.com/.default"
	defaultTokenTenant = "botframework.com"
	tokenURLFormat     = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// Connector sends activities back through the Bot Framework connector service.
type Connector interface {
	SendActivity(ctx context.Context, serviceURL string, a *Activity) error
	Member(ctx context.Context, serviceURL, conversationID, userID string) (*TeamsChannelAccount, error)
}

// ConnectorClient is the REST implementation of Connector.
type ConnectorClient struct {
	httpClient *http.Client
	policy     resilience.Policy
	log        *slog.Logger
}

// NewConnector creates a connector client. Outbound calls carry a bot token
// obtained with the client-credentials grant unless SkipAuth is set.
func NewConnector(ctx context.Context, cfg config.TeamsConfig, log *slog.Logger) *ConnectorClient {
	httpClient := &http.Client{}
	if !cfg.SkipAuth {
		tenant := cfg.TenantID
		if tenant == "" {
			tenant = defaultTokenTenant
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			TokenURL:     fmt.Sprintf(tokenURLFormat, tenant),
			Scopes:       []string{botFrameworkScope},
		}
		httpClient = cc.Client(ctx)
	}
	return newConnector(httpClient, cfg.ReplyTimeout, log)
}

func newConnector(httpClient *http.Client, timeout time.Duration, log *slog.Logger) *ConnectorClient {
	return &ConnectorClient{
		httpClient: httpClient,
		policy: resilience.Policy{
			Attempts:  2,
			Delay:     300 * time.Millisecond,
			Timeout:   timeout,
			Retryable: retryable,
		},
		log: log.With("component", "teams_connector"),
	}
}

// SendActivity posts a as a reply to a.ReplyToID, or as a new message in the
// conversation when there is nothing to reply to.
func (c *ConnectorClient) SendActivity(ctx context.Context, serviceURL string, a *Activity) error {
	path := "/v3/conversations/" + url.PathEscape(a.Conversation.ID) + "/activities"
	if a.ReplyToID != "" {
		path += "/" + url.PathEscape(a.ReplyToID)
	}

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	err = c.do(ctx, "send_activity", http.MethodPost, joinURL(serviceURL, path), body, nil)
	if err != nil {
		return fmt.Errorf("send activity to conversation %s: %w", a.Conversation.ID, err)
	}
	return nil
}

// Member fetches a conversation member, which in Teams includes the email address.
func (c *ConnectorClient) Member(ctx context.Context, serviceURL, conversationID, userID string) (*TeamsChannelAccount, error) {
	path := "/v3/conversations/" + url.PathEscape(conversationID) + "/members/" + url.PathEscape(userID)

	var member TeamsChannelAccount
	if err := c.do(ctx, "get_member", http.MethodGet, joinURL(serviceURL, path), nil, &member); err != nil {
		return nil, fmt.Errorf("get member %s: %w", userID, err)
	}
	return &member, nil
}

func (c *ConnectorClient) do(ctx context.Context, op, method, target string, payload []byte, out any) error {
	policy := c.policy
	policy.Name = "teams:" + op
	_, err := resilience.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, method, target, payload, out)
	})
	if err != nil {
		c.log.WarnContext(ctx, "Connector call failed", "operation", op, "error", err)
	}
	return err
}

func (c *ConnectorClient) send(ctx context.Context, method, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewAPIError(fmt.Sprintf("connector %s", method), 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.NewAPIError("connector: read body", 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.NewAPIError(
			fmt.Sprintf("connector %s returned %d: %s", method, resp.StatusCode, strings.TrimSpace(string(data))),
			resp.StatusCode, nil)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode connector response: %w", err)
		}
	}
	return nil
}

func retryable(err error) bool {
	if !errs.Is(err, errs.CodeAPI) {
		return false
	}
	status := errs.Status(err)
	return status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/BuzzLyutic/task-sync-api/internal/config"
	"github.com/BuzzLyutic/task-sync-api/internal/model"
)

const (
	graphBaseURL    = "https://graph.microsoft.com/v1.0"
	graphTimeLayout = "2006-01-02T15:04:05"
)

// OutlookProvider синхронизирует задачи с Outlook Calendar через Microsoft Graph
type OutlookProvider struct {
	baseURL    string
	httpClient *http.Client // nil = провайдер выключен
}

func NewOutlookProvider(cfg config.OutlookConfig, logger *zap.Logger) *OutlookProvider {
	if !cfg.Complete() {
		logger.Warn("Outlook Calendar credentials not found, sync disabled")
		return &OutlookProvider{baseURL: graphBaseURL}
	}

	ctx := context.Background()
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     microsoft.AzureADEndpoint(cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/Calendars.ReadWrite", "offline_access"},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	client := oauth2.NewClient(ctx, ts)
	client.Timeout = 10 * time.Second

	return &OutlookProvider{baseURL: graphBaseURL, httpClient: client}
}

// Типы Microsoft Graph, только используемые поля
type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphEvent struct {
	Subject string        `json:"subject"`
	Body    graphItemBody `json:"body"`
	Start   graphDateTime `json:"start"`
	End     graphDateTime `json:"end"`
}

type graphEventResponse struct {
	ID string `json:"id"`
}

type graphErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OutlookProvider) Name() string {
	return "Outlook Calendar"
}

func (p *OutlookProvider) IsInitialized() bool {
	return p.httpClient != nil
}

func (p *OutlookProvider) CreateEvent(ctx context.Context, t model.Task) (string, error) {
	if p.httpClient == nil {
		return "", ErrNotInitialized
	}

	var created graphEventResponse
	if err := p.do(ctx, http.MethodPost, "/me/events", outlookEvent(t), &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (p *OutlookProvider) UpdateEvent(ctx context.Context, eventID string, t model.Task) error {
	if p.httpClient == nil {
		return ErrNotInitialized
	}
	return p.do(ctx, http.MethodPatch, "/me/events/"+eventID, outlookEvent(t), nil)
}

func (p *OutlookProvider) DeleteEvent(ctx context.Context, eventID string) error {
	if p.httpClient == nil {
		return ErrNotInitialized
	}
	return p.do(ctx, http.MethodDelete, "/me/events/"+eventID, nil, nil)
}

func (p *OutlookProvider) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return graphError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode graph response: %w", err)
		}
	}
	return nil
}

func graphError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graph error status: %d", resp.StatusCode)
	}

	var graphErr graphErrorResponse
	if err := json.Unmarshal(data, &graphErr); err != nil || graphErr.Error.Message == "" {
		return fmt.Errorf("graph error status: %d", resp.StatusCode)
	}
	return fmt.Errorf("graph error %s: %s", graphErr.Error.Code, graphErr.Error.Message)
}

// outlookEvent собирает событие: час от dueDate, либо ближайший час от "сейчас"
func outlookEvent(t model.Task) graphEvent {
	start := time.Now().UTC()
	if t.DueDate != nil {
		start = t.DueDate.UTC()
	}

	return graphEvent{
		Subject: t.Title,
		Body: graphItemBody{
			ContentType: "Text",
			Content:     descriptionOrEmpty(t),
		},
		Start: graphDateTime{DateTime: start.Format(graphTimeLayout), TimeZone: "UTC"},
		End:   graphDateTime{DateTime: start.Add(time.Hour).Format(graphTimeLayout), TimeZone: "UTC"},
	}
}

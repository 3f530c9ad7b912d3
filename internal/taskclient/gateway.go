package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chepyr/go-task-board/internal/models"
)

// GatewayError carries the message the gateway returned for a failed create.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// GatewayClient creates tasks through the create-task gateway.
type GatewayClient struct {
	url        string
	httpClient *http.Client
}

func NewGatewayClient(url string, httpClient *http.Client) *GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GatewayClient{url: url, httpClient: httpClient}
}

func (g *GatewayClient) CreateTask(ctx context.Context, token string, req models.CreateTaskRequest) (models.Task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Task{}, fmt.Errorf("encode task: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return models.Task{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return models.Task{}, fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("gateway returned %d", resp.StatusCode)
		}
		return models.Task{}, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	var task models.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return models.Task{}, fmt.Errorf("decode task: %w", err)
	}
	return task, nil
}

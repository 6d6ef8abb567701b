package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"
)

// Client talks to the feed server's HTTP API. It implements both
// Provider and SessionProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	token   string
	profile Profile
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Profile() Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// Refresh re-reads the user stats into the cached profile.
func (c *Client) Refresh(ctx context.Context) error {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/user/stats", nil, &p); err != nil {
		return err
	}
	c.mu.Lock()
	c.profile = p
	c.mu.Unlock()
	return nil
}

// DevLogin obtains a development session token and stores it on the client.
func (c *Client) DevLogin(ctx context.Context) error {
	var resp struct {
		SessionToken string `json:"session_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/dev-login", nil, &resp); err != nil {
		return err
	}
	if resp.SessionToken == "" {
		return fmt.Errorf("dev login returned empty session token")
	}
	c.mu.Lock()
	c.token = resp.SessionToken
	c.mu.Unlock()
	return nil
}

func (c *Client) FetchBatch(ctx context.Context, offset, limit int) ([]Playable, error) {
	var items []Playable
	path := fmt.Sprintf("/api/playables/feed?skip=%d&limit=%d", offset, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, itemID, answer string) (AnswerResult, error) {
	body := map[string]string{"answer": answer}
	var res AnswerResult
	path := fmt.Sprintf("/api/playables/%s/answer", itemID)
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return AnswerResult{}, err
	}
	return res, nil
}

func (c *Client) SubmitGuess(ctx context.Context, itemID, answer string, hintNumber int) (GuessResult, error) {
	body := map[string]interface{}{
		"answer":      answer,
		"hint_number": hintNumber,
	}
	var res GuessResult
	path := fmt.Sprintf("/api/playables/%s/guess", itemID)
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return GuessResult{}, err
	}
	return res, nil
}

func (c *Client) SubmitChessResult(ctx context.Context, itemID string, solved bool, movesUsed int) (ChessResult, error) {
	body := map[string]interface{}{
		"solved":     solved,
		"moves_used": movesUsed,
	}
	var res ChessResult
	path := fmt.Sprintf("/api/playables/%s/chess-result", itemID)
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return ChessResult{}, err
	}
	return res, nil
}

func (c *Client) Skip(ctx context.Context, itemID string) error {
	path := fmt.Sprintf("/api/playables/%s/skip", itemID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := ioutil.ReadAll(resp.Body)
		return fmt.Errorf("feed server returned %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

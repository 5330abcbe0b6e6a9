package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NaimTheDev/devvit-trip-spin/internal/domain"
	"github.com/NaimTheDev/devvit-trip-spin/internal/ports"
)

// Credentials authenticate a script app for posting.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Username != "" && c.Password != ""
}

// Client implements ports.CommunitySource and ports.Publisher against the Reddit API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	oauthURL   string
	userAgent  string
	creds      Credentials
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(httpClient *http.Client, baseURL, oauthURL, userAgent string, creds Credentials, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		oauthURL:   strings.TrimRight(oauthURL, "/"),
		userAgent:  userAgent,
		creds:      creds,
		logger:     logger,
		now:        time.Now,
	}
}

// CanSubmit reports whether the client is configured to publish posts.
func (c *Client) CanSubmit() bool {
	return c.creds.Complete()
}

func (c *Client) LookupSubreddit(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrSubredditNotFound
	}

	var about struct {
		Kind string `json:"kind"`
		Data struct {
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/r/"+url.PathEscape(name)+"/about.json", nil, &about); err != nil {
		return "", err
	}
	if about.Kind != "t5" || about.Data.DisplayName == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrSubredditNotFound, name)
	}
	return about.Data.DisplayName, nil
}

func (c *Client) HotPosts(ctx context.Context, subreddit string, limit int) ([]domain.ItineraryPost, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")

	var l listing
	if err := c.getJSON(ctx, "/r/"+url.PathEscape(subreddit)+"/hot.json", q, &l); err != nil {
		return nil, err
	}

	now := c.now()
	records := decodeChildren(l, "t3")
	posts := make([]domain.ItineraryPost, 0, len(records))
	for _, r := range records {
		posts = append(posts, toPost(r, now))
		if len(posts) == limit {
			break
		}
	}
	return posts, nil
}

func (c *Client) Comments(ctx context.Context, postID string, limit int) ([]domain.ItineraryComment, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("depth", "1")
	q.Set("raw_json", "1")

	// The response is [post listing, comment listing].
	var listings []listing
	if err := c.getJSON(ctx, "/comments/"+url.PathEscape(strings.TrimPrefix(postID, "t3_"))+".json", q, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return []domain.ItineraryComment{}, nil
	}

	now := c.now()
	records := decodeChildren(listings[1], "t1")
	comments := make([]domain.ItineraryComment, 0, len(records))
	for _, r := range records {
		comments = append(comments, toComment(r, now))
		if len(comments) == limit {
			break
		}
	}
	return comments, nil
}

func (c *Client) Submit(ctx context.Context, in ports.SubmitInput) (string, error) {
	if !c.CanSubmit() {
		return "", domain.ErrSharingDisabled
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("kind", "self")
	form.Set("sr", in.Subreddit)
	form.Set("title", in.Title)
	form.Set("text", in.Text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	var out struct {
		JSON struct {
			Errors [][]any `json:"errors"`
			Data   struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if len(out.JSON.Errors) > 0 {
		return "", fmt.Errorf("%w: submit rejected: %v", domain.ErrUpstreamCommunity, out.JSON.Errors[0])
	}
	id := out.JSON.Data.ID
	if id == "" {
		id = strings.TrimPrefix(out.JSON.Data.Name, "t3_")
	}
	if id == "" {
		return "", fmt.Errorf("%w: submit returned no post id", domain.ErrUpstreamCommunity)
	}
	return id, nil
}

// accessToken returns a cached password-grant token, refreshing it shortly before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := c.do(req, &tok); err != nil {
		return "", fmt.Errorf("access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: access token: %s", domain.ErrUpstreamCommunity, tok.Error)
	}

	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http call: %w", domain.ErrUpstreamCommunity, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrUpstreamCommunity, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		// Banned, private and missing communities all end up here.
		return fmt.Errorf("%w: %s", domain.ErrSubredditNotFound, req.URL.Path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: upstream status %d: %s", domain.ErrUpstreamCommunity, resp.StatusCode, truncateBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrUpstreamCommunity, err)
	}
	return nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

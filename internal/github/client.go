// Package github is a small client for the public GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"ghexplorer/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "GitHub-Explorer-Bot/2.0"
	DefaultTimeout   = 8 * time.Second
	DefaultRetries   = 2

	acceptHeader = "application/vnd.github.v3+json"
	maxBodyBytes = 8 << 20
	listPageSize = 100
	// listMaxPages caps full list fetches at 1000 entries
	listMaxPages = 10
)

// Config configures a Client. Zero values take the defaults above.
type Config struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RatePerSecond limits outgoing requests; zero disables the limiter
	RatePerSecond float64
	// InitialBackoff is the first retry delay
	InitialBackoff time.Duration
	HTTPClient     *http.Client
}

// Client talks to the GitHub REST API. Identical concurrent GETs are
// collapsed into one request.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *zap.Logger
}

// NewClient creates a GitHub client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(cfg.RatePerSecond)+1)
	}

	if cfg.Token == "" {
		logger.Warn("No GitHub token configured, requests are limited to 60 per hour")
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

func (c *Client) GetUser(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, &Error{Kind: KindNotFound, Op: "get user", Err: errors.New("empty username")}
	}
	var u User
	if err := c.get(ctx, "get user", "/users/"+url.PathEscape(login), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	path, err := repoPath("get repository", fullName)
	if err != nil {
		return nil, err
	}
	var r Repository
	if err := c.get(ctx, "get repository", path, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListUserRepos returns all public repositories of a user, most recently
// updated first
func (c *Client) ListUserRepos(ctx context.Context, login string) ([]Repository, error) {
	params := url.Values{"sort": {"updated"}, "direction": {"desc"}}
	return listAll[Repository](ctx, c, "list repos", "/users/"+url.PathEscape(login)+"/repos", params)
}

func (c *Client) ListStarred(ctx context.Context, login string) ([]Repository, error) {
	return listAll[Repository](ctx, c, "list starred", "/users/"+url.PathEscape(login)+"/starred", nil)
}

func (c *Client) ListFollowers(ctx context.Context, login string) ([]Account, error) {
	return listAll[Account](ctx, c, "list followers", "/users/"+url.PathEscape(login)+"/followers", nil)
}

func (c *Client) ListFollowing(ctx context.Context, login string) ([]Account, error) {
	return listAll[Account](ctx, c, "list following", "/users/"+url.PathEscape(login)+"/following", nil)
}

// ListUserEvents returns up to limit recent public events
func (c *Client) ListUserEvents(ctx context.Context, login string, limit int) ([]Event, error) {
	var events []Event
	params := url.Values{"per_page": {perPage(limit)}}
	err := c.get(ctx, "list events", "/users/"+url.PathEscape(login)+"/events/public", params, &events)
	return events, err
}

func (c *Client) ListContributors(ctx context.Context, fullName string, limit int) ([]Contributor, error) {
	path, err := repoPath("list contributors", fullName)
	if err != nil {
		return nil, err
	}
	var out []Contributor
	err = c.get(ctx, "list contributors", path+"/contributors", url.Values{"per_page": {perPage(limit)}}, &out)
	return out, err
}

func (c *Client) ListReleases(ctx context.Context, fullName string, limit int) ([]Release, error) {
	path, err := repoPath("list releases", fullName)
	if err != nil {
		return nil, err
	}
	var out []Release
	err = c.get(ctx, "list releases", path+"/releases", url.Values{"per_page": {perPage(limit)}}, &out)
	return out, err
}

// ListIssues returns open issues, excluding pull requests
func (c *Client) ListIssues(ctx context.Context, fullName string, limit int) ([]Issue, error) {
	path, err := repoPath("list issues", fullName)
	if err != nil {
		return nil, err
	}
	var all []Issue
	if err := c.get(ctx, "list issues", path+"/issues", openParams(limit), &all); err != nil {
		return nil, err
	}
	issues := all[:0]
	for _, is := range all {
		if is.PullRequest == nil {
			issues = append(issues, is)
		}
	}
	return issues, nil
}

func (c *Client) ListPulls(ctx context.Context, fullName string, limit int) ([]PullRequest, error) {
	path, err := repoPath("list pulls", fullName)
	if err != nil {
		return nil, err
	}
	var out []PullRequest
	err = c.get(ctx, "list pulls", path+"/pulls", openParams(limit), &out)
	return out, err
}

// Languages returns the language breakdown sorted by size, largest first
func (c *Client) Languages(ctx context.Context, fullName string) ([]Language, error) {
	path, err := repoPath("languages", fullName)
	if err != nil {
		return nil, err
	}
	var raw map[string]int64
	if err := c.get(ctx, "languages", path+"/languages", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]Language, 0, len(raw))
	for name, n := range raw {
		out = append(out, Language{Name: name, Bytes: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Readme returns the decoded README of a repository
func (c *Client) Readme(ctx context.Context, fullName string) (string, error) {
	path, err := repoPath("readme", fullName)
	if err != nil {
		return "", err
	}
	var r readme
	if err := c.get(ctx, "readme", path+"/readme", nil, &r); err != nil {
		return "", err
	}
	if r.Encoding != "" && r.Encoding != "base64" {
		return r.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
	if err != nil {
		return "", &Error{Kind: KindUnknown, Op: "readme", Err: fmt.Errorf("decode content: %w", err)}
	}
	return string(decoded), nil
}

// SearchRepositories runs a repository search ordered by sort, descending
func (c *Client) SearchRepositories(ctx context.Context, query, sortBy string, limit int) ([]Repository, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if sortBy == "" {
		sortBy = "stars"
	}
	params := url.Values{
		"q":        {query},
		"sort":     {sortBy},
		"order":    {"desc"},
		"per_page": {perPage(limit)},
	}
	var res searchResult
	if err := c.get(ctx, "search repositories", "/search/repositories", params, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func listAll[T any](ctx context.Context, c *Client, op, path string, params url.Values) ([]T, error) {
	var out []T
	for page := 1; page <= listMaxPages; page++ {
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("per_page", strconv.Itoa(listPageSize))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.get(ctx, op, path, q, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < listPageSize {
			break
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	v, err, shared := c.group.Do(u, func() (any, error) {
		return c.fetch(ctx, op, u)
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.Debug("GitHub request shared", zap.String("url", u))
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// fetch performs a GET with retries on network errors and 5xx responses
func (c *Client) fetch(ctx context.Context, op, u string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&Error{Kind: KindNetwork, Op: op, Err: err})
		}
		b, err := c.do(ctx, op, u)
		if err != nil {
			var ge *Error
			if errors.As(err, &ge) && !ge.retryable() {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.InitialBackoff
	eb.Multiplier = 2
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.cfg.MaxRetries)), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		c.logger.Warn("GitHub request failed, retrying",
			zap.String("op", op),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		var ge *Error
		if !errors.As(err, &ge) {
			err = &Error{Kind: KindNetwork, Op: op, Err: err}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "token "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GitHubRequestDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GitHubRequestsTotal.WithLabelValues("error").Inc()
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.GitHubRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return body, nil
	case code == http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Op: op, Status: code, Err: errors.New("resource not found")}
	case code == http.StatusTooManyRequests,
		code == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		c.logger.Warn("GitHub rate limit exceeded",
			zap.String("op", op),
			zap.String("reset", resp.Header.Get("X-RateLimit-Reset")),
		)
		return nil, &Error{Kind: KindRateLimited, Op: op, Status: code, Err: errors.New("rate limit exceeded")}
	case code == http.StatusUnauthorized:
		return nil, &Error{Kind: KindUnknown, Op: op, Status: code, Err: errors.New("unauthorized, check the GitHub token")}
	case code == http.StatusForbidden:
		return nil, &Error{Kind: KindUnknown, Op: op, Status: code, Err: errors.New("access denied")}
	default:
		return nil, &Error{Kind: KindUnknown, Op: op, Status: code, Err: fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body)))}
	}
}

func repoPath(op, fullName string) (string, error) {
	name, ok := CleanRepoName(fullName)
	if !ok {
		return "", &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("invalid repository name %q", fullName)}
	}
	owner, repo, _ := strings.Cut(name, "/")
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo), nil
}

func perPage(limit int) string {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return strconv.Itoa(limit)
}

func openParams(limit int) url.Values {
	return url.Values{
		"state":     {"open"},
		"sort":      {"updated"},
		"direction": {"desc"},
		"per_page":  {perPage(limit)},
	}
}

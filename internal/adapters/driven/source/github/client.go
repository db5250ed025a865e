package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/logger"
	"github.com/custodia-labs/sercha-chat/internal/retry"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client. Every call is throttled and retried.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
	policy      domain.RetryPolicy
	sleep       retry.SleepFunc
}

// NewClient creates a GitHub API client. An empty token makes
// unauthenticated requests; baseURL overrides https://api.github.com/.
func NewClient(token, baseURL string, perSecond float64, policy domain.RetryPolicy) (*Client, error) {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = DefaultTimeout
	}

	client := gh.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: github base url: %v", domain.ErrInvalidInput, err)
		}
		client.BaseURL = u
	}

	return &Client{
		gh:          client,
		rateLimiter: NewRateLimiter(perSecond),
		policy:      policy,
		sleep:       retry.Sleep,
	}, nil
}

// GetRepository fetches a single repository.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	return call(ctx, c, "get repo", func(ctx context.Context) (*gh.Repository, *gh.Response, error) {
		return c.gh.Repositories.Get(ctx, owner, repo)
	})
}

// GetTree fetches the entire tree for a ref recursively.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error) {
	return call(ctx, c, "get tree", func(ctx context.Context) (*gh.Tree, *gh.Response, error) {
		return c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	})
}

// GetBlobContent fetches a blob and decodes it.
func (c *Client) GetBlobContent(ctx context.Context, owner, repo, sha string) (string, error) {
	blob, err := call(ctx, c, "get blob", func(ctx context.Context) (*gh.Blob, *gh.Response, error) {
		return c.gh.Git.GetBlob(ctx, owner, repo, sha)
	})
	if err != nil {
		return "", err
	}

	if blob.GetEncoding() != "base64" {
		return blob.GetContent(), nil
	}
	// Remove any whitespace from base64 content
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.GetContent(), "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode blob %s: %w", sha, err)
	}
	return string(decoded), nil
}

// call runs one API request under the rate limiter and retry policy.
func call[T any](
	ctx context.Context, c *Client, op string, fn func(context.Context) (T, *gh.Response, error),
) (T, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return zero, err
		}

		result, resp, err := fn(ctx)
		if resp != nil {
			c.rateLimiter.UpdateFromResponse(resp.Response)
		}
		if err != nil {
			return zero, wrapError(err, op)
		}
		return result, nil
	},
		retry.WithSleep(c.sleep),
		retry.WithObserver(func(a retry.Attempt) {
			logger.Warn("Retrying github %s (attempt %d) in %s: %v", op, a.Number+1, a.Delay, a.Err)
		}),
	)
}

// wrapError converts go-github errors to domain.RemoteError.
func wrapError(err error, op string) error {
	op = "github " + op

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Rate limits are retryable whatever status GitHub used
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &domain.RemoteError{
			Op:         op,
			StatusCode: http.StatusTooManyRequests,
			Message:    rateLimitErr.Message,
			Err:        domain.ErrRateLimited,
		}
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &domain.RemoteError{
			Op:         op,
			StatusCode: http.StatusTooManyRequests,
			Message:    abuseErr.Message,
			Err:        domain.ErrRateLimited,
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &domain.RemoteError{
			Op:         op,
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			Err:        err,
		}
	}

	return &domain.RemoteError{Op: op, Err: err}
}

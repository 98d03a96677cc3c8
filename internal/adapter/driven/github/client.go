// Package github implements the CodeHost port using the go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CodeHost = (*Client)(nil)

// Client implements the driven.CodeHost port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ResolveSubject fetches pull request metadata for registration.
func (c *Client) ResolveSubject(ctx context.Context, repoFullName string, number int) (*model.Subject, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s#%d: %w", repoFullName, number, err)
	}

	return &model.Subject{
		RepoFullName: repoFullName,
		Number:       number,
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		HeadSHA:      pr.GetHead().GetSHA(),
		URL:          pr.GetHTMLURL(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		RegisteredAt: time.Now().UTC(),
	}, nil
}

// FetchPatch returns the unified patch of the pull request's changed files,
// concatenated in API order. It handles pagination automatically.
func (c *Client) FetchPatch(ctx context.Context, repoFullName string, number int) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var sb strings.Builder

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return "", fmt.Errorf("listing files for %s#%d (page %d): %w", repoFullName, number, opts.Page, err)
		}

		for _, f := range files {
			// Binary files carry no patch; note them so the provider still
			// sees that they changed.
			fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", f.GetFilename(), f.GetFilename())
			if patch := f.GetPatch(); patch != "" {
				sb.WriteString(patch)
				if !strings.HasSuffix(patch, "\n") {
					sb.WriteString("\n")
				}
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return sb.String(), nil
}

// splitRepo splits "owner/repo" into its two parts.
func splitRepo(repoFullName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q: expected owner/repo", repoFullName)
	}
	return parts[0], parts[1], nil
}

// Package rest reads profiles, rankings and finished matches from the authority's HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

const (
	DefaultLeaderboardLimit = 10
	DefaultHistoryLimit     = 20

	requestTimeout = 10 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

type Client struct {
	logger  *slog.Logger
	baseURL string
	client  *fasthttp.Client
}

func NewClient(logger *slog.Logger, baseURL string) *Client {
	return &Client{
		logger:  logger.With("component", "rest"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         requestTimeout,
			WriteTimeout:        requestTimeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// NewClientWithDialer is used by tests to route requests to an in-memory listener.
func NewClientWithDialer(logger *slog.Logger, baseURL string, dial fasthttp.DialFunc) *Client {
	client := NewClient(logger, baseURL)
	client.client.Dial = dial

	return client
}

func (that *Client) FetchUser(ctx context.Context, userID string) (*entity.UserProfile, error) {
	return doRequest[entity.UserProfile](ctx, that, "/api/user/"+url.PathEscape(userID), nil)
}

func (that *Client) FetchLeaderboard(ctx context.Context, limit int) ([]entity.UserProfile, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	query := url.Values{"limit": {strconv.Itoa(limit)}}

	users, err := doRequest[[]entity.UserProfile](ctx, that, "/api/leaderboard", query)
	if err != nil {
		return nil, err
	}

	return *users, nil
}

func (that *Client) FetchMatchHistory(ctx context.Context, userID string, limit int) ([]entity.MatchHistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := url.Values{"limit": {strconv.Itoa(limit)}}

	history, err := doRequest[[]entity.MatchHistoryEntry](ctx, that, "/api/history/"+url.PathEscape(userID), query)
	if err != nil {
		return nil, err
	}

	return *history, nil
}

// FetchMatch returns a finished match including its move log.
func (that *Client) FetchMatch(ctx context.Context, matchID string) (*entity.MatchRecord, error) {
	return doRequest[entity.MatchRecord](ctx, that, "/api/match/"+url.PathEscape(matchID), nil)
}

func doRequest[T any](ctx context.Context, client *Client, path string, query url.Values) (*T, error) {
	log := client.logger.With("method", "doRequest", "path", path)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	uri := client.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(requestTimeout)
	}

	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		log.Error("request failed", "error", err)
		return nil, fmt.Errorf("failed to request %s: %w", path, err)
	}

	switch status := resp.StatusCode(); status {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotFound, path)
	default:
		log.Warn("unexpected status", "status", status)
		return nil, fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, status, path)
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return &result, nil
}

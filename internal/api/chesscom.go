package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"

	"chess-crawler/internal/config"
	"chess-crawler/internal/constants"
)

// ChessClient talks to the chess.com published-data API. All endpoints are
// unauthenticated GETs; the client paces requests, caches bodies for a short
// TTL and retries transient failures with Fibonacci backoff.
type ChessClient struct {
	baseURL   string
	userAgent string
	client    *fasthttp.Client
	cache     *responseCache
	delay     time.Duration

	paceMu   sync.Mutex
	lastSent time.Time
}

// FetchError is a non-2xx response. Permanent errors (deleted or never
// existing resources) are not retried.
type FetchError struct {
	URL        string
	StatusCode int
	Permanent  bool
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("API error: %d for %s", e.StatusCode, e.URL)
}

func NewChessClient(cfg *config.Config) *ChessClient {
	return &ChessClient{
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		userAgent: cfg.UserAgent,
		client: &fasthttp.Client{
			MaxConnsPerHost:     8,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		cache: newResponseCache(cfg.CacheTTL),
		delay: cfg.RequestDelay,
	}
}

// Profile fetches the public account record.
func (c *ChessClient) Profile(ctx context.Context, username string) (*PlayerResponse, error) {
	url := fmt.Sprintf("%s/pub/player/%s", c.baseURL, strings.ToLower(username))
	return doRequest[PlayerResponse](ctx, c, url)
}

// Stats fetches per-control ratings, records and puzzle results.
func (c *ChessClient) Stats(ctx context.Context, username string) (*StatsResponse, error) {
	url := fmt.Sprintf("%s/pub/player/%s/stats", c.baseURL, strings.ToLower(username))
	return doRequest[StatsResponse](ctx, c, url)
}

// Archives fetches the list of monthly game archive URLs, oldest first.
func (c *ChessClient) Archives(ctx context.Context, username string) (*ArchivesResponse, error) {
	url := fmt.Sprintf("%s/pub/player/%s/games/archives", c.baseURL, strings.ToLower(username))
	return doRequest[ArchivesResponse](ctx, c, url)
}

// MonthlyGames fetches one monthly archive by the URL the archives endpoint
// returned.
func (c *ChessClient) MonthlyGames(ctx context.Context, archiveURL string) (*GamesResponse, error) {
	return doRequest[GamesResponse](ctx, c, archiveURL)
}

func doRequest[T any](ctx context.Context, client *ChessClient, url string) (*T, error) {
	body, err := client.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return &result, nil
}

func (c *ChessClient) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.get(url); ok {
		return body, nil
	}

	var body []byte
	backoff := retry.WithMaxRetries(constants.FetchMaxRetries, retry.NewFibonacci(constants.FetchRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := c.send(ctx, url)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && fe.Permanent {
				return err
			}
			return retry.RetryableError(err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.put(url, body)
	return body, nil
}

func (c *ChessClient) send(ctx context.Context, url string) ([]byte, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.userAgent)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	switch sc := resp.StatusCode(); {
	case sc == fasthttp.StatusOK:
		// The response buffer is pooled, copy before release.
		return append([]byte(nil), resp.Body()...), nil
	case sc == fasthttp.StatusNotFound || sc == fasthttp.StatusGone:
		return nil, &FetchError{URL: url, StatusCode: sc, Permanent: true}
	case sc == fasthttp.StatusTooManyRequests || sc == fasthttp.StatusRequestTimeout || sc >= 500:
		return nil, &FetchError{URL: url, StatusCode: sc}
	default:
		return nil, &FetchError{URL: url, StatusCode: sc, Permanent: true}
	}
}

// pace reserves the next send slot so that outbound requests stay at least
// one delay apart, including across concurrent archive fetches.
func (c *ChessClient) pace(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}

	c.paceMu.Lock()
	now := time.Now()
	next := c.lastSent.Add(c.delay)
	if next.Before(now) {
		next = now
	}
	c.lastSent = next
	c.paceMu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type PlayerResponse struct {
	PlayerID   int64  `json:"player_id"`
	URL        string `json:"url"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Followers  int    `json:"followers"`
	Country    string `json:"country"`
	Location   string `json:"location"`
	LastOnline int64  `json:"last_online"`
	Joined     int64  `json:"joined"`
	Status     string `json:"status"`
	IsStreamer bool   `json:"is_streamer"`
	League     string `json:"league"`
}

type StatsResponse struct {
	ChessBullet *ControlStatsData `json:"chess_bullet"`
	ChessBlitz  *ControlStatsData `json:"chess_blitz"`
	ChessRapid  *ControlStatsData `json:"chess_rapid"`
	ChessDaily  *ControlStatsData `json:"chess_daily"`
	Tactics     *TacticsData      `json:"tactics"`
	PuzzleRush  *PuzzleRushData   `json:"puzzle_rush"`
}

// Control returns the stats block for one time control, nil when the player
// never played it.
func (s *StatsResponse) Control(key string) *ControlStatsData {
	switch key {
	case "chess_bullet":
		return s.ChessBullet
	case "chess_blitz":
		return s.ChessBlitz
	case "chess_rapid":
		return s.ChessRapid
	case "chess_daily":
		return s.ChessDaily
	}
	return nil
}

type ControlStatsData struct {
	Last struct {
		Rating int   `json:"rating"`
		Date   int64 `json:"date"`
		RD     int   `json:"rd"`
	} `json:"last"`
	Best struct {
		Rating int   `json:"rating"`
		Date   int64 `json:"date"`
	} `json:"best"`
	Record struct {
		Win  int `json:"win"`
		Loss int `json:"loss"`
		Draw int `json:"draw"`
	} `json:"record"`
}

type TacticsData struct {
	Highest RatedMoment `json:"highest"`
	Lowest  RatedMoment `json:"lowest"`
}

type RatedMoment struct {
	Rating int   `json:"rating"`
	Date   int64 `json:"date"`
}

type PuzzleRushData struct {
	Best struct {
		TotalAttempts int `json:"total_attempts"`
		Score         int `json:"score"`
	} `json:"best"`
}

type ArchivesResponse struct {
	Archives []string `json:"archives"`
}

type GamesResponse struct {
	Games []GameData `json:"games"`
}

type GameData struct {
	URL         string   `json:"url"`
	EndTime     int64    `json:"end_time"`
	Rated       bool     `json:"rated"`
	TimeClass   string   `json:"time_class"`
	TimeControl string   `json:"time_control"`
	Rules       string   `json:"rules"`
	White       GameSide `json:"white"`
	Black       GameSide `json:"black"`
}

type GameSide struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

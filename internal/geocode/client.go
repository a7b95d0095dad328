package geocode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var (
	ErrQueryInvalid = errors.New("geocode query invalid")
	ErrUnavailable  = errors.New("geocode provider unavailable")
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "kedai-next/1.0"
	defaultTimeout   = 8 * time.Second
	defaultLimit     = 5
	minQueryLength   = 3
	maxQueryLength   = 200
)

// Config 地理编码服务配置
type Config struct {
	BaseURL           string
	UserAgent         string
	CountryCodes      string
	Limit             int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Place 候选地址
type Place struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Client Nominatim 兼容的地址检索客户端
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	cfg     Config
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	cfg = normalizeConfig(cfg)
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)
	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cfg:     cfg,
	}
}

// NormalizeQuery 规范化查询词，过短或过长时返回错误
func NormalizeQuery(query string) (string, error) {
	query = strings.Join(strings.Fields(query), " ")
	if len([]rune(query)) < minQueryLength || len([]rune(query)) > maxQueryLength {
		return "", ErrQueryInvalid
	}
	return query, nil
}

// Search 按自由文本检索地址
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query, err := NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"q":      query,
		"format": "jsonv2",
		"limit":  strconv.Itoa(c.cfg.Limit),
	}
	if c.cfg.CountryCodes != "" {
		params["countrycodes"] = c.cfg.CountryCodes
	}

	var raw []nominatimPlace
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&raw).
		Get("/search")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	places := make([]Place, 0, len(raw))
	for _, item := range raw {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(item.Lat), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(item.Lon), 64)
		if errLat != nil || errLng != nil {
			continue
		}
		places = append(places, Place{
			Label: strings.TrimSpace(item.DisplayName),
			Lat:   lat,
			Lng:   lng,
		})
	}
	return places, nil
}

func normalizeConfig(cfg Config) Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.CountryCodes = strings.ToLower(strings.TrimSpace(cfg.CountryCodes))
	if cfg.Limit <= 0 || cfg.Limit > 20 {
		cfg.Limit = defaultLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	return cfg
}

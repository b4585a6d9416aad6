// Package geoip talks to the public ipify and ip-api.com services to enrich
// tickets with the client's IP and approximate location. Lookups are single
// attempt with a bounded timeout and always fail soft: a failure yields
// absent data, never an error that would block ticket creation.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ispdesk/ticket-system/internal/config"
	"github.com/ispdesk/ticket-system/internal/domain"
)

// Cache stores geolocation results between lookups. Implemented by the Redis
// wrapper; a nil cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Client performs the outbound lookups.
type Client struct {
	ipifyURL string
	ipAPIURL string
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewClient constructs a client from configuration. cache may be nil.
func NewClient(cfg config.GeoIPConfig, cache Cache, logger *zap.Logger) *Client {
	return &Client{
		ipifyURL: cfg.IpifyURL,
		ipAPIURL: cfg.IPAPIURL,
		http:     &http.Client{Timeout: cfg.Timeout()},
		cache:    cache,
		cacheTTL: cfg.CacheTTL(),
		logger:   logger,
	}
}

type ipifyResponse struct {
	IP string `json:"ip"`
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	ISP        string  `json:"isp"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// ClientIP returns the caller's public IP as reported by ipify, or "" when
// the lookup fails.
func (c *Client) ClientIP(ctx context.Context) string {
	var out ipifyResponse
	if err := c.getJSON(ctx, c.ipifyURL+"?format=json", &out); err != nil {
		c.logger.Warn("ipify lookup failed", zap.Error(err))
		return ""
	}
	return out.IP
}

// IPInfo returns geolocation data for an IP, or nil when the lookup fails or
// the upstream reports an error status. Results are cached per IP.
func (c *Client) IPInfo(ctx context.Context, ip string) *domain.GeoInfo {
	if ip == "" {
		return nil
	}

	cacheKey := "geoip:" + ip
	if c.cache != nil {
		var cached domain.GeoInfo
		if hit, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached
		}
	}

	var out ipAPIResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", c.ipAPIURL, ip), &out); err != nil {
		c.logger.Warn("ip-api lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	if out.Status != "success" {
		c.logger.Warn("ip-api returned error status", zap.String("ip", ip), zap.String("status", out.Status))
		return nil
	}

	info := &domain.GeoInfo{
		Country: out.Country,
		Region:  out.RegionName,
		City:    out.City,
		ISP:     out.ISP,
		Lat:     out.Lat,
		Lon:     out.Lon,
	}
	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, info, c.cacheTTL); err != nil {
			c.logger.Debug("geoip cache write failed", zap.Error(err))
		}
	}
	return info
}

// Enrich resolves the caller's public IP and its geolocation in one step.
// Both values may be absent.
func (c *Client) Enrich(ctx context.Context) (string, *domain.GeoInfo) {
	ip := c.ClientIP(ctx)
	if ip == "" {
		return "", nil
	}
	return ip, c.IPInfo(ctx, ip)
}

// TestConnection probes the ipify endpoint.
func (c *Client) TestConnection(ctx context.Context) bool {
	var out ipifyResponse
	if err := c.getJSON(ctx, c.ipifyURL+"?format=json", &out); err != nil {
		return false
	}
	return out.IP != ""
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

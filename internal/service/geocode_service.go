package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/kedai-next/internal/cache"
	"github.com/kedai-next/internal/geocode"
	"github.com/kedai-next/internal/logger"

	"github.com/google/uuid"
)

// GeocodeSearcher 地址检索接口
type GeocodeSearcher interface {
	Search(ctx context.Context, query string) ([]geocode.Place, error)
}

// GeocodeService 地址检索：缓存 + 同会话最后一次查询生效
type GeocodeService struct {
	searcher  GeocodeSearcher
	sequencer *geocode.Sequencer
	cacheTTL  time.Duration
}

// NewGeocodeService 创建服务
func NewGeocodeService(searcher GeocodeSearcher, cacheTTL time.Duration) *GeocodeService {
	return &GeocodeService{
		searcher:  searcher,
		sequencer: geocode.NewSequencer(),
		cacheTTL:  cacheTTL,
	}
}

func geocodeCacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(query)))
	return "geocode:" + hex.EncodeToString(sum[:12])
}

// Search 检索地址；同一会话有更新的查询时返回 geocode.ErrSuperseded
func (s *GeocodeService) Search(ctx context.Context, sessionID, query string) ([]geocode.Place, error) {
	normalized, err := geocode.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		// 无会话的查询互不取消
		sessionID = "oneoff:" + uuid.NewString()
	}
	lookupCtx, ticket := s.sequencer.Begin(ctx, sessionID)

	key := geocodeCacheKey(normalized)
	var places []geocode.Place
	hit, cacheErr := cache.GetJSON(lookupCtx, key, &places)
	if cacheErr != nil {
		logger.Debugw("geocode_cache_get_failed", "error", cacheErr)
	}
	if !hit {
		places, err = s.searcher.Search(lookupCtx, normalized)
		if err != nil {
			if finishErr := ticket.Finish(); errors.Is(finishErr, geocode.ErrSuperseded) {
				return nil, geocode.ErrSuperseded
			}
			return nil, err
		}
		if s.cacheTTL > 0 {
			if err := cache.SetJSON(ctx, key, places, s.cacheTTL); err != nil {
				logger.Debugw("geocode_cache_set_failed", "error", err)
			}
		}
	}
	if err := ticket.Finish(); err != nil {
		return nil, err
	}
	if places == nil {
		places = []geocode.Place{}
	}
	return places, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kedai-next/internal/config"
	"github.com/kedai-next/internal/constants"
	"github.com/kedai-next/internal/geo"
	"github.com/kedai-next/internal/logger"
	"github.com/kedai-next/internal/models"
	"github.com/kedai-next/internal/repository"
	"github.com/kedai-next/internal/storehours"

	"github.com/shopspring/decimal"
)

const defaultStoreConfigCacheTTL = 30 * time.Second

// Branch 门店
type Branch struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Point 门店坐标
func (b Branch) Point() geo.Point {
	return geo.Point{Lat: b.Lat, Lng: b.Lng}
}

// StoreConfig 门店运营配置
type StoreConfig struct {
	Name                 string   `json:"name"`
	Currency             string   `json:"currency"`
	Timezone             string   `json:"timezone"`
	OpenHour             int      `json:"open_hour"`
	CloseHour            int      `json:"close_hour"`
	PerKmRate            int64    `json:"per_km_rate"`
	MinimumFee           int64    `json:"minimum_fee"`
	AssistedContactPhone string   `json:"assisted_contact_phone"`
	Branches             []Branch `json:"branches"`
}

// Window 营业时间窗口
func (c *StoreConfig) Window() storehours.Window {
	return storehours.Window{Timezone: c.Timezone, OpenHour: c.OpenHour, CloseHour: c.CloseHour}
}

// RateTable 配送费率
func (c *StoreConfig) RateTable() geo.RateTable {
	return geo.RateTable{
		PerKmRate:  decimal.NewFromInt(c.PerKmRate),
		MinimumFee: decimal.NewFromInt(c.MinimumFee),
	}
}

// FindBranch 按编码查找门店
func (c *StoreConfig) FindBranch(code string) (Branch, bool) {
	code = strings.TrimSpace(code)
	for _, branch := range c.Branches {
		if strings.EqualFold(branch.Code, code) {
			return branch, true
		}
	}
	return Branch{}, false
}

// ResolveBranch 选择门店：指定编码优先，否则选离目的地最近的门店，再否则取第一家
func (c *StoreConfig) ResolveBranch(code string, destination geo.Point) (Branch, error) {
	if strings.TrimSpace(code) != "" {
		branch, ok := c.FindBranch(code)
		if !ok {
			return Branch{}, ErrBranchNotFound
		}
		return branch, nil
	}
	if len(c.Branches) == 0 {
		return Branch{}, nil
	}
	if !destination.IsZero() {
		candidates := make([]geo.Branch, 0, len(c.Branches))
		for _, branch := range c.Branches {
			candidates = append(candidates, geo.Branch{Code: branch.Code, Point: branch.Point()})
		}
		if nearest, ok := geo.Nearest(candidates, destination); ok {
			branch, _ := c.FindBranch(nearest.Code)
			return branch, nil
		}
	}
	return c.Branches[0], nil
}

// Validate 校验配置
func (c *StoreConfig) Validate() error {
	if !c.Window().Valid() {
		return fmt.Errorf("%w: opening hours or timezone", ErrStoreConfigInvalid)
	}
	if c.PerKmRate < 0 || c.MinimumFee < 0 {
		return fmt.Errorf("%w: rates must not be negative", ErrStoreConfigInvalid)
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("%w: currency required", ErrStoreConfigInvalid)
	}
	seen := make(map[string]struct{}, len(c.Branches))
	for _, branch := range c.Branches {
		code := strings.ToLower(strings.TrimSpace(branch.Code))
		if code == "" {
			return fmt.Errorf("%w: branch code required", ErrStoreConfigInvalid)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("%w: duplicate branch %s", ErrStoreConfigInvalid, branch.Code)
		}
		seen[code] = struct{}{}
		if branch.Lat < -90 || branch.Lat > 90 || branch.Lng < -180 || branch.Lng > 180 {
			return fmt.Errorf("%w: branch %s coordinates out of range", ErrStoreConfigInvalid, branch.Code)
		}
	}
	return nil
}

func (c *StoreConfig) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.AssistedContactPhone = strings.TrimSpace(c.AssistedContactPhone)
	for i := range c.Branches {
		c.Branches[i].Code = strings.TrimSpace(c.Branches[i].Code)
		c.Branches[i].Name = strings.TrimSpace(c.Branches[i].Name)
	}
	if c.Branches == nil {
		c.Branches = []Branch{}
	}
}

func (c *StoreConfig) clone() *StoreConfig {
	copied := *c
	copied.Branches = append([]Branch(nil), c.Branches...)
	return &copied
}

// StoreConfigFromDefaults 由启动配置构建默认门店配置
func StoreConfigFromDefaults(cfg config.StoreConfig) *StoreConfig {
	result := &StoreConfig{
		Name:                 cfg.Name,
		Currency:             cfg.Currency,
		Timezone:             cfg.Timezone,
		OpenHour:             cfg.OpenHour,
		CloseHour:            cfg.CloseHour,
		PerKmRate:            cfg.PerKmRate,
		MinimumFee:           cfg.MinimumFee,
		AssistedContactPhone: cfg.AssistedContactPhone,
	}
	for _, branch := range cfg.Branches {
		result.Branches = append(result.Branches, Branch{Code: branch.Code, Name: branch.Name, Lat: branch.Lat, Lng: branch.Lng})
	}
	result.normalize()
	return result
}

// StoreConfigService 门店配置服务（读多写少，短时缓存）
type StoreConfigService struct {
	repo     repository.SettingRepository
	defaults *StoreConfig
	ttl      time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	cached    *StoreConfig
	expiresAt time.Time
}

// NewStoreConfigService 创建门店配置服务
func NewStoreConfigService(repo repository.SettingRepository, defaults config.StoreConfig) *StoreConfigService {
	ttl := time.Duration(defaults.ConfigCacheSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultStoreConfigCacheTTL
	}
	return &StoreConfigService{
		repo:     repo,
		defaults: StoreConfigFromDefaults(defaults),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get 获取当前配置；设置缺失的字段取默认值
func (s *StoreConfigService) Get(ctx context.Context) (*StoreConfig, error) {
	_ = ctx
	now := s.now()
	s.mu.RLock()
	if s.cached != nil && now.Before(s.expiresAt) {
		cfg := s.cached.clone()
		s.mu.RUnlock()
		return cfg, nil
	}
	s.mu.RUnlock()

	cfg, err := s.load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = cfg
	s.expiresAt = now.Add(s.ttl)
	s.mu.Unlock()
	return cfg.clone(), nil
}

// Update 保存配置并使缓存失效
func (s *StoreConfigService) Update(ctx context.Context, input StoreConfig) (*StoreConfig, error) {
	_ = ctx
	input.normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}
	value, err := toSettingJSON(&input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsSaveFailed, err)
	}
	if _, err := s.repo.Upsert(constants.SettingKeyStoreConfig, value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsSaveFailed, err)
	}
	s.Invalidate()
	return input.clone(), nil
}

// Invalidate 清空缓存
func (s *StoreConfigService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// GateStatus 当前营业状态
func (s *StoreConfigService) GateStatus(ctx context.Context, nowUTC time.Time) (storehours.Status, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return storehours.Status{}, err
	}
	return cfg.Window().Status(nowUTC), nil
}

func (s *StoreConfigService) load() (*StoreConfig, error) {
	cfg := s.defaults.clone()
	setting, err := s.repo.GetByKey(constants.SettingKeyStoreConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil || len(setting.ValueJSON) == 0 {
		return cfg, nil
	}
	raw, err := json.Marshal(setting.ValueJSON)
	if err != nil {
		return nil, err
	}
	// 仅覆盖设置中出现的字段
	if err := json.Unmarshal(raw, cfg); err != nil {
		logger.Warnw("store_config_setting_decode_failed", "error", err)
		return s.defaults.clone(), nil
	}
	cfg.normalize()
	return cfg, nil
}

func toSettingJSON(cfg *StoreConfig) (models.JSON, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var value models.JSON
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}

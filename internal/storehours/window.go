package storehours

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // 容器镜像可能缺少系统时区库
)

// Window 营业时间窗口（本地小时，左闭右开）
type Window struct {
	Timezone  string `json:"timezone"`
	OpenHour  int    `json:"open_hour"`
	CloseHour int    `json:"close_hour"`
}

// Status 营业状态快照
type Status struct {
	Open      bool      `json:"open"`
	LocalTime time.Time `json:"local_time"`
	Timezone  string    `json:"timezone"`
	OpenHour  int       `json:"open_hour"`
	CloseHour int       `json:"close_hour"`
}

var (
	locationMu    sync.RWMutex
	locationCache = map[string]*time.Location{}
)

// IsOpen 判断当前是否允许下单：openHour <= 本地小时 < closeHour
// 时区无效或小时越界时视为关闭。
func IsOpen(nowUTC time.Time, timezone string, openHour, closeHour int) bool {
	if !validHours(openHour, closeHour) {
		return false
	}
	loc, ok := loadLocation(timezone)
	if !ok {
		return false
	}
	hour := nowUTC.In(loc).Hour()
	return openHour <= hour && hour < closeHour
}

// IsOpen 判断窗口在给定时刻是否营业
func (w Window) IsOpen(nowUTC time.Time) bool {
	return IsOpen(nowUTC, w.Timezone, w.OpenHour, w.CloseHour)
}

// Status 返回给定时刻的营业状态
func (w Window) Status(nowUTC time.Time) Status {
	status := Status{
		Open:      w.IsOpen(nowUTC),
		LocalTime: nowUTC.UTC(),
		Timezone:  w.Timezone,
		OpenHour:  w.OpenHour,
		CloseHour: w.CloseHour,
	}
	if loc, ok := loadLocation(w.Timezone); ok {
		status.LocalTime = nowUTC.In(loc)
	}
	return status
}

// Valid 时区可加载且小时区间合法
func (w Window) Valid() bool {
	if !validHours(w.OpenHour, w.CloseHour) {
		return false
	}
	_, ok := loadLocation(w.Timezone)
	return ok
}

func validHours(openHour, closeHour int) bool {
	if openHour < 0 || openHour > 23 {
		return false
	}
	if closeHour < 1 || closeHour > 24 {
		return false
	}
	return openHour < closeHour
}

func loadLocation(name string) (*time.Location, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	locationMu.RLock()
	loc, ok := locationCache[name]
	locationMu.RUnlock()
	if ok {
		return loc, loc != nil
	}
	loaded, err := time.LoadLocation(name)
	if err != nil {
		loaded = nil
	}
	locationMu.Lock()
	locationCache[name] = loaded
	locationMu.Unlock()
	return loaded, loaded != nil
}

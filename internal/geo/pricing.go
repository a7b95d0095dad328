package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

// EarthRadiusKm 地球平均半径（千米）
const EarthRadiusKm = 6371.0

// Point 经纬度坐标
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero 坐标是否缺失
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// RateTable 配送费率
type RateTable struct {
	PerKmRate  decimal.Decimal // 每公里费率
	MinimumFee decimal.Decimal // 最低配送费
}

// Quote 配送报价
type Quote struct {
	Origin      Point           `json:"origin"`
	Destination Point           `json:"destination"`
	DistanceKm  float64         `json:"distance_km"`
	Fee         decimal.Decimal `json:"fee"`
	Degraded    bool            `json:"degraded"` // 门店坐标缺失，按最低费用计费
}

// Distance 使用 haversine 公式计算两点间球面距离（千米）
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Fee 按距离计算配送费：max(最低费用, ceil(距离 × 费率))
func Fee(distanceKm float64, rates RateTable) decimal.Decimal {
	minimum := normalizeAmount(rates.MinimumFee)
	if distanceKm <= 0 {
		return minimum
	}
	fee := decimal.NewFromFloat(distanceKm).Mul(normalizeAmount(rates.PerKmRate)).Ceil()
	if fee.LessThan(minimum) {
		return minimum
	}
	return fee
}

// QuoteDelivery 生成配送报价，门店坐标缺失时降级为最低费用
func QuoteDelivery(origin, destination Point, rates RateTable) Quote {
	quote := Quote{
		Origin:      origin,
		Destination: destination,
	}
	if origin.IsZero() {
		quote.Fee = normalizeAmount(rates.MinimumFee)
		quote.Degraded = true
		return quote
	}
	distance := Distance(origin, destination)
	quote.DistanceKm = math.Round(distance*100) / 100
	quote.Fee = Fee(distance, rates)
	return quote
}

// Branch 带坐标的门店
type Branch struct {
	Code  string
	Point Point
}

// Nearest 选择距离目的地最近且有坐标的门店，未找到时返回 false
func Nearest(branches []Branch, destination Point) (Branch, bool) {
	var (
		best     Branch
		bestDist = math.MaxFloat64
		found    bool
	)
	for _, branch := range branches {
		if branch.Point.IsZero() {
			continue
		}
		d := Distance(branch.Point, destination)
		if d < bestDist {
			best, bestDist, found = branch, d, true
		}
	}
	return best, found
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func normalizeAmount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Ceil()
}

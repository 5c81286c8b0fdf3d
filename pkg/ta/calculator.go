// Package ta 提供信号引擎依赖的序列统计工具
// 所有函数都是无状态的纯计算，输入序列按时间升序排列
package ta

import (
	"math"

	"github.com/markcheno/go-talib"
)

// nearZero 用于除零保护：历史收盘价低于该值时视为数据不可用
const nearZero = 1e-9

// PercentChange 计算最新值相对 window 个样本之前的百分比变化
// 参照点是最近 window 个样本中的第一个，即 values[len-window]
// 样本不足或参照值接近零时 ok=false (视为数据不足，而非错误)
func PercentChange(values []float64, window int) (pct float64, ok bool) {
	n := len(values)
	if window < 1 || n < window {
		return 0, false
	}
	ref := values[n-window]
	if ref < nearZero {
		return 0, false
	}
	latest := values[n-1]
	return (latest - ref) / ref * 100, true
}

// VolumeTrendUp 判断最近 window 个成交量的均值是否严格大于再往前 window 个的均值
// 均值比较与求和比较等价，这里直接取 talib 的 SMA 序列
func VolumeTrendUp(volumes []float64, window int) (up bool, ok bool) {
	n := len(volumes)
	if window < 1 || n < 2*window {
		return false, false
	}
	sma := talib.Sma(volumes, window)
	recent := sma[n-1]
	prior := sma[n-1-window]
	return recent > prior, true
}

// SampleStdDev 计算最近 window 个样本的样本标准差
// talib 的 StdDev 是总体标准差，这里乘以 Bessel 校正项还原为样本标准差
func SampleStdDev(values []float64, window int) (std float64, ok bool) {
	n := len(values)
	if window < 2 || n < window {
		return 0, false
	}
	dev := talib.StdDev(values, window, 1.0)
	population := dev[n-1]
	return population * math.Sqrt(float64(window)/float64(window-1)), true
}

// RelativeVolatility 返回最近 window 个收盘价的样本标准差除以最新收盘价
// 最新收盘价接近零时 ok=false
func RelativeVolatility(closes []float64, window int) (ratio float64, ok bool) {
	std, ok := SampleStdDev(closes, window)
	if !ok {
		return 0, false
	}
	latest := closes[len(closes)-1]
	if latest < nearZero {
		return 0, false
	}
	return std / latest, true
}

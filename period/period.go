// Package period 计算日/月/年的起止时间，以及英文月份、星期名称的转换
//
// 所有区间均为闭区间 [start, end]，调用方按 start <= date <= end 过滤记录。
package period

import (
	"fmt"
	"strings"
	"time"

	"ledger/apperr"
)

const (
	// MinYear 允许查询的最小年份
	MinYear = 1970
	// MaxYear 允许查询的最大年份
	MaxYear = 9999
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthAbbrevs = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthBounds 返回某月第一天 00:00:00 到最后一天 23:59:59.999999999
func MonthBounds(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, locOrLocal(loc))
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// YearBounds 返回 1 月 1 日 00:00:00 到 12 月 31 日 23:59:59.999999999
func YearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, locOrLocal(loc))
	return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// DayBounds 返回 t 所在自然日的起止时间（使用 t 自身的时区）
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DaysIn 某月的天数
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthNameToIndex 英文月份名（不区分大小写）转为 1..12
func MonthNameToIndex(name string) (int, error) {
	n := strings.TrimSpace(name)
	for i, m := range monthNames {
		if strings.EqualFold(n, m) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidMonth, name)
}

// NormalizeMonthName 返回首字母大写的标准月份名，如 "june" -> "June"
func NormalizeMonthName(name string) (string, error) {
	idx, err := MonthNameToIndex(name)
	if err != nil {
		return "", err
	}
	return monthNames[idx-1], nil
}

// MonthNameOf 1..12 转英文月份名
func MonthNameOf(month int) (string, error) {
	if err := ValidateMonth(month); err != nil {
		return "", err
	}
	return monthNames[month-1], nil
}

// MonthName t 所在月份的英文全称
func MonthName(t time.Time) string {
	return monthNames[t.Month()-1]
}

// WeekdayName t 的英文星期名，如 "Monday"
func WeekdayName(t time.Time) string {
	// time.Weekday.String 本身就是与区域设置无关的英文名
	return t.Weekday().String()
}

// MonthAbbrevs 月份英文缩写 Jan..Dec
func MonthAbbrevs() []string {
	out := make([]string, len(monthAbbrevs))
	copy(out, monthAbbrevs[:])
	return out
}

// ValidateMonth 校验 1..12
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d，应为 1-12", apperr.ErrInvalidMonth, month)
	}
	return nil
}

// ValidateYear 校验年份范围
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: 年份 %d 超出范围", apperr.ErrInvalidPeriod, year)
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate 解析日期，支持 2006-01-02、2006-01-02 15:04:05 和 RFC3339
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: 日期不能为空", apperr.ErrInvalidPeriod)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(locOrLocal(loc)), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, locOrLocal(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: 日期格式错误 %q，应为 2006-01-02", apperr.ErrInvalidPeriod, s)
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

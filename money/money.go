// Package money 定点两位小数金额类型，所有金额的加减、求和、比较都不经过二进制浮点数
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale 金额保留的小数位数
const Scale = 2

// Money 不可变金额，始终保留两位小数
type Money struct {
	d decimal.Decimal
}

// Zero 零值金额
var Zero = Money{}

// Max decimal(12,2) 列可存放的最大金额
var Max = New(9999999999, 99)

var (
	// ErrPrecision 输入超过两位小数
	ErrPrecision = errors.New("金额最多保留两位小数")
	// ErrOverflow 输入绝对值超过 Max
	ErrOverflow = errors.New("金额超出范围")
)

func of(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// New 以整数部分和分创建金额，如 New(12, 30) = 12.30
func New(units, cents int64) Money {
	return of(decimal.New(units, 0).Add(decimal.New(cents, -Scale)))
}

// FromCents 以分为单位创建金额
func FromCents(cents int64) Money {
	return of(decimal.New(cents, -Scale))
}

// FromFloat 由浮点数创建金额，仅用于外部输入的转换
func FromFloat(f float64) Money {
	return of(decimal.NewFromFloat(f))
}

// FromDecimal 由 decimal 创建金额
func FromDecimal(d decimal.Decimal) Money {
	return of(d)
}

// exact 外部输入不做舍入，超出两位小数或超出 Max 直接报错
func exact(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Round(Scale)) {
		return Zero, ErrPrecision
	}
	m := of(d)
	if m.Overflows() {
		return Zero, ErrOverflow
	}
	return m, nil
}

// Parse 解析金额字符串，支持 "12.3"、"12,30"，最多两位小数
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Zero, fmt.Errorf("金额不能为空")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("无效的金额 %q: %w", s, err)
	}
	m, err := exact(d)
	if err != nil {
		return Zero, fmt.Errorf("%w: %s", err, s)
	}
	return m, nil
}

// MustParse 解析金额，失败 panic，用于常量和测试
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add a + b
func Add(a, b Money) Money {
	return of(a.d.Add(b.d))
}

// Sub a - b
func Sub(a, b Money) Money {
	return of(a.d.Sub(b.d))
}

// Sum 求和，空列表返回 0
func Sum(list []Money) Money {
	total := decimal.Zero
	for _, m := range list {
		total = total.Add(m.d)
	}
	return of(total)
}

// Cmp 比较 a 和 b：a<b 返回 -1，相等返回 0，a>b 返回 1
func Cmp(a, b Money) int {
	return a.d.Cmp(b.d)
}

// Add 返回 m + o
func (m Money) Add(o Money) Money { return Add(m, o) }

// Sub 返回 m - o
func (m Money) Sub(o Money) Money { return Sub(m, o) }

// Neg 返回 -m
func (m Money) Neg() Money { return of(m.d.Neg()) }

// Equal 金额是否相等
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// IsZero 是否为 0
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative 是否小于 0
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Overflows 绝对值是否超过 Max
func (m Money) Overflows() bool { return m.d.Abs().Cmp(Max.d) > 0 }

// Sign 符号：-1、0、1
func (m Money) Sign() int { return m.d.Sign() }

// Decimal 返回底层 decimal
func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 仅用于图表等展示场景，不可再参与计算
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String 固定两位小数，如 "12.30"
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON 输出为两位小数的数字
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON 同时接受数字和字符串，规则同 Parse
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("无效的金额: %w", err)
	}
	v, err := exact(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Scan 实现 sql.Scanner
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = of(d)
	return nil
}

// Value 实现 driver.Valuer，以字符串写入 decimal 列
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

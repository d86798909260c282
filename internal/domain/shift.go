package domain

import (
	"fmt"
	"strings"
)

// ShiftKind 表示某个护士某一天的班次，线上格式为单个字符
type ShiftKind byte

const (
	ShiftDay     ShiftKind = 'D'
	ShiftEvening ShiftKind = 'E'
	ShiftNight   ShiftKind = 'N'
	ShiftMid     ShiftKind = 'M'
	ShiftOff     ShiftKind = 'O'
	ShiftLocked  ShiftKind = 'X' // 上游遗留的占位符，排班算法不会产生
)

func ParseShiftKind(c byte) (ShiftKind, error) {
	switch k := ShiftKind(c); k {
	case ShiftDay, ShiftEvening, ShiftNight, ShiftMid, ShiftOff, ShiftLocked:
		return k, nil
	default:
		return 0, fmt.Errorf("未知的班次代码 %q", c)
	}
}

// ParseShifts 把形如 "DDEONN" 的字符串解析为班次数组
func ParseShifts(s string) ([]ShiftKind, error) {
	shifts := make([]ShiftKind, len(s))
	for i := 0; i < len(s); i++ {
		k, err := ParseShiftKind(s[i])
		if err != nil {
			return nil, fmt.Errorf("第 %d 天: %w", i+1, err)
		}
		shifts[i] = k
	}
	return shifts, nil
}

func FormatShifts(shifts []ShiftKind) string {
	var b strings.Builder
	b.Grow(len(shifts))
	for _, k := range shifts {
		b.WriteByte(byte(k))
	}
	return b.String()
}

func (k ShiftKind) String() string {
	return string(rune(k))
}

func (k ShiftKind) MarshalText() ([]byte, error) {
	return []byte{byte(k)}, nil
}

func (k *ShiftKind) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("班次代码 %q 长度必须为 1", text)
	}
	parsed, err := ParseShiftKind(text[0])
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsWork 判断是否为上班（白班、小夜、大夜、中班）
func (k ShiftKind) IsWork() bool {
	return k == ShiftDay || k == ShiftEvening || k == ShiftNight || k == ShiftMid
}

// ShiftCapability 护士可以上的班次的位掩码
type ShiftCapability uint8

const (
	CanDay ShiftCapability = 1 << iota
	CanEvening
	CanNight
	CanMid

	capabilityMask = CanDay | CanEvening | CanNight | CanMid
)

var workKinds = []ShiftKind{ShiftDay, ShiftEvening, ShiftNight, ShiftMid}

func capabilityBit(k ShiftKind) ShiftCapability {
	switch k {
	case ShiftDay:
		return CanDay
	case ShiftEvening:
		return CanEvening
	case ShiftNight:
		return CanNight
	case ShiftMid:
		return CanMid
	default:
		return 0
	}
}

// Has 判断是否能上某个班次，休息总是允许的
func (c ShiftCapability) Has(k ShiftKind) bool {
	if k == ShiftOff {
		return true
	}
	bit := capabilityBit(k)
	return bit != 0 && c&bit != 0
}

// IsExclusive 判断是否只能上一种班次（专职白班、专职夜班等）
func (c ShiftCapability) IsExclusive() bool {
	return c != 0 && c&(c-1) == 0
}

// Kinds 返回可以上的班次，顺序固定为 D、E、N、M
func (c ShiftCapability) Kinds() []ShiftKind {
	kinds := make([]ShiftKind, 0, len(workKinds))
	for _, k := range workKinds {
		if c.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (c ShiftCapability) Validate() error {
	if c&^capabilityMask != 0 {
		return fmt.Errorf("未知的班次能力位 %#x", uint8(c&^capabilityMask))
	}
	return nil
}

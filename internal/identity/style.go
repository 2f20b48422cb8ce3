// Package identity 为匿名用户生成稳定但不可关联的颜色和头像
// 纯装饰用途，不能用作身份或安全机制
package identity

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf16"
)

// Hash 32位滚动哈希 h = c + (h<<5) - h，按 UTF-16 码元计算
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = int32(c) + (h << 5) - h
	}
	return h
}

func hue(h int32) int {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % 360)
}

// ColorFor 返回 hsl 颜色，饱和度和亮度由调用方按场景决定
func ColorFor(userID string, saturation, lightness int) string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", hue(Hash(userID)), saturation, lightness)
}

// Glyph 头像的几何图案
type Glyph string

const (
	GlyphDots       Glyph = "dots"
	GlyphCrosshatch Glyph = "crosshatch"
	GlyphZigzag     Glyph = "zigzag"
	GlyphStripes    Glyph = "stripes"
	GlyphRings      Glyph = "rings"
	GlyphGrid       Glyph = "grid"
)

var glyphs = []Glyph{GlyphDots, GlyphCrosshatch, GlyphZigzag, GlyphStripes, GlyphRings, GlyphGrid}

// Avatar 头像参数
type Avatar struct {
	Glyph      Glyph
	Rotation   int
	Background string
	Foreground string
}

// AvatarSpec 根据用户ID推导头像参数
func AvatarSpec(userID string) Avatar {
	h := Hash(userID)
	u := uint32(h)
	base := hue(h)
	return Avatar{
		Glyph:      glyphs[u%uint32(len(glyphs))],
		Rotation:   int((u>>3)%8) * 45,
		Background: fmt.Sprintf("hsl(%d, 45%%, 22%%)", base),
		Foreground: fmt.Sprintf("hsl(%d, 70%%, 65%%)", (base+180)%360),
	}
}

// SVG 生成头像的矢量图
func (a Avatar) SVG() string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 40" width="40" height="40">`)
	fmt.Fprintf(&b, `<rect width="40" height="40" fill="%s"/>`, a.Background)
	fmt.Fprintf(&b, `<g transform="rotate(%d 20 20)" stroke="%s" fill="%s" stroke-width="2">`, a.Rotation, a.Foreground, a.Foreground)
	switch a.Glyph {
	case GlyphDots:
		for y := 8; y < 40; y += 12 {
			for x := 8; x < 40; x += 12 {
				fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="3"/>`, x, y)
			}
		}
	case GlyphCrosshatch:
		for i := -40; i < 80; i += 10 {
			fmt.Fprintf(&b, `<line x1="%d" y1="0" x2="%d" y2="40"/>`, i, i+40)
			fmt.Fprintf(&b, `<line x1="%d" y1="40" x2="%d" y2="0"/>`, i, i+40)
		}
	case GlyphZigzag:
		for y := 6; y < 40; y += 10 {
			fmt.Fprintf(&b, `<polyline fill="none" points="0,%d 10,%d 20,%d 30,%d 40,%d"/>`, y, y+5, y, y+5, y)
		}
	case GlyphStripes:
		for x := 4; x < 40; x += 8 {
			fmt.Fprintf(&b, `<rect x="%d" y="-10" width="3" height="60" stroke="none"/>`, x)
		}
	case GlyphRings:
		for r := 4; r <= 16; r += 6 {
			fmt.Fprintf(&b, `<circle cx="20" cy="20" r="%d" fill="none"/>`, r)
		}
	default:
		for i := 0; i <= 40; i += 10 {
			fmt.Fprintf(&b, `<line x1="%d" y1="0" x2="%d" y2="40"/><line x1="0" y1="%d" x2="40" y2="%d"/>`, i, i, i, i)
		}
	}
	b.WriteString(`</g></svg>`)
	return b.String()
}

// AvatarFor 返回可内联显示的头像 data URI
func AvatarFor(userID string) string {
	svg := AvatarSpec(userID).SVG()
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

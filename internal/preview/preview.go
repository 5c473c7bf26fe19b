// Package preview renders a static PNG version of a race's scatter chart,
// linked as the og:image of the interactive artifact. Fully deterministic:
// the same classified views always produce the same bytes.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/render"
)

// Standard Open Graph dimensions.
const (
	Width  = 1200
	Height = 630
)

const (
	marginLeft   = 70
	marginRight  = 30
	marginTop    = 60
	marginBottom = 50
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorGrid       = color.RGBA{241, 245, 249, 255}
	colorLabel      = color.RGBA{100, 116, 139, 255}
	colorScoutZone  = color.RGBA{219, 234, 254, 255}
	colorIdealZone  = color.RGBA{209, 250, 229, 255}
	colorTarget     = color.RGBA{217, 119, 6, 255}

	categoryColors = map[models.Category]color.RGBA{
		models.SameDistance:     {220, 38, 38, 255},
		models.DifferentDist:    {37, 99, 235, 255},
		models.DifferentSurface: {148, 163, 184, 255},
	}
)

// Render draws the chart for one race. The caption is ASCII-only since the
// bitmap font carries no CJK glyphs; callers pass the race id and target
// values rather than the Japanese race name.
func Render(views []render.HorseView, target models.RaceTarget, caption string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	// Highlight zones under everything else.
	fillRect(img,
		toX(target.Cushion-render.ScoutCushion), toY(target.Moisture+render.ScoutMoisture),
		toX(target.Cushion+render.ScoutCushion), toY(target.Moisture-render.ScoutMoisture),
		colorScoutZone)
	fillRect(img,
		toX(target.Cushion-render.IdealCushion), toY(target.Moisture+render.IdealMoisture),
		toX(target.Cushion+render.IdealCushion), toY(target.Moisture-render.IdealMoisture),
		colorIdealZone)

	drawGrid(img)

	for _, hv := range views {
		for _, r := range hv.Runs {
			x, y := toX(r.Cushion), toY(r.Moisture)
			c := categoryColors[r.Cat]
			if r.Good {
				drawCircle(img, x, y, 8, c)
			} else {
				drawCross(img, x, y, 8, c)
			}
		}
	}

	drawDiamond(img, toX(target.Cushion), toY(target.Moisture), 12, colorTarget)
	drawText(img, marginLeft, 30, caption, colorLabel)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func toX(v float64) int {
	w := float64(Width - marginLeft - marginRight)
	return marginLeft + int((v-render.XMin)/(render.XMax-render.XMin)*w)
}

func toY(v float64) int {
	h := float64(Height - marginTop - marginBottom)
	return marginTop + int((1-(v-render.YMin)/(render.YMax-render.YMin))*h)
}

func drawGrid(img *image.RGBA) {
	for x := render.XMin; x <= render.XMax; x += 0.5 {
		px := toX(x)
		vline(img, px, marginTop, Height-marginBottom, colorGrid)
		drawText(img, px-10, Height-marginBottom+20, fmt.Sprintf("%.1f", x), colorLabel)
	}
	for y := render.YMin; y <= render.YMax; y += 2 {
		py := toY(y)
		hline(img, marginLeft, Width-marginRight, py, colorGrid)
		drawText(img, marginLeft-40, py+4, fmt.Sprintf("%2.0f%%", y), colorLabel)
	}
	drawText(img, Width/2-30, Height-12, "cushion", colorLabel)
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, draw.Src)
}

func vline(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x, y, c)
	}
}

func hline(img *image.RGBA, x0, x1, y int, c color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y, c)
	}
}

func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d <= r*r && d >= (r-3)*(r-3) {
				img.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

func drawCross(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for t := -r; t <= r; t++ {
		for w := -1; w <= 1; w++ {
			img.SetRGBA(cx+t+w, cy+t, c)
			img.SetRGBA(cx+t+w, cy-t, c)
		}
	}
}

func drawDiamond(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		span := r - abs(dy)
		for dx := -span; dx <= span; dx++ {
			img.SetRGBA(cx+dx, cy+dy, c)
		}
	}
}

func drawText(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

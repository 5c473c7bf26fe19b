package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/models"
	"github.com/jm3hiromu30-bit/keiba-scatter/internal/render"
)

func intp(v int) *int { return &v }

func sampleViews() []render.HorseView {
	return []render.HorseView{
		{
			Name: "アルファ",
			Runs: []render.RunView{
				{Cushion: 9.2, Moisture: 12.1, Cat: models.SameDistance, Good: true, Result: intp(2)},
				{Cushion: 8.8, Moisture: 4.0, Cat: models.DifferentSurface, Good: false, Result: intp(9)},
				{Cushion: 10.5, Moisture: 15.0, Cat: models.DifferentDist, Good: false},
			},
		},
	}
}

func sampleTarget() models.RaceTarget {
	return models.RaceTarget{Surface: models.SurfaceTurf, Distance: 1600, Cushion: 9.8, Moisture: 11.2}
}

func TestRenderProducesValidPNG(t *testing.T) {
	out, err := Render(sampleViews(), sampleTarget(), "202605010811 turf 1600m CV9.8 MG11.2%")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != Width || b.Dy() != Height {
		t.Errorf("dimensions = %dx%d, want %dx%d", b.Dx(), b.Dy(), Width, Height)
	}
}

func TestRenderDeterministic(t *testing.T) {
	first, err := Render(sampleViews(), sampleTarget(), "caption")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := Render(sampleViews(), sampleTarget(), "caption")
	if err != nil {
		t.Fatalf("Render (second): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("two renders of identical input differ")
	}
}

func TestRenderEmptyViews(t *testing.T) {
	out, err := Render(nil, sampleTarget(), "no data")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

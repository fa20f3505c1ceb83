package datasets

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/terratile/geosets/index"
)

// PlotOptions controls sample rendering.
type PlotOptions struct {
	// ShowTitles labels each panel (Image, Mask, Prediction).
	ShowTitles bool

	// Suptitle, when set, is shown on the first panel.
	Suptitle string
}

// Plot renders the sample as one panel per tensor: a true-color image from
// the RGB bands, the ordinal mask colored by the class table, and the
// prediction when attached. Returns *RGBBandsMissingError when the
// configured bands do not include all RGB bands.
func (d *AgriFieldNet) Plot(s *Sample, opts PlotOptions) ([]*plot.Plot, error) {
	var rgb []int
	for _, band := range d.rgbBands {
		idx := -1
		for i, b := range d.bands {
			if b == band {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &RGBBandsMissingError{}
		}
		rgb = append(rgb, idx)
	}

	channels, ok := s.Image.Value().([][][]float32)
	if !ok {
		return nil, fmt.Errorf("image tensor is not [bands, height, width] float32")
	}

	panels := []*plot.Plot{newPanel(renderRGB(channels, rgb), s.Bounds, "Image", opts)}

	if s.Mask != nil {
		rows, ok := s.Mask.Value().([][]int32)
		if !ok {
			return nil, fmt.Errorf("mask tensor is not [height, width] int32")
		}
		panels = append(panels, newPanel(renderOrdinal(rows, d.ordinal), s.Bounds, "Mask", opts))
	}

	if s.Prediction != nil {
		rows, ok := s.Prediction.Value().([][]int32)
		if !ok {
			return nil, fmt.Errorf("prediction tensor is not [height, width] int32")
		}
		panels = append(panels, newPanel(renderOrdinal(rows, d.ordinal), s.Bounds, "Prediction", opts))
	}

	if opts.Suptitle != "" {
		if opts.ShowTitles {
			panels[0].Title.Text = opts.Suptitle + ": " + panels[0].Title.Text
		} else {
			panels[0].Title.Text = opts.Suptitle
		}
	}
	return panels, nil
}

// newPanel wraps an image in a plot positioned at the query's map extent.
func newPanel(img image.Image, q index.Query, title string, opts PlotOptions) *plot.Plot {
	p := plot.New()
	if opts.ShowTitles {
		p.Title.Text = title
	}
	p.Add(plotter.NewImage(img, q.X.Start, q.Y.Start, q.X.Stop, q.Y.Stop))
	p.HideAxes()
	return p
}

// renderRGB builds a true-color image from the given channel indices,
// min-max normalized over the three channels together.
func renderRGB(channels [][][]float32, rgb []int) *image.NRGBA {
	height := len(channels[rgb[0]])
	width := 0
	if height > 0 {
		width = len(channels[rgb[0]][0])
	}

	lo, hi := channels[rgb[0]][0][0], channels[rgb[0]][0][0]
	for _, c := range rgb {
		for _, row := range channels[c] {
			for _, v := range row {
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
	}
	scale := float32(1)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((channels[rgb[0]][y][x] - lo) * scale),
				G: uint8((channels[rgb[1]][y][x] - lo) * scale),
				B: uint8((channels[rgb[2]][y][x] - lo) * scale),
				A: 255,
			})
		}
	}
	return img
}

// renderOrdinal colors an ordinal grid using the class color table.
func renderOrdinal(rows [][]int32, m *OrdinalMap) *image.NRGBA {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y, row := range rows {
		for x, v := range row {
			c := m.Color(v)
			img.SetNRGBA(x, y, color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
		}
	}
	return img
}

package datasets

import (
	"errors"
	"testing"
)

func TestAgriFieldNetPlot(t *testing.T) {
	bands := []string{"B02", "B03", "B04"}
	root := agriFixture(t, bands)

	ds, err := NewAgriFieldNet(AgriFieldNetConfig{Root: root, Bands: bands})
	if err != nil {
		t.Fatalf("NewAgriFieldNet failed: %v", err)
	}
	sample, err := ds.Get(ds.Bounds())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	panels, err := ds.Plot(sample, PlotOptions{ShowTitles: true, Suptitle: "Test"})
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	if len(panels) != 2 {
		t.Fatalf("expected image and mask panels, got %d", len(panels))
	}

	sample.Prediction = sample.Mask
	panels, err = ds.Plot(sample, PlotOptions{})
	if err != nil {
		t.Fatalf("Plot with prediction failed: %v", err)
	}
	if len(panels) != 3 {
		t.Fatalf("expected three panels with prediction, got %d", len(panels))
	}
}

func TestAgriFieldNetPlotMissingRGBBands(t *testing.T) {
	bands := []string{"B02", "B05"}
	root := agriFixture(t, bands)

	ds, err := NewAgriFieldNet(AgriFieldNetConfig{Root: root, Bands: bands})
	if err != nil {
		t.Fatalf("NewAgriFieldNet failed: %v", err)
	}
	sample, err := ds.Get(ds.Bounds())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	_, err = ds.Plot(sample, PlotOptions{})
	var missing *RGBBandsMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected RGBBandsMissingError, got %v", err)
	}
}

package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sliceview/internal/models"
	"sliceview/pkg/colortable"
	"sliceview/pkg/volume"
)

// createTestVolume builds a volume where each slice along Z has a unique value
func createTestVolume(t *testing.T, width, height, depth int) *models.Volume {
	t.Helper()
	volumeData := make([]float64, width*height*depth)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := z*width*height + y*width + x
				volumeData[idx] = float64(z * 10)
			}
		}
	}
	vol, err := volume.New(volumeData, width, height, depth, [3]float64{1, 1, 2})
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	return vol
}

// TestNewViewer verifies that a new viewer is created with the correct parameters
func TestNewViewer(t *testing.T) {
	vol := createTestVolume(t, 10, 10, 5)
	viewer := NewViewer(vol, 64, 48)

	if viewer.width != 64 || viewer.height != 48 {
		t.Errorf("Expected 64x48 frames, got %dx%d", viewer.width, viewer.height)
	}
	if viewer.JPEGQuality != 90 {
		t.Errorf("Expected JPEG quality 90, got %d", viewer.JPEGQuality)
	}
	if viewer.volume != vol {
		t.Errorf("Expected viewer to hold the volume")
	}
}

// TestRenderSlice verifies that each Z slice renders with its own intensity
func TestRenderSlice(t *testing.T) {
	width, height, depth := 10, 10, 5
	vol := createTestVolume(t, width, height, depth)
	viewer := NewViewer(vol, 50, 50)

	var previous uint8
	for z := 0; z < depth; z++ {
		img, err := viewer.RenderSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to render Z slice at position %d: %v", z, err)
		}
		if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
			t.Errorf("Expected 50x50 frame, got %v", img.Bounds())
		}

		c := color.RGBAModel.Convert(img.At(25, 25)).(color.RGBA)
		if z > 0 && c.R <= previous {
			t.Errorf("Slice %d: expected brighter center than slice %d, got %d <= %d", z, z-1, c.R, previous)
		}
		previous = c.R
	}

	if _, err := viewer.RenderSlice("z", depth); err == nil {
		t.Errorf("Expected error for position beyond depth")
	}
	if _, err := viewer.RenderSlice("w", 0); err == nil {
		t.Errorf("Expected error for invalid axis")
	}
}

// TestRenderSliceSagittal checks the rotated sagittal frame fills the canvas
func TestRenderSliceSagittal(t *testing.T) {
	vol := createTestVolume(t, 8, 8, 4)
	viewer := NewViewer(vol, 40, 40)

	img, err := viewer.RenderSlice("sagittal", 3)
	if err != nil {
		t.Fatalf("Failed to render sagittal slice: %v", err)
	}
	// 8x(4*2mm) slice drawn rotated: 8 mm tall and wide
	c := color.RGBAModel.Convert(img.At(20, 20)).(color.RGBA)
	if c.A != 255 {
		t.Errorf("Expected an opaque center pixel, got %v", c)
	}
}

// TestSaveFrame verifies that frames are saved in the requested format
func TestSaveFrame(t *testing.T) {
	vol := createTestVolume(t, 10, 10, 5)
	viewer := NewViewer(vol, 32, 32)
	tempDir := t.TempDir()

	img, err := viewer.RenderSlice("y", 2)
	if err != nil {
		t.Fatalf("Failed to render slice: %v", err)
	}

	pngPath := filepath.Join(tempDir, "frame.png")
	if err := viewer.SaveFrame(img, pngPath); err != nil {
		t.Fatalf("Failed to save PNG: %v", err)
	}
	if decoded := decode(t, pngPath, png.Decode); decoded.Bounds() != img.Bounds() {
		t.Errorf("Expected PNG bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}

	jpgPath := filepath.Join(tempDir, "frame.jpg")
	if err := viewer.SaveFrame(img, jpgPath); err != nil {
		t.Fatalf("Failed to save JPEG: %v", err)
	}
	if decoded := decode(t, jpgPath, jpeg.Decode); decoded.Bounds() != img.Bounds() {
		t.Errorf("Expected JPEG bounds %v, got %v", img.Bounds(), decoded.Bounds())
	}
}

func decode(t *testing.T, path string, fn func(io.Reader) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()
	img, err := fn(f)
	if err != nil {
		t.Fatalf("Failed to decode %s: %v", path, err)
	}
	return img
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	width, height, depth := 10, 10, 5
	vol := createTestVolume(t, width, height, depth)
	viewer := NewViewer(vol, 32, 32)
	tempDir := t.TempDir()

	vol.Index[models.AxisZ] = 1
	if err := viewer.SaveSliceSequence("z", tempDir, "png"); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(tempDir, fmt.Sprintf("slice_z_%03d.png", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected file %s to exist, but it doesn't", filename)
		}
	}
	if vol.Index[models.AxisZ] != 1 {
		t.Errorf("Expected the current index to be restored, got %d", vol.Index[models.AxisZ])
	}

	if err := viewer.SaveSliceSequence("invalid", tempDir, "png"); err == nil {
		t.Errorf("Expected error for invalid axis")
	}
}

// TestSaveCurrent verifies the three-orientation export with a label overlay
func TestSaveCurrent(t *testing.T) {
	vol := createTestVolume(t, 6, 6, 6)
	labels := make([]float64, vol.VoxelCount())
	labels[0] = 1
	table, err := colortable.FromPalette(colortable.Categorical)
	if err != nil {
		t.Fatalf("Failed to build palette: %v", err)
	}
	if _, err := volume.AttachLabelmap(vol, labels, table); err != nil {
		t.Fatalf("Failed to attach labelmap: %v", err)
	}

	thermal := colortable.Thermal
	viewer := NewViewer(vol, 24, 24)
	viewer.VolumePalette = &thermal

	files, err := viewer.SaveCurrent(t.TempDir(), "frame", "jpg", "x", "y", "z")
	if err != nil {
		t.Fatalf("SaveCurrent failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %v", files)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("Expected file %s: %v", f, err)
		}
	}
}

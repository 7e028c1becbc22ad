package videoframe

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestCropToRectEmptyRectClonesWholeMat(t *testing.T) {
	mat := gocv.NewMatWithSize(5, 5, gocv.MatTypeCV8UC1)
	defer mat.Close()

	cropped := cropToRect(mat, image.Rectangle{})
	defer cropped.Close()

	if cropped.Rows() != 5 || cropped.Cols() != 5 {
		t.Fatalf("cropped size = %dx%d, want 5x5", cropped.Rows(), cropped.Cols())
	}
}

func TestCropToRectAppliesSubRegion(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer mat.Close()

	cropped := cropToRect(mat, image.Rect(2, 2, 6, 8))
	defer cropped.Close()

	if cropped.Cols() != 4 || cropped.Rows() != 6 {
		t.Fatalf("cropped size = %dx%d, want 4x6", cropped.Cols(), cropped.Rows())
	}
}

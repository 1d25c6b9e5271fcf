package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/samirrijal/campusgeo/internal/core/domain"
	"github.com/samirrijal/campusgeo/internal/pkg/vision"
)

// Detector implements ports.BoxDetector: gray, Gaussian blur, Canny, a
// rectangular close, then the external contours' bounding rectangles are
// handed to the selection rule in contour order.
type Detector struct {
	selector *vision.Selector
}

// NewDetector creates a Detector tuned by params.
func NewDetector(params vision.Params) *Detector {
	return &Detector{selector: vision.NewSelector(params)}
}

// Detect returns the building bounding box in img.
func (d *Detector) Detect(img image.Image) (domain.BoundingBox, error) {
	rects, height, err := d.contours(img)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	r, err := d.selector.Select(rects, height)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	return domain.BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, nil
}

func (d *Detector) contours(img image.Image) ([]image.Rectangle, int, error) {
	p := d.selector.Params()

	// B,G,R like cv2.imread
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, 0, fmt.Errorf("image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(p.BlurKernel, p.BlurKernel), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(p.CannyLow), float32(p.CannyHigh))

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(p.CloseKernel, p.CloseKernel))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(edges, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	rects := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		rects = append(rects, gocv.BoundingRect(contours.At(i)))
	}
	return rects, gray.Rows(), nil
}

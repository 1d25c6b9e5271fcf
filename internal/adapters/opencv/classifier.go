// Package opencv runs the building model through OpenCV's DNN module and
// finds building silhouettes with its image processing functions.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Config selects the model artifact and the compute target.
type Config struct {
	// ModelPath is an ONNX (or any format cv::dnn::readNet accepts) export of
	// the classifier. The network must take an NCHW input, as produced by
	// blobFromImage.
	ModelPath string
	InputSize int
	UseGPU    bool
}

// Engine implements ports.ScoreModel on a gocv.Net. A cv::dnn::Net is not safe
// for concurrent Forward calls, so inference is serialized.
type Engine struct {
	mu   sync.Mutex
	net  gocv.Net
	size int
}

// New loads the network. A missing or unreadable artifact is an error.
func New(cfg Config) (*Engine, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}
	net := gocv.ReadNet(cfg.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("model artifact %s: opencv could not read the network", cfg.ModelPath)
	}

	backend, target := gocv.NetBackendDefault, gocv.NetTargetCPU
	if cfg.UseGPU {
		backend, target = gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("set dnn backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("set dnn target: %w", err)
	}

	size := cfg.InputSize
	if size <= 0 {
		size = 224
	}
	return &Engine{net: net, size: size}, nil
}

// Scores feeds img as raw 0-255 B,G,R values and returns the output row.
func (e *Engine) Scores(ctx context.Context, img image.Image) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ImageToMatRGB lays pixels out in OpenCV's B,G,R order.
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(e.size, e.size), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.mu.Lock()
	e.net.SetInput(blob, "")
	out := e.net.Forward("")
	e.mu.Unlock()
	defer out.Close()

	if out.Empty() {
		return nil, errors.New("forward pass returned no output")
	}
	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = float64(v)
	}
	return scores, nil
}

// Ping succeeds while the network is loaded.
func (e *Engine) Ping(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.net.Empty() {
		return errors.New("network not loaded")
	}
	return nil
}

// Close releases the network.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}

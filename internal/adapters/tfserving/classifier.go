// Package tfserving scores images against a model hosted by TensorFlow
// Serving's REST API.
package tfserving

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/valyala/fasthttp"
)

// Config points the engine at one served model.
type Config struct {
	// BaseURL of the TF Serving REST endpoint, e.g. http://tfserving:8501.
	BaseURL string
	Model   string
	Timeout time.Duration
	// Dial overrides how connections are made; nil uses TCP.
	Dial fasthttp.DialFunc
}

// Engine implements ports.ScoreModel over HTTP.
type Engine struct {
	client     *fasthttp.Client
	predictURL string
	statusURL  string
	timeout    time.Duration
}

// New creates an Engine and checks that the model is AVAILABLE.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		return nil, errors.New("tfserving: base url and model name are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + "/v1/models/" + cfg.Model

	e := &Engine{
		client: &fasthttp.Client{
			Name:                "campusgeo",
			Dial:                cfg.Dial,
			MaxIdleConnDuration: 30 * time.Second,
		},
		predictURL: base + ":predict",
		statusURL:  base,
		timeout:    cfg.Timeout,
	}
	if err := e.Ping(ctx); err != nil {
		return nil, fmt.Errorf("tfserving model %s: %w", cfg.Model, err)
	}
	return e, nil
}

type predictRequest struct {
	Instances [][][][3]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

type statusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// Scores sends img as a single HWC instance of raw 0-255 B,G,R values.
func (e *Engine) Scores(ctx context.Context, img image.Image) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Instances: [][][][3]float32{bgrInstance(img)}})
	if err != nil {
		return nil, fmt.Errorf("marshal instances: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(e.predictURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := e.client.DoDeadline(req, resp, e.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}

	var out predictResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode predict response (status %d): %w", resp.StatusCode(), err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("predict failed with status %d: %s", resp.StatusCode(), out.Error)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("expected 1 prediction, got %d", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

// Ping checks that at least one version of the model is AVAILABLE.
func (e *Engine) Ping(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(e.statusURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := e.client.DoDeadline(req, resp, e.deadline(ctx)); err != nil {
		return fmt.Errorf("status request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("status request returned %d", resp.StatusCode())
	}

	var st statusResponse
	if err := json.Unmarshal(resp.Body(), &st); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}
	for _, v := range st.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return errors.New("no AVAILABLE model version")
}

// Close releases idle connections.
func (e *Engine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *Engine) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(e.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}

// bgrInstance lays img out as rows of [B, G, R] pixels.
func bgrInstance(img image.Image) [][][3]float32 {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	rows := make([][][3]float32, h)
	for y := 0; y < h; y++ {
		row := make([][3]float32, w)
		pix := nrgba.Pix[y*nrgba.Stride:]
		for x := range row {
			p := pix[x*4 : x*4+3]
			row[x] = [3]float32{float32(p[2]), float32(p[1]), float32(p[0])}
		}
		rows[y] = row
	}
	return rows
}

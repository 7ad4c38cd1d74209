//go:build !cgo
// +build !cgo

package sentiment

import (
	"context"
	"errors"
)

// ONNXClassifier stub type when built without CGO (see onnx.go for real implementation).
type ONNXClassifier struct{}

// NewONNXClassifier returns an error when built without CGO (ONNX not available).
func NewONNXClassifier(_ ClassifierConfig) (*ONNXClassifier, error) {
	return nil, errors.New("ONNX classifier requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

func (c *ONNXClassifier) Name() string { return "onnx" }

func (c *ONNXClassifier) Score(context.Context, string) (Result, error) {
	return Result{}, errors.New("ONNX classifier unavailable")
}

func (c *ONNXClassifier) Close() error { return nil }

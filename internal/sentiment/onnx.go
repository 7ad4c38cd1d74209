//go:build cgo
// +build cgo

package sentiment

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce    sync.Once
	ortInitErr error
)

func initRuntime() error {
	ortOnce.Do(func() {
		if err := ort.InitializeEnvironment(); err != nil {
			ortInitErr = fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	})
	return ortInitErr
}

// ONNXClassifier runs a binary sentiment classifier through ONNX Runtime. It requires CGO
// and the onnxruntime shared library.
type ONNXClassifier struct {
	session   *ort.AdvancedSession
	tokenizer Tokenizer
	maxTokens int
	maxChars  int
	labels    []string
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXClassifier loads the vocabulary and model and binds fixed-size tensors.
func NewONNXClassifier(cfg ClassifierConfig) (*ONNXClassifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact unavailable: %w", err)
	}
	tokenizer, err := LoadVocab(cfg.VocabPath)
	if err != nil {
		return nil, err
	}
	if err := initRuntime(); err != nil {
		return nil, err
	}

	maxTokens := cfg.MaxTokens
	inputIDs, attentionMask := tokenizer.Encode("", maxTokens)
	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	outputData := make([]float32, len(cfg.Labels))
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(cfg.Labels))), outputData)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor},
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:             session,
		tokenizer:           tokenizer,
		maxTokens:           maxTokens,
		maxChars:            cfg.MaxChars,
		labels:              cfg.Labels,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		outputTensor:        outputTensor,
	}, nil
}

func (c *ONNXClassifier) Name() string { return "onnx" }

// Score classifies text truncated to the character budget.
func (c *ONNXClassifier) Score(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	inputIDs, attentionMask := c.tokenizer.Encode(truncateChars(text, c.maxChars), c.maxTokens)
	copy(c.inputIDsTensor.GetData(), inputIDs)
	copy(c.attentionMaskTensor.GetData(), attentionMask)

	if err := c.session.Run(); err != nil {
		return Result{}, fmt.Errorf("inference failed: %w", err)
	}
	logits := append([]float32(nil), c.outputTensor.GetData()...)
	return resultFromLogits(logits, c.labels), nil
}

// Close destroys the session and tensors.
func (c *ONNXClassifier) Close() error {
	var err error
	if c.session != nil {
		err = c.session.Destroy()
		c.session = nil
	}
	if c.inputIDsTensor != nil {
		_ = c.inputIDsTensor.Destroy()
		c.inputIDsTensor = nil
	}
	if c.attentionMaskTensor != nil {
		_ = c.attentionMaskTensor.Destroy()
		c.attentionMaskTensor = nil
	}
	if c.outputTensor != nil {
		_ = c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	return err
}

// Package qr renders ticket codes as QR images and keeps them on disk.
package qr

import (
	"context"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// DefaultScale is the module size in pixels.
const DefaultScale = 20

var ErrEncoding = errors.New("qr encoding failed")

// Level is the error correction level of the symbol.
type Level int

const (
	LevelL Level = iota
	LevelM
	LevelQ
	LevelH
)

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelM:
		return qrcode.Medium
	case LevelH:
		return qrcode.Highest
	default:
		// go-qrcode's High is the 25% level, i.e. Q.
		return qrcode.High
	}
}

// Encode renders payload as a PNG with scale pixels per module. Output only
// depends on the arguments.
func Encode(payload string, level Level, scale int) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncoding)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale must be positive, got %d", ErrEncoding, scale)
	}

	code, err := qrcode.New(payload, level.recovery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	// A negative size asks go-qrcode for -size pixels per module.
	png, err := code.PNG(-scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return png, nil
}

// EncodeContext is Encode bounded by ctx. The encoder itself cannot be
// interrupted, so on timeout its result is discarded.
func EncodeContext(ctx context.Context, payload string, level Level, scale int) ([]byte, error) {
	type result struct {
		png []byte
		err error
	}

	done := make(chan result, 1)
	go func() {
		png, err := Encode(payload, level, scale)
		done <- result{png, err}
	}()

	select {
	case r := <-done:
		return r.png, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package misc

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinimalHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMinimalHandler(&buf, MinimalHandlerOptions{}))

	logger.Info("pool added", "weight", 1000, "asset", "LP")
	Debugf(logger, "hidden %d", 1)
	Warnf(logger.With("pool", 0), "emergency withdraw of %d", 49)

	assert.Equal(t, "pool added asset=LP weight=1000\nWARN: emergency withdraw of 49 pool=0\n", buf.String())
}

func TestMinimalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMinimalHandler(&buf, MinimalHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}}))
	Debugf(logger, "accrued %d", 333)
	assert.Equal(t, "accrued 333\n", buf.String())
}

package safe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/secmon-lab/pmotracker/pkg/utils/logging"
)

// Close closes closer and logs a failure instead of returning it. A nil
// closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close",
			slog.String("type", fmt.Sprintf("%T", closer)),
			slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. Used where the status line is
// already committed and the error cannot reach the client.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("Failed to write",
			slog.Int("bytes", len(data)),
			slog.Any("error", err))
	}
}

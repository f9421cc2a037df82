package transport

import (
	applog "spectra/internal/log"
)

// LoggingTransport implements the Transport interface by logging frames at
// debug level. Useful when no network consumer is attached.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received frame at debug level.
func (lt *LoggingTransport) Send(data any) error {
	if frame, ok := data.(*Frame); ok {
		applog.Debugf("Transport: frame %d (%d bars)", frame.Sequence, len(frame.Bars))
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)

package transport

// Transport defines a generic interface for sending processed spectrum
// frames. Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Frame is the payload handed to transports: one processed spectrum,
// resampled to the configured bar count.
type Frame struct {
	Sequence   uint32    `json:"sequence"`
	Timestamp  int64     `json:"timestamp"` // nanoseconds since epoch
	SampleRate int       `json:"sampleRate"`
	Scale      string    `json:"scale"`
	Bars       []float64 `json:"bars"`
	Peaks      []float64 `json:"peaks,omitempty"`
}

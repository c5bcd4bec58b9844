package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// TraceSink receives completed quote responses for diagnostics.
type TraceSink interface {
	Record(ctx context.Context, resp *Response) error
}

// JSONLSink writes one JSON document per response. It is safe for
// concurrent use.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink returns a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// Record implements TraceSink.
func (s *JSONLSink) Record(_ context.Context, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		return fmt.Errorf("writing trace %s: %w", resp.QuoteID, err)
	}
	return nil
}

// MemorySink keeps responses in memory.
type MemorySink struct {
	mu        sync.Mutex
	responses []*Response
}

// Record implements TraceSink.
func (s *MemorySink) Record(_ context.Context, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
	return nil
}

// Responses returns the recorded responses in arrival order.
func (s *MemorySink) Responses() []*Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Response(nil), s.responses...)
}

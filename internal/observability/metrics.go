package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transcription outcomes used as the "outcome" label
const (
	OutcomeSuccess     = "success"
	OutcomeQuiet       = "quiet"
	OutcomeEmpty       = "empty"
	OutcomeNoSpeech    = "no_speech"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	// Capture metrics
	recordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcriber_recording_active",
		Help: "1 while audio capture is running",
	})

	chunksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcriber_chunks_recorded_total",
		Help: "Total number of audio chunks written by the recorder",
	})

	samplesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcriber_samples_captured_total",
		Help: "Total audio samples received from the capture device",
	})

	// Queue metrics
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcriber_queue_depth",
		Help: "Number of chunks waiting for transcription",
	})

	// Transcription metrics
	chunkResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriber_chunk_results_total",
		Help: "Total processed chunks by outcome",
	}, []string{"outcome"})

	chunkLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcriber_chunk_latency_seconds",
		Help:    "Time from dequeue to published result",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriber_stt_requests_total",
		Help: "Total number of speech-to-text backend requests",
	}, []string{"backend", "status"})

	sttLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transcriber_stt_latency_seconds",
		Help:    "Speech-to-text backend latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"backend"})

	segmentsPerChunk = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcriber_segments_per_chunk",
		Help:    "Speech segments detected per chunk when diarization is enabled",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transcriber_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcriber_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// SetRecording flips the recording gauge
func SetRecording(active bool) {
	if active {
		recordingActive.Set(1)
		return
	}
	recordingActive.Set(0)
}

// RecordChunk records one chunk written by the recorder
func RecordChunk() {
	chunksRecorded.Inc()
}

// RecordSamples records samples received from the device
func RecordSamples(n int) {
	samplesCaptured.Add(float64(n))
}

// SetQueueDepth updates the pending chunk gauge
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// RecordChunkResult records the outcome and latency of one processed chunk
func RecordChunkResult(outcome string, latency time.Duration) {
	chunkResults.WithLabelValues(outcome).Inc()
	chunkLatency.Observe(latency.Seconds())
}

// RecordSTTRequest records a single backend call
func RecordSTTRequest(backend string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	sttRequests.WithLabelValues(backend, status).Inc()
	sttLatency.WithLabelValues(backend).Observe(latency.Seconds())
}

// RecordSegments records how many segments diarization produced
func RecordSegments(n int) {
	segmentsPerChunk.Observe(float64(n))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

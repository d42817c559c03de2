package model

// Sink receives enriched records at the end of the pipeline.
type Sink interface {
	// Emit hands one processed record to the sink. Implementations must be safe
	// for concurrent use.
	Emit(rec Record) error

	// Flush pushes out anything buffered.
	Flush() error
}

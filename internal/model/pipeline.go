package model

// Pipeline defines the common interface for an enrichment engine, allowing the
// batch and stream front ends to drive the same worker pool.
type Pipeline interface {
	// Start launches the pipeline's processing workers.
	Start()

	// Stop gracefully shuts down the pipeline, ensuring all records are processed and flushed.
	Stop()

	// Input returns the channel to which records should be sent for processing.
	Input() chan<- Record
}

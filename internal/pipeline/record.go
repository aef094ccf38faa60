package pipeline

// ConsoleDest is the destination of every record when no output files are
// configured.
const ConsoleDest = -1

// Record is one input line travelling through the pipeline.
type Record struct {
	// Dest indexes the destination list, or is ConsoleDest.
	Dest int
	// Seq is unique within Dest and follows input order.
	Seq int64
	// Value is the line content; the converter replaces it with the
	// canonical value.
	Value string
	// Terminator is the line ending read with the value: "\n", "\r\n", or
	// "" for a final unterminated line.
	Terminator string
	// Source indexes the source list.
	Source int
}

// PromptRequest asks for the canonical value of Key. Value is the original
// text of the first record seen with that key.
type PromptRequest struct {
	Key   string
	Value string
}

package porch

// pipelineMessage identifies a pipeline on the wire. Two pipelines with
// different triples are distinct queues even for the same task kind.
type pipelineMessage struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Version string `json:"version"`
}

// taskMessage is the envelope for task create, list, claim and update
// exchanges.
type taskMessage struct {
	Pipeline  pipelineMessage `json:"pipeline"`
	TaskInput Payload         `json:"task_input"`
	Status    Status          `json:"status"`
}

// claimMessage is the body of a claim request; only the pipeline
// identity is sent.
type claimMessage struct {
	Pipeline pipelineMessage `json:"pipeline"`
}

// tokenMessage is the response to a token mint request. The token is
// returned exactly once and cannot be recovered from the server again.
type tokenMessage struct {
	Token string `json:"token"`
}

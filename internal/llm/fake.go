package llm

import "context"

// FakeProvider is a deterministic stand-in for tests: it returns
// Script verbatim as a single chunk, or Err if set.
type FakeProvider struct {
	Script string
	Err    error
}

func (f *FakeProvider) Name() string  { return "fake" }
func (f *FakeProvider) Models() []Model { return []Model{{ID: "fake-model", Name: "Fake"}} }

func (f *FakeProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	out := make(chan *CompletionChunk, 2)
	if f.Err != nil {
		out <- &CompletionChunk{Error: f.Err}
		close(out)
		return out, nil
	}
	out <- &CompletionChunk{Text: f.Script}
	out <- &CompletionChunk{Done: true}
	close(out)
	return out, nil
}

package dialogue

import (
	"context"
	"fmt"
	"sort"

	"github.com/mirrorlab/rehearse/annotate"
	"github.com/mirrorlab/rehearse/chat"
)

// Annotate records the user's label guess for one message and checks it
// against the oracle. Repeated guesses on the same message keep incrementing
// attemptCount; the verdict always reflects the latest guess only.
func (e *Engine) Annotate(ctx context.Context, index int, label annotate.Label) (annotate.Annotation, error) {
	e.mu.Lock()
	if index < 0 || index >= len(e.messages) {
		e.mu.Unlock()
		return annotate.Annotation{}, chat.Validationf(fmt.Sprintf("message index %d out of range", index))
	}
	if !annotate.Known(label) {
		e.mu.Unlock()
		return annotate.Annotation{}, chat.Validationf(fmt.Sprintf("unknown label %q", label))
	}
	msg := e.messages[index]
	gen := e.generation
	e.mu.Unlock()

	verdict, err := e.checker.Check(ctx, msg, label)
	if err != nil {
		return annotate.Annotation{}, err
	}

	e.mu.Lock()
	if e.generation != gen || index >= len(e.messages) {
		e.mu.Unlock()
		return annotate.Annotation{}, chat.Validationf("message was removed by a reset")
	}
	ann := e.annotations[index]
	if ann == nil {
		ann = &annotate.Annotation{MessageIndex: index}
		e.annotations[index] = ann
	}
	ann.AttemptCount++
	ann.Label = label
	ann.Correct = verdict.Correct
	ann.Explanation = verdict.Explanation
	list := e.annotationListLocked()
	out := *ann
	e.mu.Unlock()

	e.persistSetField(ctx, fieldAnnotations, list)
	return out, nil
}

// Annotations returns a copy of all annotations, ordered by message index.
func (e *Engine) Annotations() []annotate.Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.annotationListLocked()
}

func (e *Engine) annotationList() []annotate.Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.annotationListLocked()
}

func (e *Engine) annotationListLocked() []annotate.Annotation {
	out := make([]annotate.Annotation, 0, len(e.annotations))
	for _, a := range e.annotations {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageIndex < out[j].MessageIndex })
	return out
}

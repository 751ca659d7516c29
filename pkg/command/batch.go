package command

// Batch runs its commands in order under one shared result set.
type Batch struct {
	// Lookup names the target session; informational only.
	Lookup   string
	commands []Command
}

var _ BatchCommand = (*Batch)(nil)

// NewBatch creates a batch of cmds.
func NewBatch(cmds ...Command) *Batch {
	return &Batch{commands: cmds}
}

// Append adds commands to the end of the batch.
func (b *Batch) Append(cmds ...Command) *Batch {
	b.commands = append(b.commands, cmds...)
	return b
}

// Commands returns the sub-commands in execution order.
func (b *Batch) Commands() []Command {
	return append([]Command(nil), b.commands...)
}

// Execute runs every sub-command under a fresh FixedContext bound to the same
// session and results. It returns the shared results, or the first error.
func (b *Batch) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	results := ctx.Results()
	if results == nil {
		results = NewExecutionResults()
	}
	for _, cmd := range b.commands {
		sub := NewFixedContext(ctx, "", rc.KnowledgeBase(), rc.Runtime(), results)
		if _, err := cmd.Execute(sub); err != nil {
			return nil, err
		}
	}
	return results, nil
}

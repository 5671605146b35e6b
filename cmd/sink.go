package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dickon/multigit/internal/multigit"
)

// loggingSink is the stand-in change sink used when multigit is run as a
// standalone CLI rather than embedded in a CI master. The real sink (a
// build master's change database, a message queue, ...) is an external
// collaborator out of this module's scope; this one just narrates what
// would have been recorded.
type loggingSink struct{}

func (loggingSink) RecordChange(_ context.Context, record multigit.ChangeRecord) error {
	log.WithFields(log.Fields{
		"branch":  record.Branch,
		"project": record.Project,
		"author":  record.Author,
		"when":    time.Unix(record.When, 0).Format(time.RFC3339),
		"files":   len(record.Files),
	}).Infof("recorded change %s", record.Revision)
	return nil
}

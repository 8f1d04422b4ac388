package main

import (
	"bufio"
	"context"

	"github.com/pkg/errors"

	"github.com/devnest/devnest/core/registration"
)

// export writes the submissions of event in the same layout as the csv store.
func (cli *commandLine) export(event string) error {
	svc, err := cli.openService()
	if err != nil {
		return err
	}

	schema, err := svc.Schema(event)
	if err != nil {
		return err
	}
	recs, err := svc.Submissions(context.Background(), event)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}

	w := bufio.NewWriter(cli.out)
	_, _ = w.WriteString(registration.EncodeHeader(schema.Columns) + "\n")
	for _, rec := range recs {
		_, _ = w.WriteString(registration.EncodeRow(rec.Values(schema.Columns)) + "\n")
	}
	return errors.Wrap(w.Flush(), "writing csv")
}

package main

import (
	"context"
	"fmt"
	"time"
)

// notify runs the payment reminders once, outside of the API's scheduler.
func (cli *commandLine) notify(today time.Time) error {
	reports, err := cli.reminders.Run(context.Background(), today)
	for _, r := range reports {
		fmt.Fprintf(cli.out, "%s (%s): %d checked, %d sent, %d skipped, %d failed\n",
			r.KindLabel(), r.Date, r.Checked, r.Sent, r.Skipped, r.Failed)
		for _, f := range r.Failures {
			fmt.Fprintf(cli.out, "  - #%d %s: %s\n", f.StudentID, f.Name, f.Reason)
		}
	}
	return err
}

package service

import (
	"errors"
	"fmt"

	"github.com/Srijit23/Chessify/game/session"
)

// DeliveryFailure is one recipient that did not accept a payload.
type DeliveryFailure struct {
	MemberID string
	Err      error
}

// DeliveryReport summarizes one fan-out.
type DeliveryReport struct {
	Delivered int
	Failures  []DeliveryFailure
}

// Err joins every failure, or returns nil when all sends succeeded.
func (r DeliveryReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("conn %s: %w", f.MemberID, f.Err))
	}
	return errors.Join(errs...)
}

// Deliver sends payload to each target in order, skipping nil targets.
// Every target is attempted regardless of earlier failures.
func Deliver(targets []session.Member, payload []byte) DeliveryReport {
	var report DeliveryReport
	for _, t := range targets {
		if t == nil {
			continue
		}
		if err := t.Send(payload); err != nil {
			report.Failures = append(report.Failures, DeliveryFailure{MemberID: t.ID(), Err: err})
			continue
		}
		report.Delivered++
	}
	return report
}

package approval

import (
	"context"
	"time"

	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
)

type SweepFailure struct {
	SubjectID int64  `json:"subjectId"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// SweepReport summarises one pass. Rejected keeps list order.
type SweepReport struct {
	Examined int            `json:"examined"`
	Rejected []int64        `json:"rejected"`
	Failures []SweepFailure `json:"failures"`
}

func (r SweepReport) Failed() bool {
	return len(r.Failures) > 0
}

// Sweep rejects every Pending subject whose due date is strictly before now, one at a time
// in list order. A failure is recorded and the pass continues with the next subject.
func (s *Service) Sweep(ctx context.Context, subjects []approvalmodel.Subject, now time.Time) SweepReport {
	report := SweepReport{
		Examined: len(subjects),
		Rejected: []int64{},
		Failures: []SweepFailure{},
	}

	for _, subject := range subjects {
		if subject.Status != approvalmodel.StatusPending || !subject.IsOverdue(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, SweepFailure{SubjectID: subject.ID, Err: err, Message: err.Error()})
			s.metrics.RecordSweep("cancelled")
			continue
		}

		if err := s.backend.UpdateInvestmentStatus(ctx, subject.ID, approvalmodel.StatusRejected); err != nil {
			s.logger.Warn("sweep failed to reject overdue subject", "subject_id", subject.ID, "error", err)
			report.Failures = append(report.Failures, SweepFailure{SubjectID: subject.ID, Err: err, Message: err.Error()})
			s.metrics.RecordSweep("failed")
			continue
		}

		report.Rejected = append(report.Rejected, subject.ID)
		s.metrics.RecordSweep("rejected")
	}

	if len(report.Rejected) > 0 || len(report.Failures) > 0 {
		s.logger.Info("due-date sweep finished",
			"examined", report.Examined,
			"rejected", len(report.Rejected),
			"failed", len(report.Failures))
	}
	return report
}

// LoadAndSweep fetches the investment items and runs one sweep over them. The returned list
// reflects the rejections the sweep applied.
func (s *Service) LoadAndSweep(ctx context.Context) ([]approvalmodel.Subject, SweepReport, error) {
	subjects, err := s.InvestmentItems(ctx)
	if err != nil {
		s.logger.Error("failed to load investment items", "error", err)
		return nil, SweepReport{}, err
	}

	report := s.Sweep(ctx, subjects, s.now())

	rejected := make(map[int64]struct{}, len(report.Rejected))
	for _, id := range report.Rejected {
		rejected[id] = struct{}{}
	}
	for i := range subjects {
		if _, ok := rejected[subjects[i].ID]; ok {
			subjects[i].Status = approvalmodel.StatusRejected
		}
	}
	return subjects, report, nil
}

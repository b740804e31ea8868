package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// BatchAssignment is one route placed by a batch run.
type BatchAssignment struct {
	RouteID string
	StaffID string
	Score   float64
}

// BatchFailure is one route a batch run could not place, and why.
type BatchFailure struct {
	RouteID string
	Err     error
}

type BatchResult struct {
	Succeeded []BatchAssignment
	Failed    []BatchFailure
}

// AssignAllPending runs AssignBest for every pending route, one at a time.
//
// A failure on one route is recorded and the loop moves on, so operators see
// exactly which routes were not placed while every match still commits.
// Cancelling ctx stops the run between routes; the partial result is returned
// together with the context error.
func (a *Assigner) AssignAllPending(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	pending, err := a.Routes.FindPending(ctx)
	if err != nil {
		return res, fmt.Errorf("assign all pending: list pending routes: %w", err)
	}

	log := a.logger().WithField("pending", len(pending))
	log.Info("batch assignment started")

	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			a.metrics().ObserveBatch(len(res.Succeeded), len(res.Failed))
			return res, fmt.Errorf("assign all pending: stopped after %d of %d routes: %w",
				len(res.Succeeded)+len(res.Failed), len(pending), err)
		}

		out, err := a.AssignBest(ctx, r.ID)
		if err != nil {
			a.logger().WithError(err).WithField("route_id", r.ID).Warn("route not assigned")
			res.Failed = append(res.Failed, BatchFailure{RouteID: r.ID, Err: err})
			continue
		}

		res.Succeeded = append(res.Succeeded, BatchAssignment{
			RouteID: out.RouteID,
			StaffID: out.StaffID,
			Score:   out.Score,
		})
	}

	a.metrics().ObserveBatch(len(res.Succeeded), len(res.Failed))
	log.WithFields(logrus.Fields{
		"succeeded": len(res.Succeeded),
		"failed":    len(res.Failed),
	}).Info("batch assignment finished")

	return res, nil
}

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/asset-portal/internal/auth"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/asset"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/message"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Backend interface {
	MyMessages(ctx context.Context) ([]message.Message, error)
	InvestmentItems(ctx context.Context) ([]approval.Subject, error)
	Requests(ctx context.Context) ([]approval.Subject, error)
	Assets(ctx context.Context) ([]asset.Asset, error)
}

// Source derives notifications for the viewer from one backend query.
type Source struct {
	Name  string
	Fetch func(ctx context.Context, viewer session.State, now time.Time) ([]Notification, error)
}

// DefaultSources is the fixed battery queried on every poll.
func DefaultSources(backend Backend) []Source {
	return []Source{
		{Name: "messages", Fetch: unreadMessages(backend)},
		{Name: "investments", Fetch: pendingInvestments(backend)},
		{Name: "requests", Fetch: approvedRequests(backend)},
		{Name: "assets", Fetch: assetUpdates(backend)},
	}
}

func unreadMessages(backend Backend) func(context.Context, session.State, time.Time) ([]Notification, error) {
	return func(ctx context.Context, _ session.State, _ time.Time) ([]Notification, error) {
		messages, err := backend.MyMessages(ctx)
		if err != nil {
			return nil, err
		}
		var out []Notification
		for _, m := range messages {
			if m.Read {
				continue
			}
			out = append(out, Notification{
				Type:     LevelInfo,
				Text:     fmt.Sprintf("New message from %s: %s", m.From, m.Subject),
				Priority: PriorityUnreadMessage,
				Category: CategoryMessage,
				RefID:    m.ID,
			})
		}
		return out, nil
	}
}

// pendingInvestments shows approvers every pending item and requesters their own overdue ones.
func pendingInvestments(backend Backend) func(context.Context, session.State, time.Time) ([]Notification, error) {
	return func(ctx context.Context, viewer session.State, now time.Time) ([]Notification, error) {
		items, err := backend.InvestmentItems(ctx)
		if err != nil {
			return nil, err
		}
		approver := auth.IsApprover(viewer.Identity)
		var out []Notification
		for _, item := range items {
			if item.Status != approval.StatusPending {
				continue
			}
			overdue := item.IsOverdue(now)
			switch {
			case overdue && (approver || item.RequestedBy == viewer.UserID()):
				out = append(out, Notification{
					Type:     LevelUrgent,
					Text:     fmt.Sprintf("Investment item #%d is past its due date", item.ID),
					Priority: PriorityOverdueInvestment,
					Category: CategoryInvestment,
					RefID:    item.ID,
				})
			case approver:
				out = append(out, Notification{
					Type:     LevelWarning,
					Text:     fmt.Sprintf("Investment item #%d is awaiting your decision", item.ID),
					Priority: PriorityPendingInvestment,
					Category: CategoryInvestment,
					RefID:    item.ID,
				})
			}
		}
		return out, nil
	}
}

func approvedRequests(backend Backend) func(context.Context, session.State, time.Time) ([]Notification, error) {
	return func(ctx context.Context, viewer session.State, _ time.Time) ([]Notification, error) {
		requests, err := backend.Requests(ctx)
		if err != nil {
			return nil, err
		}
		var out []Notification
		for _, r := range requests {
			if r.Status != approval.StatusApproved || r.RequestedBy != viewer.UserID() {
				continue
			}
			out = append(out, Notification{
				Type:     LevelInfo,
				Text:     fmt.Sprintf("Your request #%d was approved", r.ID),
				Priority: PriorityRequestApproved,
				Category: CategoryRequest,
				RefID:    r.ID,
			})
		}
		return out, nil
	}
}

func assetUpdates(backend Backend) func(context.Context, session.State, time.Time) ([]Notification, error) {
	return func(ctx context.Context, viewer session.State, _ time.Time) ([]Notification, error) {
		assets, err := backend.Assets(ctx)
		if err != nil {
			return nil, err
		}
		var out []Notification
		for _, a := range assets {
			if a.AssignedTo != viewer.UserID() {
				continue
			}
			if a.Status == asset.StatusInMaintenance {
				out = append(out, Notification{
					Type:     LevelWarning,
					Text:     fmt.Sprintf("Asset %s is in maintenance", a.SerialNumber),
					Priority: PriorityAssetInMaintenance,
					Category: CategoryAsset,
					RefID:    a.ID,
				})
			}
			if a.Approved {
				out = append(out, Notification{
					Type:     LevelInfo,
					Text:     fmt.Sprintf("Asset %s was approved", a.SerialNumber),
					Priority: PriorityAssetApproved,
					Category: CategoryAsset,
					RefID:    a.ID,
				})
			}
		}
		return out, nil
	}
}

package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ServiceRecent returns the most recent activity entries.
const ServiceRecent = "recent-activity"

// RecentRequest asks for at most Limit entries; zero means all.
type RecentRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RecentResponse lists entries, newest first.
type RecentResponse struct {
	Entries []Entry `json:"entries"`
}

// ActivityPort is the interface other modules use to read the activity trail.
type ActivityPort interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

func (m *ActivityModule) recentActivity(_ context.Context, req RecentRequest, _ *mono.Msg) (RecentResponse, error) {
	return RecentResponse{Entries: m.Recent(req.Limit)}, nil
}

type activityAdapter struct {
	container mono.ServiceContainer
}

// NewActivityAdapter creates an ActivityPort over the activity module's service container.
func NewActivityAdapter(container mono.ServiceContainer) ActivityPort {
	return &activityAdapter{container: container}
}

func (a *activityAdapter) Recent(ctx context.Context, limit int) ([]Entry, error) {
	req := RecentRequest{Limit: limit}
	var resp RecentResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRecent,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", ServiceRecent, err)
	}
	if resp.Entries == nil {
		resp.Entries = []Entry{}
	}
	return resp.Entries, nil
}

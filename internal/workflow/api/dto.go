package api

import (
	"time"

	"fuelserve/internal/workflow/app"
	"fuelserve/internal/workflow/domain"
)

type SetAvailabilityRequest struct {
	Availability string `json:"availability"`
}

type CompleteRequest struct {
	ActualCost *float64 `json:"actual_cost,omitempty"`
}

type WorkItemResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	RequesterID string    `json:"requester_id"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	Status      string    `json:"status"`
	Price       float64   `json:"price"`
	ActualCost  *float64  `json:"actual_cost,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorkerResponse struct {
	ID              string  `json:"id"`
	Role            string  `json:"role"`
	Availability    string  `json:"availability"`
	AccruedEarnings float64 `json:"accrued_earnings"`
	Rating          float64 `json:"rating"`
}

type DashboardResponse struct {
	Worker      WorkerResponse         `json:"worker"`
	RecentItems []WorkItemResponse     `json:"recent_items"`
	Counts      domain.DashboardCounts `json:"counts"`
}

func toItemResponse(item *domain.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		ID:          item.ID,
		Kind:        string(item.Kind),
		RequesterID: item.RequesterID,
		AssigneeID:  item.AssigneeID,
		Status:      item.Status,
		Price:       item.Price,
		ActualCost:  item.ActualCost,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func toItemResponses(items []domain.WorkItem) []WorkItemResponse {
	out := make([]WorkItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return out
}

func toWorkerResponse(worker *domain.WorkerProfile) WorkerResponse {
	return WorkerResponse{
		ID:              worker.ID,
		Role:            string(worker.Role),
		Availability:    worker.Availability,
		AccruedEarnings: worker.AccruedEarnings,
		Rating:          worker.Rating,
	}
}

func toDashboardResponse(summary *app.DashboardSummary) DashboardResponse {
	return DashboardResponse{
		Worker:      toWorkerResponse(summary.Worker),
		RecentItems: toItemResponses(summary.RecentItems),
		Counts:      *summary.Counts,
	}
}

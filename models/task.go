package models

import "encoding/json"

// TaskStatus represents the progress of a delivery task.
// completed is terminal: no transition leaves it.
type TaskStatus string

const (
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// DeliveryTask represents a delivery assignment binding one driver and one
// truck (both from the owning company) to an ordered set of destinations.
// RouteData is an opaque blob returned by the external routing service;
// on routing failure it holds {"error":"routing_failed","message":...}.
type DeliveryTask struct {
	ID            int64           `db:"id" json:"id"`
	CompanyID     int64           `db:"company_id" json:"company"`
	DriverID      int64           `db:"driver_id" json:"driver"`
	TruckID       int64           `db:"truck_id" json:"truck"`
	ProductName   string          `db:"product_name" json:"product_name"`
	ProductWeight int             `db:"product_weight" json:"product_weight"`
	Status        TaskStatus      `db:"status" json:"status"`
	RouteData     json.RawMessage `db:"route_data" json:"route_data"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	UpdatedAt     string          `db:"updated_at" json:"updated_at"`

	// DestinationIDs holds the task's destinations in delivery order.
	// Loaded from task_destinations, not a column.
	DestinationIDs []int64 `json:"destination_ids"`
}

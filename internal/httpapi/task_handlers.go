package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/assignment"
	"truckFleetManagement/models"
	"truckFleetManagement/repository"
)

// taskFilterFromQuery parses ?status= (comma separated), ?driver= and ?truck=.
func taskFilterFromQuery(r *http.Request) (repository.TaskListFilter, error) {
	var f repository.TaskListFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, models.TaskStatus(strings.TrimSpace(s)))
		}
	}
	for name, dst := range map[string]**int64{"driver": &f.DriverID, "truck": &f.TruckID} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || v <= 0 {
				return f, apperr.Validation("invalid filter", map[string]any{name: "must be a positive integer"})
			}
			*dst = &v
		}
	}
	return f, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter, err := taskFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := s.tasks.List(r.Context(), id.Scope(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(tasks))
}

// handleActiveTasks returns non-terminal tasks only.
func (s *Server) handleActiveTasks(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tasks, err := s.tasks.List(r.Context(), id.Scope(), repository.TaskListFilter{
		Statuses: []models.TaskStatus{models.TaskStatusAssigned, models.TaskStatusInProgress},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(tasks))
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in assignment.AssignInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	task, err := s.engine.Assign(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.tasks.GetByID(r.Context(), id.Scope(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if task == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "delivery task not found"))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type taskUpdatePayload struct {
	ProductName    string  `json:"product_name"`
	ProductWeight  int     `json:"product_weight"`
	DestinationIDs []int64 `json:"destination_ids"`
}

// handleUpdateTask edits the product fields and destination set. Status,
// driver and truck never change here; status only moves through the
// transition endpoints.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	taskID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req taskUpdatePayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := s.tasks.UpdateProduct(r.Context(), id.Scope(), taskID, req.ProductName, req.ProductWeight, req.DestinationIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	taskID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.tasks.Delete(r.Context(), id.Scope(), taskID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartTask(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Start)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Complete)
}

func (s *Server) handleOptimizeRoute(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.OptimizeRoute)
}

// transition runs one of the engine's task operations; authorization lives
// in the engine because it depends on the task being acted on.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id access.Identity, taskID int64) (*models.DeliveryTask, error)) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	taskID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := op(r.Context(), id, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

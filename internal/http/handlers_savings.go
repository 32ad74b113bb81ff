package http

import (
	"fmt"
	"net/http"

	"budget/internal/core"
)

// goalView adds the derived progress to a goal.
type goalView struct {
	core.SavingGoal
	Progress float64 `json:"progress_percentage"`
}

func newGoalView(g core.SavingGoal) goalView {
	return goalView{SavingGoal: g, Progress: g.ProgressPercentage().Round(2).InexactFloat64()}
}

var goalForm = []formField{
	{Name: "name", Type: "text", Required: true},
	{Name: "target_amount", Type: "decimal", Required: true},
	{Name: "current_amount", Type: "decimal"},
	{Name: "deadline", Type: "date"},
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.savings.Goals(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]goalView, len(goals))
	for i, g := range goals {
		views[i] = newGoalView(g)
	}
	NewResponse().With("goals", views).Write(w)
}

func (s *Server) handleGoalForm(w http.ResponseWriter, r *http.Request) {
	NewResponse().With("fields", goalForm).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseGoalInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.savings.CreateGoal(r.Context(), currentUser(r).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Goal created.").With("goal", newGoalView(g)).Write(w)
}

func (s *Server) handleEditGoalForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.savings.Goal(r.Context(), currentUser(r).ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().With("fields", goalForm).With("goal", newGoalView(g)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := parseGoalInput(p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.savings.UpdateGoal(r.Context(), currentUser(r).ID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Goal updated.").With("goal", newGoalView(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = s.savings.DeleteGoal(r.Context(), currentUser(r).ID, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message("Goal deleted.").With("id", id).Write(w)
}

// handleAdjustGoal adds to or subtracts from the saved amount. The amount
// must be strictly positive; subtracting never goes below zero.
func (s *Server) handleAdjustGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.savings.AdjustAmount(r.Context(), currentUser(r).ID, id, p.Get("amount"), p.Get("action"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Message(fmt.Sprintf("Updated %s.", g.Name)).With("goal", newGoalView(g)).Write(w)
}

package handlers

import (
	"net/http"

	"eets/internal/logger"
	"eets/internal/tracker"

	"go.uber.org/zap"
)

// VisualizationViewModel is the data passed to the visualization template.
type VisualizationViewModel struct {
	HasData bool
	Summary tracker.Summary
}

// Visualization renders the logged-in employee's spending by category and by
// date.
func (h *Handlers) Visualization(w http.ResponseWriter, r *http.Request) {
	employeeID := EmployeeID(r)
	expenses, err := h.svc.ExpensesFor(r.Context(), employeeID)
	if err != nil {
		logger.Log.Errorw("list expenses failed", "employee_id", employeeID, zap.Error(err))
		h.renderError(w, msgUnexpected)
		return
	}

	h.render(w, "visualization.html", VisualizationViewModel{
		HasData: len(expenses) > 0,
		Summary: tracker.Summarize(expenses),
	})
}

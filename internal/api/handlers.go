package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/engine"
	"github.com/betmanager/betmanager/internal/insights"
	"github.com/betmanager/betmanager/internal/registry"
)

// ─── Snapshots ──────────────────────────────────────────────────────────────

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// GET /api/logs
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Logs)
}

// GET /api/tasks?status=PENDING
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.engine.Snapshot().Tasks
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Status == domain.TaskStatus(status) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GET /api/packs
func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Packs)
}

// GET /api/accounts?status=ACTIVE
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.engine.Snapshot().Accounts
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := accounts[:0]
		for _, a := range accounts {
			if a.Status == domain.AccountStatus(status) {
				filtered = append(filtered, a)
			}
		}
		accounts = filtered
	}
	writeJSON(w, http.StatusOK, accounts)
}

// ─── Task Commands ──────────────────────────────────────────────────────────

// POST /api/tasks
// The configured task-type and house sets are the validation boundary
// here — the engine itself treats both as opaque strings.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in engine.CreateTaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Type != "" && !s.settings.ValidType(in.Type) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown task type %q", in.Type))
		return
	}
	if in.House != "" && !s.settings.ValidHouse(in.House) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown house %q", in.House))
		return
	}
	task, err := s.engine.CreateTask(in)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// POST /api/tasks/{id}/status
func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status domain.TaskStatus `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	task, err := s.engine.ChangeStatus(chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// PATCH /api/tasks/{id}
func (s *Server) handleEditTask(w http.ResponseWriter, r *http.Request) {
	var u registry.TaskUpdate
	if !decodeBody(w, r, &u) {
		return
	}
	task, err := s.engine.EditTask(chi.URLParam(r, "id"), u)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DELETE /api/tasks/{id}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}
	task, err := s.engine.DeleteTask(chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// POST /api/tasks/{id}/finish
func (s *Server) handleFinishDelivery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Accounts []registry.AccountData `json:"accounts"`
		PackID   string                 `json:"packId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := s.engine.FinishDelivery(chi.URLParam(r, "id"), body.Accounts, body.PackID)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Pack Commands ──────────────────────────────────────────────────────────

// POST /api/packs
func (s *Server) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	var body struct {
		House    string  `json:"house"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	pack, err := s.engine.CreatePack(body.House, body.Quantity, body.Price)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pack)
}

// ─── Account Commands ───────────────────────────────────────────────────────

// POST /api/accounts — create when the payload has no id, edit otherwise.
func (s *Server) handleSaveAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		domain.Account
		PackID string `json:"attributeToPackId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	acc, err := s.engine.SaveAccount(body.Account, body.PackID)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	status := http.StatusCreated
	if body.Account.ID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, acc)
}

type accountActionBody struct {
	CreateWithdrawal bool   `json:"createWithdrawal"`
	PixKeyInfo       string `json:"pixKeyInfo"`
}

// POST /api/accounts/{id}/limit
func (s *Server) handleLimitAccount(w http.ResponseWriter, r *http.Request) {
	var body accountActionBody
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}
	acc, err := s.engine.LimitAccount(chi.URLParam(r, "id"), body.CreateWithdrawal, body.PixKeyInfo)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// POST /api/accounts/{id}/replacement
func (s *Server) handleMarkReplacement(w http.ResponseWriter, r *http.Request) {
	var body accountActionBody
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}
	acc, err := s.engine.MarkReplacement(chi.URLParam(r, "id"), body.CreateWithdrawal, body.PixKeyInfo)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// ─── Insights ───────────────────────────────────────────────────────────────

// GET /api/insights/summary
func (s *Server) handleInsightsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insights.Summarize(s.engine.Snapshot()))
}

// GET /api/insights/deposits
func (s *Server) handleInsightsDeposits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insights.DepositsByHouse(s.engine.Snapshot(), s.settings.Houses()))
}

// GET /api/insights/status
func (s *Server) handleInsightsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insights.StatusDistribution(s.engine.Snapshot()))
}

// GET /api/insights/volume
func (s *Server) handleInsightsVolume(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, insights.VolumeByHouse(s.engine.Snapshot(), s.settings.Houses()))
}

// ─── Settings ───────────────────────────────────────────────────────────────

// GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"houses":    s.settings.Houses(),
		"taskTypes": s.settings.TaskTypes(),
		"pixKeys":   s.settings.PixKeys(),
	})
}

// POST /api/settings/houses
func (s *Server) handleAddHouse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.settings.AddHouse(body.Name); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.settings.Houses())
}

// DELETE /api/settings/houses/{name}
func (s *Server) handleRemoveHouse(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.RemoveHouse(chi.URLParam(r, "name")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.settings.Houses())
}

// POST /api/settings/task-types
func (s *Server) handleAddTaskType(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	opt, err := s.settings.AddTaskType(body.Label)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, opt)
}

// DELETE /api/settings/task-types/{value}
func (s *Server) handleRemoveTaskType(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.RemoveTaskType(chi.URLParam(r, "value")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.settings.TaskTypes())
}

// POST /api/settings/pix-keys
func (s *Server) handleAddPixKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Bank    string `json:"bank"`
		KeyType string `json:"keyType"`
		Key     string `json:"key"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	pk, err := s.settings.AddPixKey(body.Name, body.Bank, body.KeyType, body.Key)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pk)
}

// DELETE /api/settings/pix-keys/{id}
func (s *Server) handleRemovePixKey(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.RemovePixKey(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.settings.PixKeys())
}

// POST /api/settings/default-pix-key
func (s *Server) handleSetDefaultPixKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.settings.SetDefaultPixKey(body.ID); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.settings.CurrentUser())
}

// POST /api/settings/reset
func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.ResetDefaults(); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"houses":    s.settings.Houses(),
		"taskTypes": s.settings.TaskTypes(),
	})
}

// ─── Session ────────────────────────────────────────────────────────────────

// GET /api/session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user := s.settings.CurrentUser()
	if user == nil {
		writeError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// POST /api/session/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	user, err := s.settings.Login(body.Name, body.Email)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// POST /api/session/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.Logout(); err != nil {
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

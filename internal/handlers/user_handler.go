package handlers

import (
	"net/http"
	"strconv"

	"cold-backend/internal/cache"
	"cold-backend/internal/models"
	"cold-backend/internal/services"
	"cold-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	Service *services.UserService
}

func NewUserHandler(s *services.UserService) *UserHandler {
	return &UserHandler{Service: s}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	user, err := h.Service.CreateUser(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateUserCaches(r.Context())
	utils.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		utils.WriteError(w, utils.NewError(utils.NotFound, "user not found"))
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req models.UpdateUserRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	user, err := h.Service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateUserCaches(r.Context())
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateUserCaches(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword is an admin/superadmin action against another user's account.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	var req models.ResetPasswordRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Service.ResetPassword(r.Context(), id, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

func idParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, utils.NewError(utils.Validation, "invalid id")
	}
	return id, nil
}

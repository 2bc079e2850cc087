package controllers

import (
	"net/http"

	"github.com/angelmondragon/tableside-backend/api/responses"
	"github.com/angelmondragon/tableside-backend/api/validators"
	servercallsvc "github.com/angelmondragon/tableside-backend/internal/servercalls"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	"github.com/angelmondragon/tableside-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

type serverCallRequest struct {
	RestaurantID int64 `json:"restaurantId" validate:"required,gt=0"`
	TableNumber  int   `json:"tableNumber" validate:"required,min=1"`
}

type serverCallStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ServerCallCreate(svc servercallsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "server call service unavailable"))
			return
		}

		var payload serverCallRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		call, err := svc.CallServer(r.Context(), payload.RestaurantID, payload.TableNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, call)
	}
}

// ServerCallList lists a restaurant's calls, optionally filtered by ?status=.
func ServerCallList(svc servercallsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "server call service unavailable"))
			return
		}

		restaurantID, err := validators.PathID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseServerCallStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		calls, err := svc.ListServerCalls(r.Context(), restaurantID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if calls == nil {
			calls = []models.ServerCall{}
		}
		responses.WriteSuccess(w, calls)
	}
}

func ServerCallUpdateStatus(svc servercallsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "server call service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload serverCallStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseServerCallStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid server call status"))
			return
		}

		call, err := svc.UpdateServerCallStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, call)
	}
}

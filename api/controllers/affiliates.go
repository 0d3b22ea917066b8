package controllers

import (
	"net/http"

	"github.com/agilaxstudios/agilax-backend/api/responses"
	"github.com/agilaxstudios/agilax-backend/internal/affiliates"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
)

// AffiliateDashboard returns the caller's affiliate dashboard.
func AffiliateDashboard(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliates service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dashboard, err := svc.Dashboard(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// AdminListAffiliates returns the affiliate roster for the back office.
func AdminListAffiliates(svc affiliates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliates service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

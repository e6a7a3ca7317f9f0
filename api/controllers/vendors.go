package controllers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/velamart/velamart-backend/api/middleware"
	"github.com/velamart/velamart-backend/api/responses"
	"github.com/velamart/velamart-backend/internal/vendors"
	"github.com/velamart/velamart-backend/pkg/access"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
	"github.com/velamart/velamart-backend/pkg/logger"
)

// ListVendors returns the active vendor directory.
func ListVendors(repo *vendors.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list vendors"))
			return
		}
		items := make([]vendors.VendorDTO, 0, len(rows))
		for i := range rows {
			items = append(items, *vendors.FromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// VendorProfile returns the calling vendor's own profile.
func VendorProfile(repo *vendors.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := repo.FindByUserID(r.Context(), actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no vendor profile for user"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor profile"))
			return
		}
		responses.WriteSuccess(w, vendors.FromModel(vendor))
	}
}

// AdminDeactivateVendor soft-deletes a vendor profile. Their listings stay in
// place but stop being orderable once marked unavailable by the vendor flow.
func AdminDeactivateVendor(repo *vendors.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := access.CanManageVendors(actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := pathUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := repo.FindByID(r.Context(), vendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor"))
			return
		}
		if err := repo.Deactivate(r.Context(), vendorID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate vendor"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}

package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/agilaxstudios/agilax-backend/api/responses"
	"github.com/agilaxstudios/agilax-backend/api/validators"
	"github.com/agilaxstudios/agilax-backend/internal/orders"
	"github.com/agilaxstudios/agilax-backend/pkg/config"
	pkgerrors "github.com/agilaxstudios/agilax-backend/pkg/errors"
	"github.com/agilaxstudios/agilax-backend/pkg/logger"
)

const screenshotFormField = "screenshot"

type checkoutForm struct {
	Email     string `json:"email" validate:"required,email"`
	VisitorID string `json:"visitor_id"`
}

// Checkout accepts the public multipart order submission: buyer email, an
// optional visitor id for referral attribution, and the UPI payment
// screenshot.
func Checkout(svc orders.Service, cfg config.StorageConfig, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "upload too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		form := checkoutForm{
			Email:     validators.SanitizeString(r.FormValue("email"), 320),
			VisitorID: validators.SanitizeString(r.FormValue("visitor_id"), 128),
		}
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.SubmitOrderInput{
			BuyerEmail: strings.ToLower(form.Email),
			VisitorID:  form.VisitorID,
		}

		file, header, err := r.FormFile(screenshotFormField)
		switch {
		case err == nil:
			defer func() { _ = file.Close() }()
			data, readErr := io.ReadAll(file)
			if readErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, readErr, "read screenshot"))
				return
			}
			input.Screenshot = data
			input.ScreenshotFilename = header.Filename
			input.ScreenshotContentType = header.Header.Get("Content-Type")
		case errors.Is(err, http.ErrMissingFile):
			// The storefront records a placeholder when no proof is attached.
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read screenshot"))
			return
		}

		order, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

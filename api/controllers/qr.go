package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/angelmondragon/tableside-backend/api/responses"
	"github.com/angelmondragon/tableside-backend/api/validators"
	"github.com/angelmondragon/tableside-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tableside-backend/pkg/errors"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
	"github.com/angelmondragon/tableside-backend/pkg/tablelink"
)

type restaurantGetter interface {
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
}

// TableQRCode renders the PNG QR code printed on a table. The encoded link
// opens the diner app with the restaurant and table preselected.
func TableQRCode(restaurants restaurantGetter, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if restaurants == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		restaurantID, err := validators.PathID(r, "restaurantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tableNumber, err := validators.PathID(r, "tableNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", tablelink.DefaultQRSize, 64, 1024)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := restaurants.GetRestaurant(r.Context(), restaurantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		png, err := tablelink.QRCode(baseURL, tablelink.Link{
			RestaurantID: restaurantID,
			TableNumber:  int(tableNumber),
		}, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr code"))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

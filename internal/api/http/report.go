package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/service/reporting"
)

const missingFieldsMessage = "Faltan campos requeridos (nombre, teléfono o ubicación)"

// reportRequest is the body of POST /api/{channel}/send.
type reportRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location *struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"location"`
}

// reportResponse is returned once the broadcast ran.
type reportResponse struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	Delivered int    `json:"delivered"`
	Total     int    `json:"total"`
}

// handleReport validates and broadcasts a report on channelName.
func (h *handler) handleReport(channelName, displayName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body reportRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, missingFieldsMessage, err)
			return
		}

		req := reporting.Request{
			Name:  body.Name,
			Phone: body.Phone,
		}

		if body.Location != nil {
			req.Latitude = body.Location.Lat
			req.Longitude = body.Location.Lng
		}

		summary, err := h.opts.Reporter.Report(ctx, channelName, req)

		switch {
		case errors.Is(err, alert.ErrValidation):
			writeError(w, http.StatusBadRequest, missingFieldsMessage, err)
		case err != nil:
			logger.ErrorKV(ctx, "Failed to broadcast report", "channel", channelName, "error", err)
			writeError(w, http.StatusInternalServerError, "Error al enviar mensaje a "+displayName, err)
		default:
			writeJSON(w, http.StatusOK, reportResponse{
				Success:   true,
				ID:        summary.ID,
				Delivered: summary.Delivered(),
				Total:     summary.Total(),
			})
		}
	}
}

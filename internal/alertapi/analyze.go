package alertapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/pulsewatch/internal/vitals"
)

// analyzeRequest is a manual analysis call: one subject, one raw reading.
// The vitals payload accepts both field naming conventions, same as the
// polled feed.
type analyzeRequest struct {
	SubjectID string             `json:"subject_id"`
	Vitals    vitals.WireReading `json:"vitals"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if req.SubjectID == "" {
		http.Error(w, `{"error":"subject_id is required"}`, http.StatusBadRequest)
		return
	}

	alerts := a.svc.Analyze(r.Context(), req.SubjectID, vitals.Normalize(req.Vitals))

	a.logger.Info(r.Context(), "manual analysis",
		"subject_id", req.SubjectID,
		"alerts", len(alerts),
	)

	writeJSON(w, map[string]any{
		"alerts": nonNil(alerts),
	})
}

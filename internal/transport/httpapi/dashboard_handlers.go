package httpapi

import "net/http"

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.dashboard.Insights(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, insights)
}

func (s *Server) handleOwnerInsights(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	insights, err := s.dashboard.OwnerInsights(r.Context(), claims.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, insights)
}

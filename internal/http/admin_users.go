package httpapi

import (
	"net/http"

	"indorunners-backend-go/internal/services"
)

type PagedResponse struct {
	Items    []UserDTO `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.Users.List(r.Context(), CurrentCaller(r), services.UserQuery{
		Page:     parseInt(q.Get("page"), 1),
		PageSize: parseInt(q.Get("pageSize"), 20),
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]UserDTO, 0, len(page.Items))
	for _, u := range page.Items {
		items = append(items, toUserDTO(u))
	}
	WriteJSON(w, http.StatusOK, PagedResponse{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize})
}

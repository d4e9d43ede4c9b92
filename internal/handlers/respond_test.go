package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func contextWithQuery(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, 10},
		{"explicit values", "page=3&per_page=25", 3, 25},
		{"page clamped to one", "page=0", 1, 10},
		{"negative page clamped", "page=-5", 1, 10},
		{"per_page clamped up", "per_page=0", 1, 1},
		{"per_page clamped down", "per_page=1000", 1, 100},
		{"non-numeric falls back", "page=abc&per_page=xyz", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := pagination(contextWithQuery(tt.query))
			if page != tt.wantPage {
				t.Errorf("page = %d, want %d", page, tt.wantPage)
			}
			if perPage != tt.wantPerPage {
				t.Errorf("per_page = %d, want %d", perPage, tt.wantPerPage)
			}
		})
	}
}

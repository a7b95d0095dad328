package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kedai-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"", 1, 50},
		{"?page=3&page_size=10", 3, 10},
		{"?page=-2&page_size=abc", 1, 50},
		{"?page=2&page_size=500", 2, maxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/products"+tc.query, nil)
			page, pageSize := ParsePagination(c, 50)
			if page != tc.page || pageSize != tc.pageSize {
				t.Fatalf("want %d/%d got %d/%d", tc.page, tc.pageSize, page, pageSize)
			}
		})
	}
}

func TestNewPaginationTotalPage(t *testing.T) {
	p := response.NewPagination(1, 20, 41)
	if p.TotalPage != 3 {
		t.Fatalf("want 3 pages got %d", p.TotalPage)
	}
	if response.NewPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should yield 0 pages")
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitfantasy/toolroom/internal/tools/service"
	"github.com/gin-gonic/gin"
)

func TestFailMapsServiceErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{fmt.Errorf("%w: instance x", service.ErrNotFound), http.StatusNotFound, 40400},
		{service.ErrMissingEmployee, http.StatusBadRequest, 40000},
		{fmt.Errorf("%w: position p", service.ErrOverDelivery), http.StatusBadRequest, 40000},
		{fmt.Errorf("%w: damaged", service.ErrInvalidState), http.StatusConflict, 40900},
		{fmt.Errorf("%w: x", service.ErrAlreadyInUse), http.StatusConflict, 40901},
		{fmt.Errorf("%w: x", service.ErrAlreadyClosed), http.StatusConflict, 40901},
		{errors.New("connection reset"), http.StatusInternalServerError, 50000},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Fail(c, tt.err)

		if w.Code != tt.wantStatus {
			t.Errorf("%v: status %d, want %d", tt.err, w.Code, tt.wantStatus)
		}
		var resp Response
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%v: bad body: %v", tt.err, err)
		}
		if resp.Code != tt.wantCode || resp.Message != tt.err.Error() {
			t.Errorf("%v: got code %d message %q", tt.err, resp.Code, resp.Message)
		}
	}
}

func TestPagedTotalPages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 2, 3},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Paged(c, []string{}, tt.total, 1, tt.pageSize)

		var resp struct {
			Data ListResponse `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Data.Pagination == nil || resp.Data.Pagination.TotalPages != tt.want {
			t.Errorf("total %d / %d: got %+v, want %d pages", tt.total, tt.pageSize, resp.Data.Pagination, tt.want)
		}
	}
}

func TestGetPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		page, size int
	}{
		{"", 1, 20},
		{"?page=3&page_size=50", 3, 50},
		{"?page=-1&page_size=500", 1, 20},
		{"?page=abc", 1, 20},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)

		page, size := GetPagination(c)
		if page != tt.page || size != tt.size {
			t.Errorf("%q: got %d/%d, want %d/%d", tt.query, page, size, tt.page, tt.size)
		}
	}
}

package handler_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"sidesa/internal/content/handler"
	"sidesa/internal/content/models"
	"sidesa/internal/content/service"
	"sidesa/internal/content/store"
	"sidesa/pkg/domain"
	"sidesa/pkg/testutil"
)

func newRouter() chi.Router {
	logger := slog.New(slog.DiscardHandler)
	h := handler.New(service.New(store.NewInMemoryStore(), logger), logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.RegisterAdmin(r)
	return r
}

func TestContentLifecycle(t *testing.T) {
	r := newRouter()

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/content/hero"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	put := testutil.WithOperator(
		testutil.NewRequestWithBody(t, http.MethodPut, "/admin/content/hero", `{"title":"Desa Sukamaju","subtitle":"Portal warga"}`),
		"op-admin", domain.RoleAdmin,
	)
	rr = testutil.DoRequest(r, put)
	testutil.AssertStatusOK(t, rr)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/content/hero"))
	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[handler.SectionResponse](t, rr)
	assert.Equal(t, models.KindHero, resp.Kind)
	assert.Equal(t, "op-admin", resp.UpdatedBy)
	assert.JSONEq(t, `{"title":"Desa Sukamaju","subtitle":"Portal warga"}`, string(resp.Data))
}

func TestContentEditRequiresAdministrativeRole(t *testing.T) {
	r := newRouter()
	put := testutil.WithOperator(
		testutil.NewRequestWithBody(t, http.MethodPut, "/admin/content/hero", `{"title":"x"}`),
		"op-2", domain.RoleOperator,
	)
	rr := testutil.DoRequest(r, put)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}

func TestContentRejectsUnknownKindAndBadData(t *testing.T) {
	r := newRouter()

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/content/gallery"))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")

	put := testutil.WithOperator(
		testutil.NewRequestWithBody(t, http.MethodPut, "/admin/content/statistics", `{"population":-1,"as_of":"2026-01-01T00:00:00Z"}`),
		"op-admin", domain.RoleAdmin,
	)
	rr = testutil.DoRequest(r, put)
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_error")
}

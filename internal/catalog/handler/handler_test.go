package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"storefront/internal/catalog/handler/mocks"
	"storefront/internal/catalog/models"
	"storefront/internal/catalog/service"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/requestcontext"
	"storefront/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  http.Handler

	principal requestcontext.Principal
	view      *service.ProductView
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	s.router = r

	tenantID := id.TenantID(uuid.New())
	s.principal = testutil.NewPrincipal(tenantID, id.RoleStaff)
	createdBy := s.principal.UserID
	product, err := models.NewProduct(id.ProductID(uuid.New()), tenantID, &createdBy, models.ProductInput{
		Name:     "Widget",
		Price:    decimal.RequireFromString("10"),
		Stock:    5,
		Category: "tools",
		IsActive: true,
	}, time.Now())
	s.Require().NoError(err)
	s.view = &service.ProductView{Product: product, CreatedByUsername: s.principal.Username}
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithAuth(req, s.principal))
}

func (s *HandlerSuite) TestCreate() {
	s.Run("decimal string price returns 201 with a two place price", func() {
		s.service.EXPECT().Create(gomock.Any(), s.principal, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ requestcontext.Principal, in models.ProductInput) (*service.ProductView, error) {
				s.Equal("Widget", in.Name)
				s.True(in.Price.Equal(decimal.RequireFromString("10.00")))
				s.Equal(5, in.Stock)
				s.True(in.IsActive)
				return s.view, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/products/", map[string]any{
			"name":     " Widget ",
			"price":    "10.00",
			"stock":    5,
			"category": "tools",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "price", "10.00")
		testutil.AssertJSONContains(s.T(), rr, "created_by_username", s.principal.Username)
		testutil.AssertJSONContains(s.T(), rr, "created_by", s.principal.UserID.String())
	})

	s.Run("numeric price is accepted", func() {
		s.service.EXPECT().Create(gomock.Any(), s.principal, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ requestcontext.Principal, in models.ProductInput) (*service.ProductView, error) {
				s.True(in.Price.Equal(decimal.RequireFromString("19.99")))
				return s.view, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/products/", map[string]any{
			"name": "Widget", "price": 19.99, "stock": 1, "category": "tools",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("missing price is a field error", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/products/", map[string]any{
			"name": "Widget", "stock": 1, "category": "tools",
		}))

		testutil.AssertFieldError(s.T(), rr, "price")
	})

	s.Run("forbidden from service maps to 403", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "denied"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/products/", map[string]any{
			"name": "Widget", "price": "1.00", "stock": 1, "category": "tools",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

func (s *HandlerSuite) TestList() {
	s.Run("query parameters become the filter", func() {
		active := true
		s.service.EXPECT().
			List(gomock.Any(), s.principal, models.Filter{Category: "tools", IsActive: &active, Search: "wid"}).
			Return([]service.ProductView{*s.view}, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/?category=tools&is_active=true&search=wid"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		list := *testutil.UnmarshalResponse[[]ProductResponse](s.T(), rr)
		s.Require().Len(list, 1)
		s.Equal("Widget", list[0].Name)
	})

	s.Run("empty list is an empty array", func() {
		s.service.EXPECT().List(gomock.Any(), gomock.Any(), models.Filter{}).Return([]service.ProductView{}, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.JSONEq("[]", rr.Body.String())
	})

	s.Run("malformed is_active is rejected", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/?is_active=maybe"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestCategories() {
	s.service.EXPECT().Categories(gomock.Any(), s.principal).Return([]string{"food", "tools"}, nil)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/categories"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.JSONEq(`["food","tools"]`, rr.Body.String())
}

func (s *HandlerSuite) TestGet() {
	s.Run("found", func() {
		s.service.EXPECT().Get(gomock.Any(), s.principal, s.view.ID).Return(s.view, nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/"+s.view.ID.String()))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "id", s.view.ID.String())
	})

	s.Run("malformed id is not found", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/products/not-a-uuid"))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestUpdate() {
	s.Run("patch forwards only present fields", func() {
		s.service.EXPECT().Update(gomock.Any(), s.principal, s.view.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ requestcontext.Principal, _ id.ProductID, u models.ProductUpdate) (*service.ProductView, error) {
				s.Require().NotNil(u.Stock)
				s.Equal(7, *u.Stock)
				s.Nil(u.Name)
				s.Nil(u.Price)
				return s.view, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/products/"+s.view.ID.String(), map[string]any{"stock": 7}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("put requires the full body", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/products/"+s.view.ID.String(), map[string]any{"stock": 7}))

		testutil.AssertFieldError(s.T(), rr, "name")
	})

	s.Run("put resets omitted optional fields", func() {
		s.service.EXPECT().Update(gomock.Any(), s.principal, s.view.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ requestcontext.Principal, _ id.ProductID, u models.ProductUpdate) (*service.ProductView, error) {
				s.Require().NotNil(u.Description)
				s.Equal("", *u.Description)
				s.Require().NotNil(u.IsActive)
				s.True(*u.IsActive)
				return s.view, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/products/"+s.view.ID.String(), map[string]any{
			"name": "Widget", "price": "12.50", "stock": 3, "category": "tools",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *HandlerSuite) TestDelete() {
	s.Run("success is 204", func() {
		s.service.EXPECT().Delete(gomock.Any(), s.principal, s.view.ID).Return(nil)

		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/products/"+s.view.ID.String()))

		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("referenced product is a conflict", func() {
		s.service.EXPECT().Delete(gomock.Any(), s.principal, s.view.ID).
			Return(dErrors.New(dErrors.CodeConflict, "product is referenced by existing orders"))

		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/products/"+s.view.ID.String()))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *HandlerSuite) TestUnauthenticated() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/products/"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

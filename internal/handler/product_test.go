package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mkarpik/storefront-api/internal/repository"
)

const selectProductsQ = "SELECT product_id, category_id, name, unit_price, description, functionality, photo_path, units_in_stock, discontinued FROM products"

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"product_id", "category_id", "name", "unit_price",
		"description", "functionality", "photo_path", "units_in_stock", "discontinued"})
}

func newProductHandler(t *testing.T) (*ProductHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductHandler(repository.NewProductRepo(db), repository.NewCategoryRepo(db)), mock
}

func getRequest(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListProductsByCategory(t *testing.T) {
	h, mock := newProductHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectProductsQ + " WHERE category_id=? ORDER BY product_id")).
		WithArgs(uint64(2)).
		WillReturnRows(productRows().
			AddRow(1, 2, "Keyboard", 49.90, "mechanical", "typing", "/img/kb.png", 12, false))

	c, rec := getRequest("/api/products?CategoryID=2")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Name":"Keyboard"`)
	require.Contains(t, rec.Body.String(), `"UnitsInStock":12`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsBadCategoryIs400(t *testing.T) {
	h, _ := newProductHandler(t)

	c, rec := getRequest("/api/products?CategoryID=zero")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchProducts(t *testing.T) {
	h, mock := newProductHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectProductsQ + " WHERE name LIKE ? ORDER BY product_id")).
		WithArgs("%key%").
		WillReturnRows(productRows().
			AddRow(1, 2, "Keyboard", 49.90, "mechanical", "typing", "/img/kb.png", 12, false))

	c, rec := getRequest("/api/products/search?SearchPhase=key")
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Keyboard")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownProductIs404(t *testing.T) {
	h, mock := newProductHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectProductsQ + " WHERE product_id=? LIMIT 1")).
		WithArgs(uint64(9)).
		WillReturnRows(productRows())

	c, rec := getRequest("/api/products/9")
	c.SetParamNames("ProductID")
	c.SetParamValues("9")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProductUnknownCategoryIs404(t *testing.T) {
	h, mock := newProductHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM categories WHERE category_id=? LIMIT 1")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"CategoryID":99,"Name":"Keyboard","UnitPrice":49.9}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "given CategoryID not found")
}

func TestToggleDiscontinued(t *testing.T) {
	h, mock := newProductHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, discontinued FROM products WHERE product_id=? LIMIT 1")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "discontinued"}).AddRow("Keyboard", false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET discontinued=? WHERE product_id=?")).
		WithArgs(true, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := getRequest("/api/products/toggle-discontinued/5")
	c.SetParamNames("ProductID")
	c.SetParamValues("5")
	require.NoError(t, h.ToggleDiscontinued(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Discontinued: true")
	require.NoError(t, mock.ExpectationsWereMet())
}

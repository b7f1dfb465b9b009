package httpx

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionOf(t *testing.T, body []byte) SessionResponse {
	t.Helper()
	var s SessionResponse
	require.NoError(t, json.Unmarshal(body, &s))
	return s
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := sessionOf(t, rec.Body.Bytes()).ID
	require.NotEmpty(t, id)
	base := "/api/sessions/" + id

	rec = f.do(http.MethodPost, base+"/cart/items", `{"id":"a","name":"Jacket","price":10.5,"quantity":1,"size":"M"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, base+"/cart/items", `{"id":"a","name":"Jacket","price":10.5,"quantity":1,"size":"M"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, base+"/cart/items", `{"id":"a","name":"Jacket","price":10.5,"size":"L"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	s := sessionOf(t, rec.Body.Bytes())
	require.Len(t, s.Cart, 2)
	assert.Equal(t, 2, s.Cart[0].Quantity)
	assert.Equal(t, 3, s.ItemCount)
	assert.Equal(t, "31.50", s.Subtotal)

	rec = f.do(http.MethodPatch, base+"/cart/items/a?size=M", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, sessionOf(t, rec.Body.Bytes()).Cart[0].Quantity)

	rec = f.do(http.MethodDelete, base+"/cart/items/a?size=L", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sessionOf(t, rec.Body.Bytes()).Cart, 1)

	rec = f.do(http.MethodDelete, base+"/cart/items/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, base+"/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessionOf(t, rec.Body.Bytes()).Cart)
}

func TestAddCartItem_Validation(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/sessions/s1/cart/items", `{"name":"no id","price":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/sessions/s1/cart/items", `{"id":"a","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/sessions/s1/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWishlist(t *testing.T) {
	f := newFixture()
	base := "/api/sessions/s1/wishlist"

	rec := f.do(http.MethodPost, base, `{"id":"w1","name":"Dress","price":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, base, `{"id":"w1","name":"Dress","price":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.do(http.MethodPost, base, `{"id":"w2","name":"Scarf","price":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, sessionOf(t, rec.Body.Bytes()).Wishlist, 2)

	rec = f.do(http.MethodDelete, base+"/w1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sessionOf(t, rec.Body.Bytes()).Wishlist, 1)

	rec = f.do(http.MethodDelete, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessionOf(t, rec.Body.Bytes()).Wishlist)

	rec = f.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", sessionOf(t, rec.Body.Bytes()).ID)
}

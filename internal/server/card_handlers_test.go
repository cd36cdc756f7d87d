package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"mesto/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createCard(t *testing.T, token, name string) models.Card {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/cards", map[string]string{
		"name": name,
		"link": "https://example.com/" + name + ".jpg",
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var card models.Card
	require.NoError(t, json.Unmarshal(body, &card))
	return card
}

func TestCreateCard(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	user, token := env.newUser(t, "owner@example.com")

	card := env.createCard(t, token, "Baikal")

	assert.NotZero(t, card.ID)
	assert.Equal(t, user.ID, card.OwnerID)
	assert.Equal(t, "Baikal", card.Name)
	assert.Empty(t, card.LikeIDs)
}

func TestCreateCard_Validation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.newUser(t, "owner@example.com")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short name", map[string]string{"name": "B", "link": "https://example.com/a.jpg"}},
		{"bad link", map[string]string{"name": "Baikal", "link": "javascript:alert(1)"}},
		{"missing link", map[string]string{"name": "Baikal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/cards", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, models.CodeValidation, decodeError(t, body).Code)
		})
	}
	assert.Zero(t, countRows(t, env.db, &models.Card{}))
}

func TestGetCards_NewestFirst(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.newUser(t, "owner@example.com")

	first := env.createCard(t, token, "First")
	second := env.createCard(t, token, "Second")

	resp, body := env.do(t, http.MethodGet, "/cards", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cards []models.Card
	require.NoError(t, json.Unmarshal(body, &cards))
	require.Len(t, cards, 2)
	assert.Equal(t, second.ID, cards[0].ID)
	assert.Equal(t, first.ID, cards[1].ID)
}

func TestLikeCard_IsASet(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, ownerToken := env.newUser(t, "owner@example.com")
	fan, fanToken := env.newUser(t, "fan@example.com")
	card := env.createCard(t, ownerToken, "Elbrus")
	path := fmt.Sprintf("/cards/%d/likes", card.ID)

	var liked models.Card
	for i := 0; i < 3; i++ {
		resp, body := env.do(t, http.MethodPut, path, nil, fanToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		require.NoError(t, json.Unmarshal(body, &liked))
	}
	assert.Equal(t, []uint{fan.ID}, liked.LikeIDs)
	assert.Equal(t, int64(1), countRows(t, env.db, &models.CardLike{}))

	for i := 0; i < 2; i++ {
		resp, body := env.do(t, http.MethodDelete, path, nil, fanToken)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		require.NoError(t, json.Unmarshal(body, &liked))
	}
	assert.Empty(t, liked.LikeIDs)
}

func TestLikeCard_Missing(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.newUser(t, "fan@example.com")

	resp, body := env.do(t, http.MethodPut, "/cards/4242/likes", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, decodeError(t, body).Code)

	resp, _ = env.do(t, http.MethodDelete, "/cards/4242/likes", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteCard(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, ownerToken := env.newUser(t, "owner@example.com")
	_, otherToken := env.newUser(t, "other@example.com")
	card := env.createCard(t, ownerToken, "Altai")
	path := fmt.Sprintf("/cards/%d", card.ID)

	env.do(t, http.MethodPut, path+"/likes", nil, otherToken)

	resp, body := env.do(t, http.MethodDelete, path, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeForbidden, decodeError(t, body).Code)
	assert.Equal(t, int64(1), countRows(t, env.db, &models.Card{}))

	resp, body = env.do(t, http.MethodDelete, path, nil, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Card deleted"}`, string(body))
	assert.Zero(t, countRows(t, env.db, &models.Card{}))
	assert.Zero(t, countRows(t, env.db, &models.CardLike{}))

	resp, _ = env.do(t, http.MethodDelete, path, nil, ownerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCardRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		resp, body := env.do(t, method, "/cards", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeUnauthorized, decodeError(t, body).Code)
	}
}

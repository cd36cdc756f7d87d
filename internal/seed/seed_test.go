package seed

import (
	"testing"
	"unicode/utf8"

	"mesto/internal/models"
	"mesto/internal/testutil"
	"mesto/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_CreatesUsersCardsAndLikes(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	summary, err := Seed(db, Options{Users: 5, Cards: 12, SkipBcrypt: true, RandSeed: 42, MaxLikes: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Users)
	assert.Equal(t, 12, summary.Cards)
	assert.LessOrEqual(t, summary.Likes, 12*3)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 5)
	for _, u := range users {
		assert.NoError(t, validation.ValidateEmail(u.Email))
		assert.True(t, validation.IsHTTPURL(u.Avatar))
	}

	var likes int64
	require.NoError(t, db.Model(&models.CardLike{}).Count(&likes).Error)
	assert.Equal(t, int64(summary.Likes), likes)
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	_, err := Seed(db, Options{Users: 3, Cards: 3, SkipBcrypt: true, RandSeed: 1})
	require.NoError(t, err)
	_, err = Seed(db, Options{Users: 2, Cards: 1, Clean: true, SkipBcrypt: true, RandSeed: 2})
	require.NoError(t, err)

	var users, cards int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Card{}).Count(&cards).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(1), cards)
}

func TestSeed_RequiresUsers(t *testing.T) {
	_, err := Seed(testutil.NewSQLiteDB(t), Options{Cards: 3})
	assert.Error(t, err)
}

func TestFactory_HashesPassword(t *testing.T) {
	f, err := NewFactory(nil, 7, false)
	require.NoError(t, err)

	u := f.BuildUser()
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}

func TestFactory_FieldsFitValidation(t *testing.T) {
	f, err := NewFactory(nil, 99, true)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		u := f.BuildUser()
		assert.GreaterOrEqual(t, utf8.RuneCountInString(u.Name), 2)
		assert.LessOrEqual(t, utf8.RuneCountInString(u.Name), 30)
		assert.LessOrEqual(t, utf8.RuneCountInString(u.About), 30)

		c := f.BuildCard(u)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Name), 30)
		assert.True(t, validation.IsHTTPURL(c.Link))
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "a_", clamp("a", 2, 30))
	assert.Equal(t, "abc", clamp(" abc ", 2, 30))
	assert.Equal(t, "abcde", clamp("abcdefgh", 2, 5))
}

package contacts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MateGuard/internal/models"
	"MateGuard/pkg/secure"
)

func newTestBook() *Book {
	return NewBook(secure.NewStore(secure.NewMemoryKV()))
}

func TestFirstContactDefaultsPrimary(t *testing.T) {
	book := newTestBook()

	first, err := book.Add(1, "Ana", "+61400000001", "family")
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	assert.False(t, first.Verified)

	second, err := book.Add(1, "Ben", "+61400000002", "friend")
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestContactCap(t *testing.T) {
	book := newTestBook()

	for i := 0; i < models.MaxEmergencyContacts; i++ {
		_, err := book.Add(1, fmt.Sprintf("Contact %d", i), fmt.Sprintf("+6140000%04d", i), "other")
		require.NoError(t, err)
	}

	_, err := book.Add(1, "One Too Many", "+61400009999", "other")
	assert.ErrorIs(t, err, ErrContactLimit)
	assert.Len(t, book.List(1), models.MaxEmergencyContacts)
}

func TestUpdateKeepsPrimacy(t *testing.T) {
	book := newTestBook()
	c, err := book.Add(1, "Ana", "+61400000001", "family")
	require.NoError(t, err)

	updated, err := book.Update(1, c.ID, "Ana Maria", "+61400000009", "professional")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, "professional", updated.Relationship)
	assert.True(t, updated.IsPrimary)
}

func TestDeletePrimaryLeavesNoPrimary(t *testing.T) {
	// 删除主联系人后允许列表没有主联系人（保留原始宽松行为）
	book := newTestBook()
	first, err := book.Add(1, "Ana", "+61400000001", "family")
	require.NoError(t, err)
	_, err = book.Add(1, "Ben", "+61400000002", "friend")
	require.NoError(t, err)

	require.NoError(t, book.Delete(1, first.ID))

	list := book.List(1)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsPrimary)
}

func TestValidation(t *testing.T) {
	book := newTestBook()

	_, err := book.Add(1, "  ", "+61400000001", "family")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = book.Add(1, "Ana", "", "family")
	assert.ErrorIs(t, err, ErrInvalid)

	c, err := book.Add(1, "Ana", "+61400000001", "sibling")
	require.NoError(t, err)
	assert.Equal(t, "other", c.Relationship, "unknown relationship maps to other")
}

func TestListIsolatedPerUser(t *testing.T) {
	book := newTestBook()
	_, err := book.Add(1, "Ana", "+61400000001", "family")
	require.NoError(t, err)

	assert.Empty(t, book.List(2))
}

func TestDeleteMissing(t *testing.T) {
	book := newTestBook()
	assert.ErrorIs(t, book.Delete(1, 42), ErrNotFound)
}

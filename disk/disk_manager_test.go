package disk

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tern/common"
)

func TestDiskManager_Should_Read_Back_Written_Pages(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, created, err := NewDiskManager(dbName)
	require.NoError(t, err)
	require.True(t, created)

	data := make([]byte, PageSize)
	rand.Read(data)

	pageId := d.AllocatePage()
	require.NoError(t, d.WritePage(data, pageId))

	read := make([]byte, PageSize)
	require.NoError(t, d.ReadPage(pageId, read))
	assert.Equal(t, data, read)
}

func TestDiskManager_Should_Reject_Buffers_That_Are_Not_Page_Sized(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, _, err := NewDiskManager(dbName)
	require.NoError(t, err)

	assert.Error(t, d.WritePage(make([]byte, PageSize-1), 1))
	assert.Error(t, d.ReadPage(1, make([]byte, PageSize+1)))
}

func TestDiskManager_Should_Zero_Fill_Never_Synced_Pages(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, _, err := NewDiskManager(dbName)
	require.NoError(t, err)

	pageId := d.AllocatePage()
	read := make([]byte, PageSize)
	for i := range read {
		read[i] = 0xff
	}

	require.NoError(t, d.ReadPage(pageId, read))
	assert.Equal(t, make([]byte, PageSize), read)
}

func TestDiskManager_Should_Never_Allocate_The_Header_Page(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, _, err := NewDiskManager(dbName)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.NotEqual(t, InvalidPageID, d.AllocatePage())
	}
}

func TestDiskManager_Should_Serve_Deallocated_Pages_Again_In_Order(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, _, err := NewDiskManager(dbName)
	require.NoError(t, err)

	p1 := d.AllocatePage()
	p2 := d.AllocatePage()
	p3 := d.AllocatePage()

	d.DeallocatePage(p2)
	d.DeallocatePage(p3)

	assert.Equal(t, p2, d.AllocatePage())
	assert.Equal(t, p3, d.AllocatePage())

	// free list drained, back to extending the file
	assert.Equal(t, p3+1, d.AllocatePage())
	assert.NotEqual(t, p1, p2)
}

func TestDiskManager_Should_Keep_Pages_And_Free_List_Across_Reopens(t *testing.T) {
	id, _ := uuid.NewUUID()
	dbName := id.String()
	defer common.Remove(dbName)

	d, _, err := NewDiskManager(dbName)
	require.NoError(t, err)

	data := make([]byte, PageSize)
	rand.Read(data)

	p1 := d.AllocatePage()
	p2 := d.AllocatePage()
	require.NoError(t, d.WritePage(data, p1))
	require.NoError(t, d.WritePage(make([]byte, PageSize), p2))
	d.DeallocatePage(p2)
	require.NoError(t, d.Close())

	d, created, err := NewDiskManager(dbName)
	require.NoError(t, err)
	require.False(t, created)

	read := make([]byte, PageSize)
	require.NoError(t, d.ReadPage(p1, read))
	assert.Equal(t, data, read)

	assert.Equal(t, p2, d.AllocatePage())
}

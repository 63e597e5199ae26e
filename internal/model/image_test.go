package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

func TestParseFileStatus(t *testing.T) {
	st, err := ParseFileStatus(" done ")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st)

	_, err = ParseFileStatus("FINISHED")
	assert.ErrorIs(t, err, common.ErrInvalidStatus)
}

func TestFileStatus_Cycle(t *testing.T) {
	st := StatusDone
	seen := []FileStatus{st}
	for i := 0; i < 3; i++ {
		st = st.Next()
		seen = append(seen, st)
	}

	assert.Equal(t, []FileStatus{StatusDone, StatusInProgress, StatusAttention, StatusDone}, seen)
	assert.Equal(t, "A", StatusAttention.Letter())
	assert.Equal(t, "I", FileStatus("").Letter())
}

func TestStem(t *testing.T) {
	assert.Equal(t, "cat.01", Stem("cat.01.jpg"))
	assert.Equal(t, "noext", Stem("noext"))
	assert.Equal(t, ".hidden", Stem(".hidden"))
	assert.Equal(t, "img", ImageFile{Name: "img.png"}.Stem())
}

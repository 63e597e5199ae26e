package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/yolo-labeler/internal/model"
)

func TestSetupTestDBWithOptions(t *testing.T) {
	db := SetupTestDBWithOptions(t, TestDBOptions{
		Classes: []string{"Person", "Car"},
		Images:  []model.ImageFile{{Name: "a.jpg", Width: 64, Height: 48}},
		Annotations: map[string]model.AnnotationRecord{
			"a.jpg": Record(1, 2),
		},
	})

	assert.Equal(t, []model.Class{{Name: "Class 0"}, {Name: "Person"}, {Name: "Car"}}, db.MustClasses())
	assert.Equal(t, Record(1, 2), db.MustAnnotations("a.jpg"))
	assert.Empty(t, db.MustAnnotations("other.jpg").Boxes)
}
